package recording

import (
	"context"
	"fmt"
	"time"

	"github.com/livekit/protocol/livekit"

	"github.com/saipavankommuri123/liveKit-backend/pkg/logger"
)

// waitForFileStart polls the egress listing until LiveKit reports that the
// recording file has actually begun writing, and returns its start time in
// epoch milliseconds. A missing egress, an egress error, or an end before
// the file starts are terminal. Listing failures are transient and retried.
// Exhausting the budget returns 0 with no error; the caller then treats
// "now" as the best-effort start time.
func (s *Service) waitForFileStart(ctx context.Context, egressID string) (int64, error) {
	start := time.Now()
	deadline := start.Add(s.cfg.StartTimeout)
	lastStatus := livekit.EgressStatus(-1)

	for time.Now().Before(deadline) {
		cctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
		items, err := s.egress.ListEgress(cctx, "")
		cancel()
		if err != nil {
			logger.Warn("Error while polling egress for file start",
				logger.String("egress_id", egressID), logger.ErrorField(err))
			if waited := sleepOrDone(ctx, s.cfg.PollInterval); waited != nil {
				return 0, waited
			}
			continue
		}

		var eg *livekit.EgressInfo
		for _, item := range items {
			if item != nil && item.EgressId == egressID {
				eg = item
				break
			}
		}
		if eg == nil {
			return 0, fmt.Errorf("egress %s disappeared before file started", egressID)
		}

		// Primary signal: the file-level start timestamp (nanoseconds).
		if f := eg.GetFile(); f != nil && f.StartedAt > 0 {
			logger.Info("Egress file started",
				logger.String("egress_id", egressID),
				logger.Duration("after", time.Since(start)))
			return f.StartedAt / int64(time.Millisecond), nil
		}
		// Fallback: the first file result.
		if len(eg.FileResults) > 0 && eg.FileResults[0] != nil && eg.FileResults[0].StartedAt > 0 {
			logger.Info("Egress file started (file result)",
				logger.String("egress_id", egressID),
				logger.Duration("after", time.Since(start)))
			return eg.FileResults[0].StartedAt / int64(time.Millisecond), nil
		}

		if eg.Status != lastStatus {
			lastStatus = eg.Status
			logger.Debug("Egress status while waiting for file start",
				logger.String("egress_id", egressID),
				logger.String("status", eg.Status.String()),
				logger.Duration("after", time.Since(start)))
		}

		if eg.EndedAt != 0 || eg.Error != "" {
			reason := eg.Error
			if reason == "" {
				reason = "ended"
			}
			return 0, fmt.Errorf("egress %s ended before file started: %s", egressID, reason)
		}

		if waited := sleepOrDone(ctx, s.cfg.PollInterval); waited != nil {
			return 0, waited
		}
	}

	logger.Warn("Timeout waiting for egress file to start",
		logger.String("egress_id", egressID),
		logger.Duration("waited", s.cfg.StartTimeout))
	return 0, nil
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
