package recording

import (
	"context"
	"sync"
	"time"

	"github.com/livekit/protocol/livekit"

	"github.com/saipavankommuri123/liveKit-backend/pkg/logger"
)

// Sweeper periodically stops recordings that have outlived the maximum
// duration or whose room has emptied out. It works directly against the
// egress listing and participant directory; the session store is only
// touched to clear entries for recordings it stops. Failures are contained
// per room so one bad entry never aborts the rest of a pass.
type Sweeper struct {
	service  *Service
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewSweeper(service *Service, interval time.Duration) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start runs one pass immediately, then sweeps on the configured interval
// until Stop is called.
func (sw *Sweeper) Start() {
	sw.wg.Add(1)
	go func() {
		defer sw.wg.Done()

		sw.sweep(context.Background())

		ticker := time.NewTicker(sw.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sw.sweep(context.Background())
			case <-sw.stopChan:
				return
			}
		}
	}()
}

// Stop halts the sweep loop and waits for an in-flight pass to finish.
func (sw *Sweeper) Stop() {
	close(sw.stopChan)
	sw.wg.Wait()
}

func (sw *Sweeper) sweep(ctx context.Context) {
	s := sw.service

	cctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	items, err := s.egress.ListEgress(cctx, "")
	cancel()
	if err != nil {
		logger.Error("Cleanup sweep failed to list egress", logger.ErrorField(err))
		return
	}

	for _, item := range items {
		if item == nil || item.EndedAt != 0 || item.RoomName == "" || item.EgressId == "" {
			continue
		}
		if sw.stopIfOverMaxDuration(ctx, item) {
			continue
		}
		sw.stopIfRoomEmpty(ctx, item)
	}
}

// stopIfOverMaxDuration enforces the failsafe on total recording length.
// It returns true when the entry was stopped and needs no further checks.
// EgressInfo.StartedAt is a nanosecond epoch timestamp.
func (sw *Sweeper) stopIfOverMaxDuration(ctx context.Context, item *livekit.EgressInfo) bool {
	s := sw.service
	if item.StartedAt <= 0 {
		return false
	}

	age := time.Since(time.Unix(0, item.StartedAt))
	if age <= s.cfg.MaxDuration {
		return false
	}

	logger.Info("Stopping egress: max duration exceeded",
		logger.String("egress_id", item.EgressId),
		logger.String("room", item.RoomName),
		logger.Duration("age", age))

	cctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	_, err := s.egress.StopEgress(cctx, item.EgressId)
	cancel()
	if err != nil {
		// Still worth the empty-room check below; an idle room should not
		// keep recording just because this stop failed.
		logger.Error("Failed to stop long-running egress",
			logger.String("egress_id", item.EgressId), logger.ErrorField(err))
		return false
	}

	s.store.Delete(item.RoomName)
	sweepStopsTotal.WithLabelValues("max_duration").Inc()
	return true
}

// stopIfRoomEmpty stops a recording whose room has no participants left.
// Deadline-exceeded and failed-precondition outcomes are non-fatal here:
// the egress is presumed ending or already ended either way, so the local
// session is cleared unconditionally.
func (sw *Sweeper) stopIfRoomEmpty(ctx context.Context, item *livekit.EgressInfo) {
	s := sw.service

	cctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	participants, err := s.rooms.ListParticipants(cctx, item.RoomName)
	cancel()
	if err != nil {
		logger.Error("Failed to list participants",
			logger.String("room", item.RoomName), logger.ErrorField(err))
		return
	}
	if len(participants) > 0 {
		return
	}

	logger.Info("Stopping egress: room has no participants",
		logger.String("egress_id", item.EgressId),
		logger.String("room", item.RoomName))

	cctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
	_, err = s.egress.StopEgress(cctx, item.EgressId)
	cancel()
	switch {
	case err == nil:
	case isDeadlineExceeded(err) || isFailedPrecondition(err):
		logger.Warn("Stop returned a non-fatal code during cleanup",
			logger.String("egress_id", item.EgressId), logger.ErrorField(err))
	default:
		logger.Error("Failed to stop egress for empty room",
			logger.String("egress_id", item.EgressId), logger.ErrorField(err))
	}

	s.store.Delete(item.RoomName)
	sweepStopsTotal.WithLabelValues("empty_room").Inc()
}
