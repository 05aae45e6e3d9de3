package recording

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/livekit/protocol/livekit"

	"github.com/saipavankommuri123/liveKit-backend/pkg/logger"
)

// EgressAPI is the remote egress capability this service brokers. The
// production implementation wraps the LiveKit egress client; tests supply
// fakes. ListEgress with an empty room returns every known egress.
type EgressAPI interface {
	ListEgress(ctx context.Context, roomName string) ([]*livekit.EgressInfo, error)
	StartRoomComposite(ctx context.Context, req *livekit.RoomCompositeEgressRequest) (*livekit.EgressInfo, error)
	StopEgress(ctx context.Context, egressID string) (*livekit.EgressInfo, error)
}

// RoomAPI reports the current participants of a room.
type RoomAPI interface {
	ListParticipants(ctx context.Context, roomName string) ([]*livekit.ParticipantInfo, error)
}

// Config carries the recording lifecycle policy knobs.
type Config struct {
	MinActive      time.Duration // grace period before a stop may proceed
	MaxDuration    time.Duration // sweep failsafe on total recording length
	StartTimeout   time.Duration // overall budget waiting for the file to begin
	PollInterval   time.Duration // listing poll interval while waiting
	RequestTimeout time.Duration // bound on every remote call
	OutputDir      string        // root of the recording output tree
}

var (
	// ErrNoActiveRecording means neither the cache nor the egress listing
	// knows an active recording for the room.
	ErrNoActiveRecording = errors.New("no active recording found for this room")
	// ErrStillFinalizing means the stop call timed out; the egress is likely
	// finalizing and the caller should retry or poll status.
	ErrStillFinalizing = errors.New("stop request timed out; egress likely finalizing")
	// ErrAlreadyEnded means the egress is not in a stoppable state.
	ErrAlreadyEnded = errors.New("egress is not in a stoppable state")
	// ErrEgressNotFound means no egress with the requested id exists.
	ErrEgressNotFound = errors.New("egress not found")
)

// StartResult reports the outcome of a start request.
type StartResult struct {
	EgressID         string
	AlreadyRecording bool
	StartedAt        int64 // epoch ms
}

// StopResult reports the outcome of a stop request. Duration is in seconds
// and only meaningful for synchronous stops.
type StopResult struct {
	EgressID string
	Duration int64
}

// StatusResult reports whether a room is recording and, if so, by whom and
// for how long (seconds).
type StatusResult struct {
	Recording bool
	EgressID  string
	StartedAt int64
	StartedBy string
	Duration  int64
}

// Service owns the recording lifecycle for all rooms: it reconciles the
// local session store against the egress listing before every decision,
// starts and stops room-composite egresses, and answers status queries.
type Service struct {
	egress EgressAPI
	rooms  RoomAPI
	store  *Store
	cfg    Config
}

func NewService(egress EgressAPI, rooms RoomAPI, store *Store, cfg Config) *Service {
	if cfg.StartTimeout == 0 {
		cfg.StartTimeout = 30 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 300 * time.Millisecond
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return &Service{egress: egress, rooms: rooms, store: store, cfg: cfg}
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

// reconcile refreshes the cached session for a room from the egress listing
// and returns the active egress, if any. The cache is never trusted without
// this: an absent entry does not mean no egress exists, and a present entry
// does not mean its egress is still running.
func (s *Service) reconcile(ctx context.Context, room string) (*livekit.EgressInfo, error) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	items, err := s.egress.ListEgress(cctx, room)
	if err != nil {
		return nil, fmt.Errorf("listing egress for room %s: %w", room, err)
	}

	var active *livekit.EgressInfo
	for _, item := range items {
		if item != nil && item.EndedAt == 0 {
			active = item
			break
		}
	}

	if active == nil {
		s.store.Delete(room)
		return nil, nil
	}

	if sess, ok := s.store.Get(room); !ok || sess.EgressID != active.EgressId {
		startedBy := "unknown"
		if ok && sess.StartedBy != "" {
			startedBy = sess.StartedBy
		}
		now := nowMs()
		s.store.Put(room, Session{
			EgressID:      active.EgressId,
			StartedAt:     now,
			StartedBy:     startedBy,
			NotBeforeStop: now + s.cfg.MinActive.Milliseconds(),
		})
	}
	return active, nil
}

// outputSpec is the fixed recording target: a single composed MP4 of the
// whole room in grid layout at 1080p30, 6Mbps video and 128kbps audio.
func (s *Service) outputSpec(room string) *livekit.RoomCompositeEgressRequest {
	filepath := path.Join(s.cfg.OutputDir, room, fmt.Sprintf("%d.mp4", nowMs()))
	return &livekit.RoomCompositeEgressRequest{
		RoomName: room,
		Layout:   "grid",
		Options: &livekit.RoomCompositeEgressRequest_Advanced{
			Advanced: &livekit.EncodingOptions{
				Width:        1920,
				Height:       1080,
				Framerate:    30,
				VideoBitrate: 6000,
				AudioBitrate: 128,
			},
		},
		FileOutputs: []*livekit.EncodedFileOutput{{
			FileType: livekit.EncodedFileType_MP4,
			Filepath: filepath,
		}},
	}
}

// Start begins recording a room, or reports the existing recording when one
// is already active. Repeated and concurrent calls for the same room never
// create duplicate egresses as long as the listing is reachable.
func (s *Service) Start(ctx context.Context, room, identity string) (*StartResult, error) {
	active, err := s.reconcile(ctx, room)
	if err != nil {
		startsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	if active != nil {
		sess, ok := s.store.Get(room)
		if ok && identity != "" && sess.StartedBy == "unknown" {
			sess.StartedBy = identity
			s.store.Put(room, sess)
		}
		startsTotal.WithLabelValues("already_recording").Inc()
		logger.Info("Recording already in progress, using existing egress",
			logger.String("room", room), logger.String("egress_id", active.EgressId))
		return &StartResult{
			EgressID:         active.EgressId,
			AlreadyRecording: true,
			StartedAt:        sess.StartedAt,
		}, nil
	}

	req := s.outputSpec(room)
	logger.Info("Starting egress",
		logger.String("room", room),
		logger.String("filepath", req.FileOutputs[0].Filepath))

	cctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	info, err := s.egress.StartRoomComposite(cctx, req)
	cancel()
	if err != nil {
		startsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("starting egress for room %s: %w", room, err)
	}

	startedAt, err := s.waitForFileStart(ctx, info.EgressId)
	if err != nil {
		startsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	if startedAt == 0 {
		// Awaiter timed out without a terminal failure: start optimistically.
		startedAt = nowMs()
	}

	if identity == "" {
		identity = "unknown"
	}
	s.store.Put(room, Session{
		EgressID:      info.EgressId,
		StartedAt:     startedAt,
		StartedBy:     identity,
		NotBeforeStop: startedAt + s.cfg.MinActive.Milliseconds(),
	})

	startsTotal.WithLabelValues("created").Inc()
	return &StartResult{EgressID: info.EgressId, StartedAt: startedAt}, nil
}

// Stop ends the recording for a room. Synchronous stops honor the grace
// period and report the elapsed duration; asynchronous stops return as soon
// as the signal is sent and resolve the outcome in the background.
func (s *Service) Stop(ctx context.Context, room string, async bool) (*StopResult, error) {
	if _, err := s.reconcile(ctx, room); err != nil {
		// The session may still be cached; a listing failure alone is not
		// grounds to report not-found.
		logger.Error("Failed to reconcile before stop",
			logger.String("room", room), logger.ErrorField(err))
	}

	sess, ok := s.store.Get(room)
	if !ok {
		// One more pass covers a fresh process with a remote-only egress.
		if _, err := s.reconcile(ctx, room); err != nil {
			logger.Error("Failed to reconcile with LiveKit",
				logger.String("room", room), logger.ErrorField(err))
		}
		if sess, ok = s.store.Get(room); !ok {
			return nil, ErrNoActiveRecording
		}
	}

	if !async {
		if remaining := sess.NotBeforeStop - nowMs(); remaining > 0 {
			wait := time.Duration(remaining) * time.Millisecond
			if wait > 5*time.Second {
				wait = 5 * time.Second
			}
			logger.Info("Deferring stop until minimum active duration",
				logger.String("room", room), logger.Duration("wait", wait))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	logger.Info("Stopping egress",
		logger.String("egress_id", sess.EgressID),
		logger.String("room", room),
		logger.Bool("async", async))

	if async {
		go s.finishAsyncStop(room, sess.EgressID)
		stopsTotal.WithLabelValues("async_sent").Inc()
		return &StopResult{EgressID: sess.EgressID}, nil
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	_, err := s.egress.StopEgress(cctx, sess.EgressID)
	cancel()

	switch {
	case err == nil:
		s.store.Delete(room)
		stopsTotal.WithLabelValues("stopped").Inc()
		return &StopResult{
			EgressID: sess.EgressID,
			Duration: (nowMs() - sess.StartedAt) / 1000,
		}, nil
	case isDeadlineExceeded(err):
		// The egress may still be finalizing; keep the session so a retry
		// or reconciliation can resolve it.
		stopsTotal.WithLabelValues("finalizing").Inc()
		return nil, fmt.Errorf("%w: %v", ErrStillFinalizing, err)
	case isFailedPrecondition(err):
		s.store.Delete(room)
		stopsTotal.WithLabelValues("already_ended").Inc()
		return nil, fmt.Errorf("%w: %v", ErrAlreadyEnded, err)
	default:
		stopsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("stopping egress %s: %w", sess.EgressID, err)
	}
}

// finishAsyncStop resolves a fire-and-forget stop. Its failure path only
// logs and updates the store; nothing propagates to the caller.
func (s *Service) finishAsyncStop(room, egressID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	defer cancel()

	_, err := s.egress.StopEgress(ctx, egressID)
	switch {
	case err == nil:
		logger.Info("Egress stopped", logger.String("egress_id", egressID))
		s.store.Delete(room)
	case isFailedPrecondition(err):
		logger.Warn("Egress already ended before async stop",
			logger.String("egress_id", egressID), logger.ErrorField(err))
		s.store.Delete(room)
	default:
		// Leave the session; a later reconciliation corrects it.
		logger.Error("Async stop failed",
			logger.String("egress_id", egressID), logger.ErrorField(err))
	}
}

// Status reports whether a room is recording, adopting any remote-only
// egress into the cache so a page refresh rediscovers in-progress recordings.
func (s *Service) Status(ctx context.Context, room string) (*StatusResult, error) {
	active, err := s.reconcile(ctx, room)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return &StatusResult{Recording: false}, nil
	}

	sess, ok := s.store.Get(room)
	if !ok {
		// Reconcile adopted the egress a moment ago; losing the entry here
		// means a racing stop removed it.
		return &StatusResult{Recording: false}, nil
	}

	return &StatusResult{
		Recording: true,
		EgressID:  sess.EgressID,
		StartedAt: sess.StartedAt,
		StartedBy: sess.StartedBy,
		Duration:  (nowMs() - sess.StartedAt) / 1000,
	}, nil
}

// RoomEgress lists every egress the service knows for a room, ended or not.
func (s *Service) RoomEgress(ctx context.Context, room string) ([]*livekit.EgressInfo, error) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	return s.egress.ListEgress(cctx, room)
}

// EgressByID looks up a single egress in the full listing.
func (s *Service) EgressByID(ctx context.Context, egressID string) (*livekit.EgressInfo, error) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	items, err := s.egress.ListEgress(cctx, "")
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item != nil && item.EgressId == egressID {
			return item, nil
		}
	}
	return nil, ErrEgressNotFound
}
