package recording

import (
	"context"
	"errors"

	"github.com/twitchtv/twirp"
)

// The egress service is the tie-breaker for races between concurrent stop
// callers and the recording's own lifecycle: its error codes decide whether
// a failed stop means "still finalizing" or "already ended".

// isDeadlineExceeded reports whether an egress call timed out, either
// client-side (context deadline) or as a twirp deadline_exceeded response.
// The egress may still be finalizing, so local state must not be cleared.
func isDeadlineExceeded(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te twirp.Error
	return errors.As(err, &te) && te.Code() == twirp.DeadlineExceeded
}

// isFailedPrecondition reports whether the egress is not in a stoppable
// state: already ended, failed, or no longer known to the service. The
// local session is stale and safe to drop.
func isFailedPrecondition(err error) bool {
	var te twirp.Error
	if !errors.As(err, &te) {
		return false
	}
	return te.Code() == twirp.FailedPrecondition || te.Code() == twirp.NotFound
}
