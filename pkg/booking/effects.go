package booking

import "context"

// TransitionKind names the lifecycle event a notification describes.
type TransitionKind string

const (
	TransitionCreated            TransitionKind = "created"
	TransitionConfirmed          TransitionKind = "confirmed"
	TransitionRejected           TransitionKind = "rejected"
	TransitionCancelled          TransitionKind = "cancelled"
	TransitionCompleted          TransitionKind = "completed"
	TransitionEmergencyCancelled TransitionKind = "emergency_cancelled"
)

// Notice is the payload handed to the notification coordinator once a
// transition has committed. Reason is set for reject and cancel kinds.
// NotifyManager marks transitions that also alert the department manager,
// who is always reached by mail regardless of channel settings.
type Notice struct {
	Reservation   Reservation
	Kind          TransitionKind
	Reason        string
	NotifyManager bool
}

// Dispatcher hands a notice to an asynchronous delivery worker. Enqueueing
// must not block on outbound network calls; delivery failures are audited by
// the coordinator and never surface to the triggering transition.
type Dispatcher interface {
	Dispatch(ctx context.Context, notice Notice)
}

// CacheInvalidator drops the availability-view cache entries touched by a
// state change: the unfiltered view plus the view for each listed status.
// Invalidation is idempotent and cheap enough to run synchronously.
type CacheInvalidator interface {
	InvalidateAvailability(ctx context.Context, statuses ...Status)
}
