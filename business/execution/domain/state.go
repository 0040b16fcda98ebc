package domain

// State is the lifecycle state of a strategy execution.
type State string

const (
	StateIdle                State = "idle"
	StateValidating          State = "validating"
	StateSubmitting          State = "submitting"
	StatePendingConfirmation State = "pending_confirmation"
	StateConfirmed           State = "confirmed"
	StateFailed              State = "failed"

	// StateTimedOut means the confirmation wait expired. The
	// transaction may still be mined later; it is ambiguous, not
	// failed.
	StateTimedOut State = "timed_out"
)

// Terminal reports whether no further transition happens.
func (s State) Terminal() bool {
	switch s {
	case StateConfirmed, StateFailed, StateTimedOut:
		return true
	}
	return false
}
