package models

// EngagementStatus is the shared lifecycle enum for proposals and
// submissions. Transitions are monotonic: once a terminal state is reached
// there is no way back to PENDING.
type EngagementStatus string

const (
	StatusPending  EngagementStatus = "PENDING"
	StatusAccepted EngagementStatus = "ACCEPTED"
	StatusRejected EngagementStatus = "REJECTED"
	StatusCanceled EngagementStatus = "CANCELED"
)

// Valid reports whether s is a known lifecycle status.
func (s EngagementStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

// IsTerminal reports whether s admits no further transitions.
func (s EngagementStatus) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusCanceled
}

// CanTransition is the pure transition rule shared by both lifecycle
// managers: PENDING may move to any terminal state, nothing else moves.
func CanTransition(from, to EngagementStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	return from == StatusPending && to.IsTerminal()
}
