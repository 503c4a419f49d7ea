// Package ranking holds the pure vote state machine: given the voter's
// current standing on an article and an incoming vote value, it decides the
// next state and the single store action that realizes it. Executing the
// action against storage is the caller's job.
package ranking

import "errors"

const (
	Upvote   = 1
	Downvote = -1
)

var ErrInvalidValue = errors.New("vote value must be +1 or -1")

type State int

const (
	NoVote State = iota
	Upvoted
	Downvoted
)

func (s State) String() string {
	switch s {
	case Upvoted:
		return "upvoted"
	case Downvoted:
		return "downvoted"
	default:
		return "none"
	}
}

// Action is the store mutation that realizes a transition.
type Action int

const (
	ActionNone Action = iota
	ActionInsert
	ActionUpdate
	ActionDelete
)

// StateOf derives the state from a stored vote value; nil means no row.
func StateOf(value *int) State {
	if value == nil {
		return NoVote
	}
	if *value == Downvote {
		return Downvoted
	}
	return Upvoted
}

func stateOfValue(value int) State {
	if value == Downvote {
		return Downvoted
	}
	return Upvoted
}

// Transition applies an incoming vote value to the current state.
// Re-submitting the held value toggles the vote off; submitting the opposite
// value flips the existing row in place; voting from NoVote inserts. A value
// outside {+1, -1} is rejected with no transition.
func Transition(current State, value int) (State, Action, error) {
	if value != Upvote && value != Downvote {
		return current, ActionNone, ErrInvalidValue
	}
	switch current {
	case NoVote:
		return stateOfValue(value), ActionInsert, nil
	case Upvoted:
		if value == Upvote {
			return NoVote, ActionDelete, nil
		}
		return Downvoted, ActionUpdate, nil
	case Downvoted:
		if value == Downvote {
			return NoVote, ActionDelete, nil
		}
		return Upvoted, ActionUpdate, nil
	default:
		return current, ActionNone, ErrInvalidValue
	}
}
