package ranking

import (
	"errors"
	"testing"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		name       string
		current    State
		value      int
		wantState  State
		wantAction Action
	}{
		{name: "no vote up", current: NoVote, value: Upvote, wantState: Upvoted, wantAction: ActionInsert},
		{name: "no vote down", current: NoVote, value: Downvote, wantState: Downvoted, wantAction: ActionInsert},
		{name: "upvoted up toggles off", current: Upvoted, value: Upvote, wantState: NoVote, wantAction: ActionDelete},
		{name: "downvoted down toggles off", current: Downvoted, value: Downvote, wantState: NoVote, wantAction: ActionDelete},
		{name: "upvoted down flips", current: Upvoted, value: Downvote, wantState: Downvoted, wantAction: ActionUpdate},
		{name: "downvoted up flips", current: Downvoted, value: Upvote, wantState: Upvoted, wantAction: ActionUpdate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state, action, err := Transition(tc.current, tc.value)
			if err != nil {
				t.Fatalf("Transition(%v, %d) error = %v", tc.current, tc.value, err)
			}
			if state != tc.wantState || action != tc.wantAction {
				t.Fatalf("Transition(%v, %d) = (%v, %v), want (%v, %v)",
					tc.current, tc.value, state, action, tc.wantState, tc.wantAction)
			}
		})
	}
}

func TestTransitionRejectsInvalidValues(t *testing.T) {
	for _, value := range []int{0, 2, -2, 100} {
		for _, current := range []State{NoVote, Upvoted, Downvoted} {
			state, action, err := Transition(current, value)
			if !errors.Is(err, ErrInvalidValue) {
				t.Fatalf("Transition(%v, %d) error = %v, want ErrInvalidValue", current, value, err)
			}
			if state != current || action != ActionNone {
				t.Fatalf("Transition(%v, %d) changed state on invalid input: (%v, %v)", current, value, state, action)
			}
		}
	}
}

// Repeating the same value has period 2: the second submission removes the
// vote, the third re-creates it.
func TestToggleIsItsOwnInverse(t *testing.T) {
	for _, value := range []int{Upvote, Downvote} {
		state := NoVote
		var err error
		state, _, err = Transition(state, value)
		if err != nil {
			t.Fatalf("first cast: %v", err)
		}
		state, _, err = Transition(state, value)
		if err != nil {
			t.Fatalf("second cast: %v", err)
		}
		if state != NoVote {
			t.Fatalf("two identical casts of %d should return to NoVote, got %v", value, state)
		}
		state, _, err = Transition(state, value)
		if err != nil {
			t.Fatalf("third cast: %v", err)
		}
		if state != stateOfValue(value) {
			t.Fatalf("third cast of %d should restore %v, got %v", value, stateOfValue(value), state)
		}
	}
}

func TestStateOf(t *testing.T) {
	up, down := Upvote, Downvote
	if got := StateOf(nil); got != NoVote {
		t.Fatalf("StateOf(nil) = %v, want NoVote", got)
	}
	if got := StateOf(&up); got != Upvoted {
		t.Fatalf("StateOf(+1) = %v, want Upvoted", got)
	}
	if got := StateOf(&down); got != Downvoted {
		t.Fatalf("StateOf(-1) = %v, want Downvoted", got)
	}
}
