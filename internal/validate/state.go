package validate

import (
	"errors"
	"fmt"
)

type State string

const (
	StateIdle               State = "idle"
	StateDispatchingSet     State = "dispatching_set"
	StateDispatchingCase    State = "dispatching_case"
	StateAwaitingCompletion State = "awaiting_completion"
	StateDraining           State = "draining"
	StateDone               State = "done"
)

// Done is reachable from every working state so that cancellation can end
// a run wherever it is.
var allowedTransitions = map[State]map[State]struct{}{
	StateIdle: {
		StateDispatchingSet: {},
	},
	StateDispatchingSet: {
		StateDispatchingCase: {},
		StateDone:            {},
	},
	StateDispatchingCase: {
		StateAwaitingCompletion: {},
		StateDraining:           {},
		StateDone:               {},
	},
	StateAwaitingCompletion: {
		StateDispatchingCase: {},
		StateDone:            {},
	},
	StateDraining: {
		StateDispatchingSet: {},
		StateDone:           {},
	},
	StateDone: {},
}

var ErrInvalidTransition = errors.New("invalid sequencer transition")

func ValidateState(state State) error {
	if _, ok := allowedTransitions[state]; !ok {
		return fmt.Errorf("invalid sequencer state: %q", state)
	}
	return nil
}

func ValidateTransition(from, to State) error {
	if err := ValidateState(from); err != nil {
		return err
	}
	if err := ValidateState(to); err != nil {
		return err
	}
	if _, ok := allowedTransitions[from][to]; !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Observer is notified of every state change, on the driver goroutine.
type Observer func(from, to State)
