package validate

import (
	"errors"
	"testing"
)

func TestValidateTransition_ValidMatrix(t *testing.T) {
	t.Parallel()

	valid := [][2]State{
		{StateIdle, StateDispatchingSet},
		{StateDispatchingSet, StateDispatchingCase},
		{StateDispatchingSet, StateDone},
		{StateDispatchingCase, StateAwaitingCompletion},
		{StateDispatchingCase, StateDraining},
		{StateAwaitingCompletion, StateDispatchingCase},
		{StateAwaitingCompletion, StateDone},
		{StateDraining, StateDispatchingSet},
	}
	for _, pair := range valid {
		if err := ValidateTransition(pair[0], pair[1]); err != nil {
			t.Fatalf("expected valid transition %s->%s, got %v", pair[0], pair[1], err)
		}
	}
}

func TestValidateTransition_InvalidTransitions(t *testing.T) {
	t.Parallel()

	invalid := [][2]State{
		{StateIdle, StateDone},
		{StateIdle, StateAwaitingCompletion},
		{StateAwaitingCompletion, StateAwaitingCompletion},
		{StateAwaitingCompletion, StateDraining},
		{StateDraining, StateDispatchingCase},
		{StateDone, StateDispatchingSet},
	}
	for _, pair := range invalid {
		err := ValidateTransition(pair[0], pair[1])
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected invalid transition %s->%s, got %v", pair[0], pair[1], err)
		}
	}

	if err := ValidateTransition("paused", StateDone); err == nil {
		t.Fatal("unknown state should be rejected")
	}
}
