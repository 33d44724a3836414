package workflow

import (
	"context"
	"fmt"
)

var pipeline = newPipelineBuilder()

// newPipelineBuilder wires ADVANCE to the next stage and RETURN to the previous one.
// Title Generation permits nothing.
func newPipelineBuilder() StateMachineBuilder {
	b := NewBuilder()
	for _, s := range Stages {
		if s.IsTerminal() {
			continue
		}
		cfg := b.Configure(s)
		if next, ok := s.Next(); ok {
			cfg.Permit(TriggerAdvance, next)
		}
		if prev, ok := s.Previous(); ok {
			cfg.Permit(TriggerReturn, prev)
		}
	}
	return b
}

// NewPipelineMachine builds a machine positioned at the resolved current stage
func NewPipelineMachine(current string) StateMachine {
	return pipeline.Build(ResolveStage(current))
}

// Transition fires trigger from the reported stage and returns the resulting stage
func Transition(ctx context.Context, current string, trigger Trigger) (Stage, error) {
	if !trigger.IsValid() {
		return "", fmt.Errorf("%w: unknown trigger %q", ErrInvalidTransition, trigger)
	}
	if _, known := lookupStage(current); !known {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, current)
	}
	m := NewPipelineMachine(current)
	if err := m.Fire(ctx, trigger); err != nil {
		return m.State(), err
	}
	return m.State(), nil
}
