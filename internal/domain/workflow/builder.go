package workflow

import (
	"context"
	"fmt"
	"sort"
)

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a stage configuration for the given stage
	Configure(stage Stage) StateConfiguration

	// Build creates a new state machine instance positioned at the given stage
	Build(initial Stage) StateMachine
}

// StateConfiguration configures transitions out of a specific stage
type StateConfiguration interface {
	// Permit allows a trigger to move to the target stage. A later Permit for the same trigger replaces it.
	Permit(trigger Trigger, to Stage) StateConfiguration
}

type stateConfig struct {
	from        Stage
	transitions map[Trigger]Stage
}

type stateMachineBuilder struct {
	configurations map[Stage]*stateConfig
}

type stateMachine struct {
	current        Stage
	configurations map[Stage]*stateConfig
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[Stage]*stateConfig),
	}
}

// Configure returns a stage configuration for the given stage
func (b *stateMachineBuilder) Configure(stage Stage) StateConfiguration {
	if !stage.IsValid() {
		panic(fmt.Sprintf("invalid stage: %s", stage))
	}

	config, exists := b.configurations[stage]
	if !exists {
		config = &stateConfig{
			from:        stage,
			transitions: make(map[Trigger]Stage),
		}
		b.configurations[stage] = config
	}

	return config
}

// Build creates a new state machine instance positioned at the given stage.
// Each machine gets its own copy of the configuration.
func (b *stateMachineBuilder) Build(initial Stage) StateMachine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial stage: %s", initial))
	}

	configsCopy := make(map[Stage]*stateConfig, len(b.configurations))
	for stage, config := range b.configurations {
		transitionsCopy := make(map[Trigger]Stage, len(config.transitions))
		for trigger, to := range config.transitions {
			transitionsCopy[trigger] = to
		}
		configsCopy[stage] = &stateConfig{
			from:        stage,
			transitions: transitionsCopy,
		}
	}

	return &stateMachine{
		current:        initial,
		configurations: configsCopy,
	}
}

// Permit allows a trigger to move to the target stage
func (c *stateConfig) Permit(trigger Trigger, to Stage) StateConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target stage: %s", to))
	}

	c.transitions[trigger] = to
	return c
}

// State returns the current stage
func (m *stateMachine) State() Stage {
	return m.current
}

// CanFire returns true if the trigger is configured for the current stage
func (m *stateMachine) CanFire(trigger Trigger) bool {
	config, exists := m.configurations[m.current]
	if !exists {
		return false
	}

	_, ok := config.transitions[trigger]
	return ok
}

// Fire attempts to execute the trigger, moving to the new stage if allowed
func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	config, exists := m.configurations[m.current]
	if !exists {
		return fmt.Errorf("%w: cannot fire %s from %q (no configuration)", ErrInvalidTransition, trigger, m.current)
	}

	to, ok := config.transitions[trigger]
	if !ok {
		return fmt.Errorf("%w: cannot fire %s from %q", ErrInvalidTransition, trigger, m.current)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.current = to
	return nil
}

// PermittedTriggers returns the triggers configured for the current stage, sorted by name
func (m *stateMachine) PermittedTriggers() []Trigger {
	config, exists := m.configurations[m.current]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.transitions))
	for trigger := range config.transitions {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })

	return triggers
}
