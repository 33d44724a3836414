package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestStage_IsTerminal(t *testing.T) {
	for _, s := range Stages {
		t.Run(string(s), func(t *testing.T) {
			want := s == StageTitleGeneration
			if got := s.IsTerminal(); got != want {
				t.Errorf("Stage.IsTerminal() = %v, want %v", got, want)
			}
		})
	}
}

func TestStage_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		stage    Stage
		expected bool
	}{
		{"first stage", StageApplicationSubmission, true},
		{"last stage", StageTitleGeneration, true},
		{"wrong case", Stage("financial review"), false},
		{"unknown stage", Stage("Unknown Stage"), false},
		{"empty stage", Stage(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stage.IsValid(); got != tt.expected {
				t.Errorf("Stage.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStage_NextPrevious(t *testing.T) {
	if next, ok := StageFinancialReview.Next(); !ok || next != StageCalculationNotesTransmission {
		t.Errorf("Next() = %v, %v", next, ok)
	}
	if _, ok := StageTitleGeneration.Next(); ok {
		t.Error("Next() past the last stage should fail")
	}
	if prev, ok := StageSecretariatReview.Previous(); !ok || prev != StageApplicationSubmission {
		t.Errorf("Previous() = %v, %v", prev, ok)
	}
	if _, ok := StageApplicationSubmission.Previous(); ok {
		t.Error("Previous() before the first stage should fail")
	}
	if _, ok := Stage("nope").Next(); ok {
		t.Error("Next() of an unknown stage should fail")
	}
}

func TestTrigger_String(t *testing.T) {
	if got := TriggerAdvance.String(); got != "ADVANCE" {
		t.Errorf("Trigger.String() = %v, want %v", got, "ADVANCE")
	}
}

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(StageSecretariatReview)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}

	if config2 := builder.Configure(StageSecretariatReview); config != config2 {
		t.Error("Configure() should return same config for same stage")
	}
}

func TestBuilder_ConfigurePanicsOnInvalidStage(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid stage")
		}
	}()

	NewBuilder().Configure(Stage("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialStage(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial stage")
		}
	}()

	NewBuilder().Build(Stage("INVALID"))
}

func TestStateConfiguration_PermitPanicsOnInvalidStage(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on invalid target stage")
		}
	}()

	NewBuilder().Configure(StageSecretariatReview).Permit(TriggerAdvance, Stage("INVALID"))
}

func TestStateConfiguration_PermitReplacesTarget(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StageCoordinatorReview).
		Permit(TriggerAdvance, StageCalculationNotesTransmission).
		Permit(TriggerAdvance, StageFinancialReview)

	machine := builder.Build(StageCoordinatorReview)
	if err := machine.Fire(context.Background(), TriggerAdvance); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine.State() != StageFinancialReview {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StageFinancialReview)
	}
}

func TestStateMachine_Fire_CancelledContext(t *testing.T) {
	machine := NewPipelineMachine("Financial Review")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := machine.Fire(ctx, TriggerAdvance); !errors.Is(err, context.Canceled) {
		t.Errorf("Fire() error = %v, want %v", err, context.Canceled)
	}
	if machine.State() != StageFinancialReview {
		t.Errorf("State should remain %v after failed Fire(), got %v", StageFinancialReview, machine.State())
	}
}

func TestStateMachine_Fire_NoConfiguration(t *testing.T) {
	machine := NewBuilder().Build(StageApplicationSubmission)

	err := machine.Fire(context.Background(), TriggerAdvance)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
	if triggers := machine.PermittedTriggers(); len(triggers) != 0 {
		t.Errorf("PermittedTriggers() returned %d triggers, want 0", len(triggers))
	}
}

func TestStateMachine_Immutability(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StageApplicationSubmission).
		Permit(TriggerAdvance, StageSecretariatReview)

	machine1 := builder.Build(StageApplicationSubmission)
	machine2 := builder.Build(StageApplicationSubmission)

	if err := machine1.Fire(context.Background(), TriggerAdvance); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}

	if machine2.State() != StageApplicationSubmission {
		t.Errorf("machine2 state = %v, want %v (machines should be independent)", machine2.State(), StageApplicationSubmission)
	}
	if machine1.State() != StageSecretariatReview {
		t.Errorf("machine1 state = %v, want %v", machine1.State(), StageSecretariatReview)
	}
}
