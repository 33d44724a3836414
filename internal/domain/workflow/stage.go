package workflow

// Stage is one step of the exemption approval pipeline
type Stage string

const (
	StageApplicationSubmission        Stage = "Application Submission"
	StageSecretariatReview            Stage = "Secretariat Review"
	StageCoordinatorReview            Stage = "Coordinator Review"
	StageFinancialReview              Stage = "Financial Review"
	StageCalculationNotesTransmission Stage = "Calculation Notes Transmission"
	StageFOPreparation                Stage = "FO Preparation"
	StageTransmissionToSecretariat    Stage = "Transmission to Secretariat"
	StageCoordinatorFinalValidation   Stage = "Coordinator Final Validation"
	StageMinisterialReview            Stage = "Ministerial Review"
	StageTitleGeneration              Stage = "Title Generation"
)

// Stages is the fixed pipeline order. Index positions are significant.
var Stages = []Stage{
	StageApplicationSubmission,
	StageSecretariatReview,
	StageCoordinatorReview,
	StageFinancialReview,
	StageCalculationNotesTransmission,
	StageFOPreparation,
	StageTransmissionToSecretariat,
	StageCoordinatorFinalValidation,
	StageMinisterialReview,
	StageTitleGeneration,
}

var stageIndex = func() map[Stage]int {
	m := make(map[Stage]int, len(Stages))
	for i, s := range Stages {
		m[s] = i
	}
	return m
}()

// String returns the string representation of the stage
func (s Stage) String() string {
	return string(s)
}

// IsValid returns true if the stage is one of the ten pipeline stages
func (s Stage) IsValid() bool {
	_, ok := stageIndex[s]
	return ok
}

// IsTerminal returns true for the last stage of the pipeline
func (s Stage) IsTerminal() bool {
	return s == StageTitleGeneration
}

// Index returns the zero-based pipeline position, or -1 for an unknown stage
func (s Stage) Index() int {
	if i, ok := stageIndex[s]; ok {
		return i
	}
	return -1
}

// Next returns the following stage, or false at the end of the pipeline
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(Stages) {
		return "", false
	}
	return Stages[i+1], true
}

// Previous returns the preceding stage, or false at the start of the pipeline
func (s Stage) Previous() (Stage, bool) {
	i := s.Index()
	if i <= 0 {
		return "", false
	}
	return Stages[i-1], true
}
