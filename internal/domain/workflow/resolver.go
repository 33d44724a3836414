package workflow

import "strings"

// StageStatus is the display status of a stage relative to the current one
type StageStatus string

const (
	StatusCompleted StageStatus = "completed"
	StatusCurrent   StageStatus = "current"
	StatusPending   StageStatus = "pending"
)

// StageProgress pairs a stage name with its display status
type StageProgress struct {
	Name   string      `json:"name"`
	Index  int         `json:"index"`
	Status StageStatus `json:"status"`
}

func normalizeStage(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ResolveStageIndex maps a reported stage name onto the pipeline.
// Matching ignores case and surrounding whitespace. Empty, "null" and unknown names resolve to 0.
func ResolveStageIndex(current string) int {
	i, _ := lookupStage(current)
	return i
}

// lookupStage reports the index of a reported stage name and whether the name was recognized.
// Empty and "null" mean no stage yet and count as recognized.
func lookupStage(current string) (int, bool) {
	n := normalizeStage(current)
	if n == "" || n == "null" {
		return 0, true
	}
	for i, s := range Stages {
		if normalizeStage(string(s)) == n {
			return i, true
		}
	}
	return 0, false
}

// ResolveStage returns the pipeline stage for a reported stage name
func ResolveStage(current string) Stage {
	return Stages[ResolveStageIndex(current)]
}

// ClassifyStages returns all ten stages in order, each marked completed, current or pending
func ClassifyStages(current string) []StageProgress {
	k := ResolveStageIndex(current)

	progress := make([]StageProgress, len(Stages))
	for i, s := range Stages {
		status := StatusPending
		switch {
		case i < k:
			status = StatusCompleted
		case i == k:
			status = StatusCurrent
		}
		progress[i] = StageProgress{Name: string(s), Index: i, Status: status}
	}
	return progress
}
