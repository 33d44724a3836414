package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a stage transition is not allowed
	ErrInvalidTransition = errors.New("invalid stage transition")

	// ErrInvalidState is returned when a stored stage is not part of the pipeline
	ErrInvalidState = errors.New("invalid stage")
)
