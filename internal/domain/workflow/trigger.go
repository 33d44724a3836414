package workflow

// Trigger represents an event that can cause a stage transition
type Trigger string

const (
	TriggerAdvance Trigger = "ADVANCE"
	TriggerReturn  Trigger = "RETURN"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// IsValid returns true for a known trigger
func (t Trigger) IsValid() bool {
	return t == TriggerAdvance || t == TriggerReturn
}
