package event

// Type identifies the type of domain event
type Type string

const (
	TypeRequestCreated      Type = "request.created"
	TypeRequestUpdated      Type = "request.updated"
	TypeRequestDeleted      Type = "request.deleted"
	TypeRequestStageChanged Type = "request.stage_changed"
	TypeDocumentUploaded    Type = "document.uploaded"
	TypeDocumentRemoved     Type = "document.removed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRequestCreated,
		TypeRequestUpdated,
		TypeRequestDeleted,
		TypeRequestStageChanged,
		TypeDocumentUploaded,
		TypeDocumentRemoved:
		return true
	default:
		return false
	}
}
