package dispatcher

import (
	"context"

	"github.com/garyjia/exemption-tracker/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name        string
	EventType   event.Type
	Handler     Handler
	Description string
}

// CancelFunc removes the subscription it was returned for
type CancelFunc func()

// AuditLogHandler logs every event it receives with its request and payload
func AuditLogHandler(logger Logger) Handler {
	return func(ctx context.Context, evt *event.Event) error {
		keysAndValues := []interface{}{
			"event_type", evt.Type,
			"event_id", evt.ID,
			"request_id", evt.RequestID,
			"reference", evt.Reference,
			"correlation_id", evt.CorrelationID,
		}
		for k, v := range evt.Payload {
			keysAndValues = append(keysAndValues, k, v)
		}
		logger.Info("Audit event", keysAndValues...)
		return nil
	}
}
