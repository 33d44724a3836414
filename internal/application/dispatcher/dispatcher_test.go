package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyjia/exemption-tracker/internal/domain/event"
)

type mockLogger struct {
	mu      sync.Mutex
	infos   []string
	errors  []string
	entries []map[string]interface{}
}

func (m *mockLogger) record(msg string, level string, keysAndValues ...interface{}) {
	entry := map[string]interface{}{"msg": msg, "level": level}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		entry[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	m.entries = append(m.entries, entry)
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
	m.record(msg, "info", keysAndValues...)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
	m.record(msg, "error", keysAndValues...)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func (m *mockLogger) HasInfo(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, info := range m.infos {
		if info == msg {
			return true
		}
	}
	return false
}

func (m *mockLogger) Entry(msg string) map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e["msg"] == msg {
			return e
		}
	}
	return nil
}

func noop(ctx context.Context, evt *event.Event) error { return nil }

func newEvt(t event.Type) *event.Event {
	return event.NewEvent(t, 1, "REQ-1", nil)
}

func TestSubscribe(t *testing.T) {
	t.Run("calls every handler in registration order", func(t *testing.T) {
		d := NewDispatcher()
		var order []int

		d.Subscribe(event.TypeRequestCreated, func(ctx context.Context, evt *event.Event) error {
			order = append(order, 1)
			return nil
		})
		d.Subscribe(event.TypeRequestCreated, func(ctx context.Context, evt *event.Event) error {
			order = append(order, 2)
			return nil
		})

		if err := d.Dispatch(context.Background(), newEvt(event.TypeRequestCreated)); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if len(order) != 2 || order[0] != 1 || order[1] != 2 {
			t.Errorf("expected handlers to run in order [1, 2], got %v", order)
		}
	})

	t.Run("generated names are unique", func(t *testing.T) {
		d := NewDispatcher()
		d.Subscribe(event.TypeRequestCreated, noop)
		d.Subscribe(event.TypeRequestCreated, noop)

		handlers := d.ListHandlers(event.TypeRequestCreated)
		if len(handlers) != 2 || handlers[0].Name == handlers[1].Name {
			t.Errorf("expected two distinct handler names, got %+v", handlers)
		}
	})

	t.Run("cancel func removes the subscription", func(t *testing.T) {
		d := NewDispatcher()
		called := false

		cancel := d.Subscribe(event.TypeRequestUpdated, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})
		cancel()

		if err := d.Dispatch(context.Background(), newEvt(event.TypeRequestUpdated)); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if called {
			t.Error("expected handler not to be called after cancel")
		}
	})

	t.Run("only matching type is called", func(t *testing.T) {
		d := NewDispatcher()
		called := false
		d.Subscribe(event.TypeDocumentUploaded, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		if err := d.Dispatch(context.Background(), newEvt(event.TypeDocumentRemoved)); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if called {
			t.Error("handler for another type should not be called")
		}
	})
}

func TestSubscribeAll(t *testing.T) {
	d := NewDispatcher()
	var seen []event.Type

	d.SubscribeNamed(event.TypeRequestCreated, "specific", func(ctx context.Context, evt *event.Event) error {
		seen = append(seen, "specific")
		return nil
	})
	cancel := d.SubscribeAll("audit", func(ctx context.Context, evt *event.Event) error {
		seen = append(seen, evt.Type)
		return nil
	})

	_ = d.Dispatch(context.Background(), newEvt(event.TypeRequestCreated))
	_ = d.Dispatch(context.Background(), newEvt(event.TypeDocumentRemoved))

	want := []event.Type{"specific", event.TypeRequestCreated, event.TypeDocumentRemoved}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen = %v, want %v", seen, want)
		}
	}

	cancel()
	seen = nil
	_ = d.Dispatch(context.Background(), newEvt(event.TypeDocumentRemoved))
	if len(seen) != 0 {
		t.Errorf("catch-all handler called after cancel: %v", seen)
	}
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	called1, called2 := false, false

	d.SubscribeNamed(event.TypeRequestCreated, "handler-1", func(ctx context.Context, evt *event.Event) error {
		called1 = true
		return nil
	})
	d.SubscribeNamed(event.TypeRequestCreated, "handler-2", func(ctx context.Context, evt *event.Event) error {
		called2 = true
		return nil
	})

	d.Unsubscribe(event.TypeRequestCreated, "handler-1")

	if err := d.Dispatch(context.Background(), newEvt(event.TypeRequestCreated)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if called1 {
		t.Error("expected handler-1 not to be called")
	}
	if !called2 {
		t.Error("expected handler-2 to be called")
	}
}

func TestDispatch(t *testing.T) {
	t.Run("returns first error encountered", func(t *testing.T) {
		d := NewDispatcher()
		expectedErr := errors.New("handler error")
		called := false

		d.Subscribe(event.TypeRequestCreated, func(ctx context.Context, evt *event.Event) error {
			return expectedErr
		})
		d.Subscribe(event.TypeRequestCreated, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		err := d.Dispatch(context.Background(), newEvt(event.TypeRequestCreated))
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error to wrap %v, got %v", expectedErr, err)
		}
		if called {
			t.Error("expected second handler not to be called after first error")
		}
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))

		d.Subscribe(event.TypeRequestCreated, func(ctx context.Context, evt *event.Event) error {
			panic("test panic")
		})

		if err := d.Dispatch(context.Background(), newEvt(event.TypeRequestCreated)); err == nil {
			t.Fatal("expected error from panic recovery")
		}
		if logger.ErrorCount() == 0 {
			t.Error("expected panic to be logged as error")
		}
	})

	t.Run("returns ErrClosed when dispatcher is closed", func(t *testing.T) {
		d := NewDispatcher()
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		if err := d.Dispatch(context.Background(), newEvt(event.TypeRequestCreated)); !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	})
}

func TestDispatchAsync(t *testing.T) {
	t.Run("close waits for handlers", func(t *testing.T) {
		d := NewDispatcher()
		var called atomic.Int32

		for i := 0; i < 2; i++ {
			d.Subscribe(event.TypeRequestStageChanged, func(ctx context.Context, evt *event.Event) error {
				time.Sleep(10 * time.Millisecond)
				called.Add(1)
				return nil
			})
		}

		d.DispatchAsync(context.Background(), newEvt(event.TypeRequestStageChanged))

		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if called.Load() != 2 {
			t.Errorf("expected 2 handlers to be called, got %d", called.Load())
		}
	})

	t.Run("errors do not stop other handlers", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		var called atomic.Int32

		d.Subscribe(event.TypeRequestCreated, func(ctx context.Context, evt *event.Event) error {
			return errors.New("handler error")
		})
		d.Subscribe(event.TypeRequestCreated, func(ctx context.Context, evt *event.Event) error {
			called.Add(1)
			return nil
		})

		d.DispatchAsync(context.Background(), newEvt(event.TypeRequestCreated))
		_ = d.Close()

		if called.Load() != 1 {
			t.Errorf("expected second handler to be called, got %d calls", called.Load())
		}
		if logger.ErrorCount() == 0 {
			t.Error("expected error to be logged")
		}
	})

	t.Run("does not dispatch when closed", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		var called atomic.Int32

		d.Subscribe(event.TypeRequestCreated, func(ctx context.Context, evt *event.Event) error {
			called.Add(1)
			return nil
		})
		_ = d.Close()

		d.DispatchAsync(context.Background(), newEvt(event.TypeRequestCreated))
		time.Sleep(20 * time.Millisecond)

		if called.Load() > 0 {
			t.Error("expected handler not to be called after close")
		}
		if logger.ErrorCount() == 0 {
			t.Error("expected error log for dispatching to closed dispatcher")
		}
	})
}

func TestListHandlers(t *testing.T) {
	d := NewDispatcher()
	d.SubscribeNamed(event.TypeRequestCreated, "test-handler", noop)
	d.SubscribeNamed(event.TypeRequestUpdated, "other-handler", noop)

	handlers := d.ListHandlers(event.TypeRequestCreated)
	if len(handlers) != 1 {
		t.Fatalf("expected 1 handler, got %d", len(handlers))
	}
	if handlers[0].Name != "test-handler" || handlers[0].EventType != event.TypeRequestCreated {
		t.Errorf("unexpected handler info %+v", handlers[0])
	}
	if handlers[0].Handler != nil {
		t.Error("expected handler function not to be exposed")
	}
	if got := d.ListHandlers(event.TypeDocumentRemoved); len(got) != 0 {
		t.Errorf("expected 0 handlers, got %d", len(got))
	}
}

func TestClose_Twice(t *testing.T) {
	d := NewDispatcher()
	if err := d.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := d.Close(); err == nil {
		t.Fatal("expected error on second close")
	}
}

func TestConcurrentSubscribeAndDispatch(t *testing.T) {
	d := NewDispatcher()
	var called atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Subscribe(event.TypeRequestCreated, func(ctx context.Context, evt *event.Event) error {
				called.Add(1)
				return nil
			})
		}()
	}
	wg.Wait()

	if got := len(d.ListHandlers(event.TypeRequestCreated)); got != 10 {
		t.Fatalf("expected 10 handlers, got %d", got)
	}

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Dispatch(context.Background(), newEvt(event.TypeRequestCreated))
		}()
	}
	wg.Wait()

	if called.Load() != 50 {
		t.Errorf("expected 50 calls, got %d", called.Load())
	}
}

func TestAuditLogHandler(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher()
	d.SubscribeAll("audit-log", AuditLogHandler(logger))

	evt := event.NewEvent(event.TypeRequestStageChanged, 7, "REQ-7", map[string]interface{}{
		"new_stage": "Financial Review",
	})
	if err := d.Dispatch(context.Background(), evt); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	entry := logger.Entry("Audit event")
	if entry == nil {
		t.Fatal("expected audit entry to be logged")
	}
	if entry["request_id"] != int64(7) || entry["new_stage"] != "Financial Review" {
		t.Errorf("unexpected audit entry %v", entry)
	}
}
