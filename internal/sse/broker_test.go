package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/taskflow/internal/persist"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: EventImportAccepted, Data: map[string]string{"file": "a.json"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: import.accepted") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"file":"a.json"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestNotify_StorageUpdatedThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Only the first store event within the interval triggers storage.updated.
	b.Notify(persist.Event{Type: persist.EventDocumentSaved, Key: "task-flow-lists", ByteSize: 42})
	b.Notify(persist.Event{Type: persist.EventSnapshotCreated, ID: "1714979289000"})

	time.Sleep(50 * time.Millisecond)
	var updates, store []string
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, EventStorageUpdated) {
				updates = append(updates, s)
			} else {
				store = append(store, s)
			}
		default:
			break loop
		}
	}

	if len(store) != 2 {
		t.Fatalf("store events = %d, want 2", len(store))
	}
	if !strings.Contains(store[0], "event: document.saved") || !strings.Contains(store[0], `"byteSize":42`) {
		t.Errorf("saved event = %q", store[0])
	}
	if !strings.Contains(store[1], `"id":"1714979289000"`) {
		t.Errorf("snapshot event = %q", store[1])
	}
	if len(updates) != 1 {
		t.Errorf("storage.updated events = %d, want 1 (throttled)", len(updates))
	}
}

func TestNotifyDoesNotBlock(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()

	var n persist.Notifier = b
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			n.Notify(persist.Event{Type: persist.EventDocumentSaved, Key: "k"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked")
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Notify(persist.Event{Type: persist.EventDocumentsCleared})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: documents.cleared") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestEventIDsIncrease(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: EventImportAccepted, Data: map[string]string{}})
	b.Publish(Event{Type: EventImportRejected, Data: map[string]string{}})

	for _, want := range []string{"id: 1\n", "id: 2\n"} {
		select {
		case msg := <-ch:
			if !strings.HasPrefix(string(msg), want) {
				t.Errorf("message %q, want prefix %q", msg, want)
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for message")
		}
	}
}

func TestSSEHandlerKeepAlive(t *testing.T) {
	b := NewBroker(time.Second, WithKeepAlive(20*time.Millisecond))
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if !strings.Contains(w.Body.String(), ": keepalive") {
		t.Errorf("no keepalive in %q", w.Body.String())
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "import.accepted", Data: map[string]string{}})
	b.Notify(persist.Event{Type: persist.EventDocumentSaved, Key: "k"})
}
