package sse

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/odden/ansuz/internal/docstore"
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

	b.Publish(Event{Type: "preview.updated", Data: map[string]string{"path": "a.md"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: preview.updated") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"path":"a.md"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishDocumentEvent_SearchThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First document event should trigger search.updated; the second,
	// inside the throttle window, should not.
	b.PublishDocumentEvent("document.added", "a.md", "")
	b.PublishDocumentEvent("document.updated", "b.md", "")

	deadline := time.After(time.Second)
	var searchCount, docCount int
	for docCount < 2 {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "event: search.updated") {
				searchCount++
			}
			if strings.Contains(s, "event: document.") {
				docCount++
			}
		case <-deadline:
			t.Fatalf("timeout: got %d document events, %d search events", docCount, searchCount)
		}
	}
	if searchCount != 1 {
		t.Errorf("expected exactly 1 search.updated, got %d", searchCount)
	}
}

func TestRenameCarriesOldPath(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent("document.renamed", "new.md", "old.md")

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, `"old_path":"old.md"`) {
			t.Errorf("missing old_path in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestFollowStore(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	store := docstore.New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	unsub := FollowStore(b, store)
	defer unsub()

	store.Add("hello.md", "# Hi")

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: document.added") {
			t.Errorf("unexpected event: %q", s)
		}
		if !strings.Contains(s, `"path":"hello.md"`) {
			t.Errorf("missing path in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for store event")
	}
}
