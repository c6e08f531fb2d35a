package audit

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(16)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), NewEvent("resolve_authenticated", true))
	}
	d.Close()

	got := 0
	for {
		select {
		case <-sink.Events():
			got++
			continue
		default:
		}
		break
	}
	if got != 5 {
		t.Fatalf("expected 5 delivered events, got %d", got)
	}

	// Emit after close is a no-op.
	d.Emit(context.Background(), NewEvent("late", true))
	if d.Dropped() != 0 {
		t.Fatalf("unexpected drops %d", d.Dropped())
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(context.Context, Event) { <-s.release }

func TestDispatcherDropIfFull(t *testing.T) {
	release := make(chan struct{})
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, blockingSink{release: release})

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), NewEvent("attempt_failure", false))
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a full buffer")
	}
	close(release)
	d.Close()
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{}, NoOpSink{})
	if d != nil {
		t.Fatal("disabled dispatcher must be nil")
	}
	d.Emit(context.Background(), Event{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reports no drops")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	ev := NewEvent("authorize_denied", false)
	ev.UserID = 9
	ev.Error = "forbidden"
	sink.Emit(context.Background(), ev)

	line := strings.TrimSpace(buf.String())
	var decoded Event
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ID != ev.ID || decoded.UserID != 9 || decoded.Error != "forbidden" {
		t.Fatalf("unexpected decoded event %+v", decoded)
	}
	if !decoded.Timestamp.Equal(ev.Timestamp) {
		t.Fatalf("timestamp mismatch: %v vs %v", decoded.Timestamp, ev.Timestamp)
	}
}

func TestLoggerSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLoggerSink(zerolog.New(&buf))

	ev := NewEvent("attempt_failure", false)
	ev.RequestID = "req-1"
	ev.Metadata = map[string]string{"reason": "password"}
	sink.Emit(context.Background(), ev)

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"event_type":"attempt_failure"`, `"request_id":"req-1"`, `"reason":"password"`, `"component":"audit"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line %q missing %s", out, want)
		}
	}
}
