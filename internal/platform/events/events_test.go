package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "smartdent.alerts"}

	ev := New("alert.upserted", "7", map[string]int{"patient_id": 7})
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "7" {
		t.Errorf("key = %q", msg.Key)
	}
	if len(msg.Headers) != 2 || string(msg.Headers[0].Value) != "alert.upserted" {
		t.Errorf("unexpected headers %+v", msg.Headers)
	}

	var decoded map[string]any
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("value is not JSON: %v", err)
	}
	if decoded["type"] != "alert.upserted" || decoded["id"] != ev.ID {
		t.Errorf("unexpected envelope %v", decoded)
	}
	if _, ok := decoded["Key"]; ok {
		t.Error("key must not be serialized")
	}
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &KafkaPublisher{writer: w, topic: "t"}
	if err := p.Publish(context.Background(), New("x", "", nil)); err == nil {
		t.Error("expected error")
	}
	_ = p.Close()
	if !w.closed {
		t.Error("writer not closed")
	}
}

func TestNew_AssignsIDAndTime(t *testing.T) {
	a, b := New("x", "k", nil), New("x", "k", nil)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids must be unique and non-empty: %q %q", a.ID, b.ID)
	}
	if a.OccurredAt.IsZero() {
		t.Error("occurred_at not set")
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.Publish(context.Background(), New("x", "", nil)); err != nil {
		t.Error(err)
	}
}

func TestFanout_DeliversToAll(t *testing.T) {
	ok := &fakeWriter{}
	broken := &fakeWriter{err: errors.New("broker down")}
	f := Fanout{
		&KafkaPublisher{writer: broken, topic: "a"},
		&KafkaPublisher{writer: ok, topic: "b"},
	}

	err := f.Publish(context.Background(), New("alert.upserted", "7", nil))
	if err == nil || !errors.Is(err, broken.err) {
		t.Fatalf("expected joined broker error, got %v", err)
	}
	if len(ok.msgs) != 1 {
		t.Errorf("second publisher should still receive the event, got %d", len(ok.msgs))
	}

	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !ok.closed || !broken.closed {
		t.Error("expected every publisher closed")
	}
}
