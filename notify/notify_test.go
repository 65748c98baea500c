package notify

import (
	"fmt"
	"testing"
)

func TestRecorderCountsByKind(t *testing.T) {
	r := NewRecorder()
	r.Notify(KindError, "first")
	r.Notify(KindSuccess, "second")
	r.Notify(KindError, "third")

	if got := r.Count(KindError); got != 2 {
		t.Errorf("Expected 2 error notices, got %d", got)
	}
	if got := len(r.Notices()); got != 3 {
		t.Errorf("Expected 3 notices, got %d", got)
	}
}

func TestRecorderDrain(t *testing.T) {
	r := NewRecorder()
	r.Notify(KindInfo, "hello")

	drained := r.Drain()
	if len(drained) != 1 || drained[0].Message != "hello" {
		t.Errorf("Expected drained notice 'hello', got %v", drained)
	}
	if len(r.Notices()) != 0 {
		t.Errorf("Expected recorder to be empty after drain")
	}
}

func TestMultiFansOut(t *testing.T) {
	a := NewRecorder()
	b := NewRecorder()

	Multi{a, nil, b}.Notify(KindWarning, "careful")

	if a.Count(KindWarning) != 1 || b.Count(KindWarning) != 1 {
		t.Errorf("Expected both recorders to receive the notice")
	}
}

func TestRecorderKeepsLatestNotices(t *testing.T) {
	r := NewRecorder()
	for i := 0; i < MaxNotices+5; i++ {
		r.Notify(KindInfo, fmt.Sprintf("notice %d", i))
	}

	notices := r.Notices()
	if len(notices) != MaxNotices {
		t.Fatalf("Expected %d notices, got %d", MaxNotices, len(notices))
	}
	if notices[0].Message != "notice 5" {
		t.Errorf("Expected oldest kept notice to be 'notice 5', got %q", notices[0].Message)
	}
	if last := notices[len(notices)-1].Message; last != fmt.Sprintf("notice %d", MaxNotices+4) {
		t.Errorf("Expected newest notice last, got %q", last)
	}
}
