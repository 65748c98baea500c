// Package notify is the user-facing notification surface: toasts and
// alerts raised by the connection poller and the chat synchronizer.
package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

type Notifier interface {
	Notify(kind Kind, message string)
}

// Logger writes notices to the global zerolog logger.
type Logger struct {
	Component string
}

func (l Logger) Notify(kind Kind, message string) {
	event := log.Info()
	switch kind {
	case KindError:
		event = log.Error()
	case KindWarning:
		event = log.Warn()
	}
	event.
		Str("component", l.Component).
		Str("kind", string(kind)).
		Msg(message)
}

type Notice struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// MaxNotices bounds a Recorder. Older notices are dropped first.
const MaxNotices = 100

// Recorder keeps the latest notices in memory. It backs the bridge's notice
// feed and is the notifier used by tests.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(kind Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Kind: kind, Message: message, At: time.Now()})
	if over := len(r.notices) - MaxNotices; over > 0 {
		r.notices = append([]Notice(nil), r.notices[over:]...)
	}
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Count returns how many notices of the given kind were recorded.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, notice := range r.notices {
		if notice.Kind == kind {
			n++
		}
	}
	return n
}

// Drain returns the recorded notices and clears the recorder.
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}

// Multi fans a notice out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(kind Kind, message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(kind, message)
		}
	}
}
