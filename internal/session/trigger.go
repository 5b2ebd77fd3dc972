package session

import (
	"strings"
	"sync"
	"time"
)

const (
	suggestionDebounce = 3 * time.Second
	questionBufferCap  = 10
)

// Trigger debounces suggestion generation: once a question has been seen,
// every further utterance pushes the single pending timer out, so the
// collaborator is called only after the speaker has actually finished
// asking. At most one timer is pending per trigger.
type Trigger struct {
	fire     func(question string)
	debounce time.Duration

	mu           sync.Mutex
	buffer       []string
	seenQuestion bool
	pending      *time.Timer
}

func NewTrigger(fire func(question string)) *Trigger {
	return &Trigger{fire: fire, debounce: suggestionDebounce}
}

// OnEvent records one utterance. Only final texts are buffered, but any
// speech at all — interim fragments included — reschedules the pending fire
// once a question has been seen: the speaker is still talking, so the
// silence window has not started.
func (t *Trigger) OnEvent(text string, isFinal, isQuestion bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if isFinal {
		trimmed := strings.TrimSpace(text)
		if trimmed != "" {
			if len(t.buffer) == questionBufferCap {
				t.buffer = t.buffer[1:]
			}
			t.buffer = append(t.buffer, trimmed)
		}
	}
	if isQuestion {
		t.seenQuestion = true
	}
	if !t.seenQuestion {
		return
	}
	if t.pending != nil {
		t.pending.Stop()
	}
	t.pending = time.AfterFunc(t.debounce, t.fireNow)
}

// FireNow skips the debounce and fires with whatever is buffered. Reports
// false when there is nothing to ask about.
func (t *Trigger) FireNow() bool {
	t.mu.Lock()
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	empty := len(t.buffer) == 0
	t.mu.Unlock()
	if empty {
		return false
	}
	t.fireNow()
	return true
}

func (t *Trigger) fireNow() {
	t.mu.Lock()
	t.pending = nil
	question := strings.Join(t.buffer, " ")
	t.mu.Unlock()

	// The collaborator call must not run under the trigger lock.
	if question != "" {
		t.fire(question)
	}

	t.mu.Lock()
	t.buffer = nil
	t.seenQuestion = false
	t.mu.Unlock()
}

// CancelPending stops the pending timer, if any. Stopping an already-fired
// timer is a no-op.
func (t *Trigger) CancelPending() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

// Reset cancels the pending timer and discards all buffered state.
func (t *Trigger) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.buffer = nil
	t.seenQuestion = false
}
