package coaching

import (
	"math"
	"strings"
	"time"

	"github.com/amplifiedhq/amplified/internal/transcriber"
)

const (
	rateWindow       = 10 * time.Second
	minWindowSeconds = 1.0
	recentFillersCap = 5
)

// fillerTokens is matched against individual normalized words. "you know"
// spans two tokens and only ever matches through the substring fallback.
var fillerTokens = map[string]struct{}{
	"um": {}, "uh": {}, "hmm": {}, "like": {}, "you know": {}, "so": {}, "actually": {},
}

// fillerSubstrings is the degraded-path vocabulary used when a provider
// fragment carries no word list.
var fillerSubstrings = []string{"um", "uh", "hmm", "like", "you know"}

type wordHistoryEntry struct {
	at    time.Time
	count int
}

type Snapshot struct {
	WPM         int
	FillerCount int
	Fillers     []string
}

type Observation struct {
	WPM         int
	FillerDelta int
}

// Engine tracks a sliding word-rate window and a cumulative filler ledger
// for one session. It is not safe for concurrent use; the session event
// loop is its only caller.
type Engine struct {
	history     []wordHistoryEntry
	lastWPM     int
	fillerCount int
	fillers     []string
}

func NewEngine() *Engine {
	return &Engine{}
}

// Observe folds one final fragment into the window and ledger and returns
// the resulting rate and the number of fillers this fragment contributed.
func (e *Engine) Observe(frag transcriber.Fragment) Observation {
	delta := e.recordFillers(frag)
	wordCount := frag.WordCount()
	if wordCount == 0 {
		return Observation{WPM: e.lastWPM, FillerDelta: delta}
	}
	e.lastWPM = e.observeRate(wordCount, frag.ReceivedAt)
	return Observation{WPM: e.lastWPM, FillerDelta: delta}
}

func (e *Engine) observeRate(wordCount int, at time.Time) int {
	e.history = append(e.history, wordHistoryEntry{at: at, count: wordCount})
	for len(e.history) > 0 && at.Sub(e.history[0].at) > rateWindow {
		e.history = e.history[1:]
	}

	totalWords := 0
	for _, entry := range e.history {
		totalWords += entry.count
	}

	windowSeconds := rateWindow.Seconds()
	if elapsed := at.Sub(e.history[0].at).Seconds(); elapsed > minWindowSeconds {
		windowSeconds = elapsed
	}

	wpm := int(math.Round(float64(totalWords) / windowSeconds * 60))
	if wpm == 0 && wordCount > 0 {
		// Short utterances would otherwise display as 0 WPM; extrapolate
		// the fragment over an assumed 10-second window.
		wpm = wordCount * 6
	}
	return wpm
}

func (e *Engine) recordFillers(frag transcriber.Fragment) int {
	before := e.fillerCount
	if len(frag.Words) > 0 {
		for _, w := range frag.Words {
			token := strings.TrimRight(strings.ToLower(w.Text), ".,?!")
			if _, ok := fillerTokens[token]; ok {
				e.addFiller(token)
			}
		}
		return e.fillerCount - before
	}
	lower := strings.ToLower(frag.Text)
	for _, filler := range fillerSubstrings {
		// Overlapping fragments can overcount here; acceptable for rough
		// coaching feedback.
		for n := strings.Count(lower, filler); n > 0; n-- {
			e.addFiller(filler)
		}
	}
	return e.fillerCount - before
}

func (e *Engine) addFiller(token string) {
	e.fillerCount++
	e.fillers = append(e.fillers, token)
}

// Snapshot reports the current coaching state without mutating it. Interim
// fragments are annotated with the last observed rate.
func (e *Engine) Snapshot() Snapshot {
	recent := e.fillers
	if len(recent) > recentFillersCap {
		recent = recent[len(recent)-recentFillersCap:]
	}
	out := make([]string, len(recent))
	copy(out, recent)
	return Snapshot{WPM: e.lastWPM, FillerCount: e.fillerCount, Fillers: out}
}

func (e *Engine) Reset() {
	e.history = nil
	e.lastWPM = 0
	e.fillerCount = 0
	e.fillers = nil
}
