package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amplifiedhq/amplified/internal/annotate"
	"github.com/amplifiedhq/amplified/internal/assistant"
	"github.com/amplifiedhq/amplified/internal/audio"
	"github.com/amplifiedhq/amplified/internal/capture"
	"github.com/amplifiedhq/amplified/internal/coaching"
	"github.com/amplifiedhq/amplified/internal/config"
	"github.com/amplifiedhq/amplified/internal/repository"
	"github.com/amplifiedhq/amplified/internal/transcriber"
)

const (
	fragmentQueueDepth   = 64
	suggestionTimeout    = 60 * time.Second
	summaryTimeout       = 120 * time.Second
	transcriptTailLines  = 12
	collaboratorCallSlow = 10 * time.Second
)

// EventSink is the outbound side of a session, implemented by the gateway
// connection. Calls may come from the session goroutine or a timer
// goroutine; implementations serialize their own writes.
type EventSink interface {
	SendTranscript(ev annotate.Event)
	SendSuggestion(s *assistant.Suggestion)
	SendStatus(status, message string)
	SendMeetingCreated(meetingID string)
	SendMeetingContinued(meetingID string, sessionNumber int, previousSummaries []string)
	SendSummary(sum *assistant.Summary)
	SendStallPhrase(phrase string)
	SendError(message string)
}

// Session owns one client's capture pipeline: provider stream, annotation,
// suggestion trigger, transcript log and meeting lifecycle. Fragments are
// processed in arrival order on the session's run goroutine.
type Session struct {
	id        string
	ownerID   string
	cfg       *config.Config
	repo      repository.Repository
	assistant assistant.Client
	stt       transcriber.Transcriber
	bridge    capture.Bridge
	decoder   audio.Decoder
	trigger   *Trigger
	annotator *annotate.Annotator

	fragments chan transcriber.Fragment
	done      chan struct{}
	closeOnce sync.Once

	mu                sync.Mutex
	sink              EventSink
	writer            transcriber.StreamWriter
	listening         bool
	mockMode          bool
	interviewMode     bool
	transcript        []string
	segmentIndex      int
	meeting           *repository.Meeting
	sessionNumber     int
	previousSummaries []string
}

func newSession(id, ownerID string, cfg *config.Config, repo repository.Repository, ac assistant.Client, stt transcriber.Transcriber, bridge capture.Bridge, decoder audio.Decoder, sink EventSink) *Session {
	s := &Session{
		id:        id,
		ownerID:   ownerID,
		cfg:       cfg,
		repo:      repo,
		assistant: ac,
		stt:       stt,
		bridge:    bridge,
		decoder:   decoder,
		annotator: annotate.NewAnnotator(coaching.NewEngine()),
		fragments: make(chan transcriber.Fragment, fragmentQueueDepth),
		done:      make(chan struct{}),
		sink:      sink,
	}
	s.trigger = NewTrigger(s.fireSuggestion)
	go s.run()
	return s
}

func (s *Session) run() {
	for {
		select {
		case <-s.done:
			return
		case frag := <-s.fragments:
			s.handleFragment(frag)
		}
	}
}

// StartListening resets per-capture state, opens the provider stream, and
// starts OS capture. Any failure reports an error status and leaves the
// session stopped.
func (s *Session) StartListening(meetingID string) error {
	s.mu.Lock()
	if s.listening {
		s.mu.Unlock()
		return nil
	}
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		sink.SendStatus(statusStarting, "")
	}

	ctx := context.Background()
	ownerName := s.lookupOwnerDisplayName(ctx)

	if err := s.ensureMeeting(ctx, meetingID, sink); err != nil {
		if sink != nil {
			sink.SendStatus(statusError, err.Error())
		}
		return err
	}

	channels := s.bridge.Probe()

	s.mu.Lock()
	s.trigger.Reset()
	s.annotator.Reset()
	s.annotator.SetInputChannels(channels)
	s.annotator.SetOwnerDisplayName(ownerName)
	s.mu.Unlock()

	writer, err := s.stt.StartStreaming(ctx, s.id, transcriber.StreamOptions{
		Language: s.cfg.DefaultLanguage,
		Channels: channels,
	}, s)
	if err != nil {
		slog.Error("failed to start transcriber streaming", "error", err, "session_id", s.id)
		if sink != nil {
			sink.SendStatus(statusError, fmt.Sprintf("transcription unavailable: %v", err))
		}
		return err
	}

	if err := s.bridge.Start(ctx, capture.DefaultConfig(channels), writer); err != nil {
		_ = writer.Close()
		slog.Error("failed to start audio capture", "error", err, "session_id", s.id)
		if sink != nil {
			sink.SendStatus(statusError, fmt.Sprintf("audio capture failed: %v", err))
		}
		return err
	}

	s.mu.Lock()
	s.writer = writer
	s.listening = true
	s.mu.Unlock()

	slog.Info("session listening", "session_id", s.id, "owner_id", s.ownerID, "channels", channels)
	if sink != nil {
		sink.SendStatus(statusListening, messageListening)
	}
	return nil
}

// StopListening pauses capture. The transcript log and meeting stay.
func (s *Session) StopListening() {
	s.stopCapture()
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	if sink != nil {
		sink.SendStatus(statusPaused, messagePaused)
	}
}

// EndMeeting stops capture, summarizes the accumulated transcript, persists
// and clears the meeting.
func (s *Session) EndMeeting() {
	s.stopCapture()

	s.mu.Lock()
	sink := s.sink
	meeting := s.meeting
	sessionNumber := s.sessionNumber
	previous := s.previousSummaries
	transcript := joinTranscript(s.transcript)
	s.meeting = nil
	s.sessionNumber = 0
	s.previousSummaries = nil
	s.transcript = nil
	s.segmentIndex = 0
	s.mu.Unlock()

	if meeting != nil {
		sum := s.summarize(meeting.ID, sessionNumber, previous, transcript)
		ctx, cancel := context.WithTimeout(context.Background(), summaryTimeout)
		defer cancel()
		if s.repo != nil && sum != nil {
			if err := s.repo.SaveSummary(ctx, repository.SaveSummaryInput{
				MeetingID:     meeting.ID,
				SessionNumber: sum.SessionNumber,
				ShortSummary:  sum.ShortSummary,
			}); err != nil {
				slog.Error("failed to save summary", "error", err, "meeting_id", meeting.ID)
			}
			if err := s.repo.UpdateMeetingCompleted(ctx, repository.CompleteMeetingInput{
				MeetingID: meeting.ID,
				EndedAt:   time.Now(),
			}); err != nil {
				slog.Error("failed to complete meeting", "error", err, "meeting_id", meeting.ID)
			}
		}
		if sink != nil && sum != nil {
			sink.SendSummary(sum)
		}
	}
	if sink != nil {
		sink.SendStatus(statusStopped, messageMeetingEnded)
	}
}

func (s *Session) SetMockMode(active bool) {
	s.mu.Lock()
	s.mockMode = active
	s.mu.Unlock()
	slog.Info("mock mode changed", "session_id", s.id, "active", active)
}

func (s *Session) SetInterviewMode(active bool) {
	s.mu.Lock()
	s.interviewMode = active
	s.mu.Unlock()
}

// GenerateSuggestion fires the trigger immediately, bypassing the debounce.
func (s *Session) GenerateSuggestion() {
	if !s.trigger.FireNow() {
		s.mu.Lock()
		sink := s.sink
		s.mu.Unlock()
		if sink != nil {
			sink.SendError(messageNoQuestionYet)
		}
	}
}

func (s *Session) GetStallPhrase() {
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	if sink != nil {
		sink.SendStallPhrase(randomStallPhrase())
	}
}

// ForwardAudio decodes a client-origin Opus packet and feeds the PCM into
// the provider stream. Used when capture happens in the client instead of
// on this host.
func (s *Session) ForwardAudio(opusPacket []byte) {
	s.mu.Lock()
	writer := s.writer
	s.mu.Unlock()
	if writer == nil {
		return
	}
	pcm, err := s.decoder.DecodePCM16(opusPacket)
	if err != nil {
		slog.Warn("failed to decode audio chunk", "error", err, "session_id", s.id)
		return
	}
	if len(pcm) == 0 {
		return
	}
	if err := writer.Write(pcm); err != nil {
		slog.Error("failed to write forwarded audio", "error", err, "session_id", s.id)
	}
}

// OnFragment implements transcriber.ResultReceiver. It runs on the provider
// receive goroutine and must not block: fragments are dropped when the
// session queue is full.
func (s *Session) OnFragment(frag transcriber.Fragment) {
	select {
	case s.fragments <- frag:
	default:
		slog.Warn("fragment queue full, dropping fragment", "session_id", s.id, "is_final", frag.IsFinal)
	}
}

// OnError implements transcriber.ResultReceiver. Mid-stream provider errors
// are reported; recovery is an explicit stop/start.
func (s *Session) OnError(err error) {
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	slog.Error("transcriber stream error", "error", err, "session_id", s.id)
	if sink != nil {
		sink.SendError(fmt.Sprintf("transcription error: %v", err))
	}
}

func (s *Session) handleFragment(frag transcriber.Fragment) {
	s.mu.Lock()
	ev, err := s.annotator.Annotate(frag)
	if err != nil {
		s.mu.Unlock()
		slog.Warn("dropping fragment", "error", err, "session_id", s.id)
		return
	}
	sink := s.sink
	var meetingID string
	segIndex := -1
	if frag.IsFinal && strings.TrimSpace(frag.Text) != "" {
		s.transcript = append(s.transcript, formatTranscriptLine(ev.Speaker, ev.Text))
		if s.meeting != nil {
			meetingID = s.meeting.ID
			segIndex = s.segmentIndex
			s.segmentIndex++
		}
	}
	s.mu.Unlock()

	if sink != nil {
		sink.SendTranscript(ev)
	}
	s.trigger.OnEvent(ev.Text, ev.IsFinal, ev.IsQuestion)
	if segIndex >= 0 && s.repo != nil {
		if err := s.repo.InsertSegment(context.Background(), repository.InsertSegmentInput{
			MeetingID:    meetingID,
			Speaker:      ev.Speaker,
			Content:      ev.Text,
			SegmentIndex: segIndex,
			SpokenAt:     frag.ReceivedAt,
		}); err != nil {
			slog.Error("failed to insert segment", "error", err, "session_id", s.id, "meeting_id", meetingID)
		}
	}
}

func (s *Session) fireSuggestion(question string) {
	s.mu.Lock()
	mock := s.mockMode
	sink := s.sink
	contextData := map[string]string{}
	if s.meeting != nil {
		contextData["meeting_id"] = s.meeting.ID
	}
	if tail := transcriptTail(s.transcript, transcriptTailLines); tail != "" {
		contextData["recent_transcript"] = tail
	}
	if s.interviewMode {
		contextData["mode"] = "interview"
	}
	s.mu.Unlock()

	if mock {
		slog.Debug("mock mode active, suppressing suggestion", "session_id", s.id)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), suggestionTimeout)
	defer cancel()
	started := time.Now()
	sug, err := s.assistant.Suggest(ctx, question, contextData, s.ownerID)
	if elapsed := time.Since(started); elapsed > collaboratorCallSlow {
		slog.Warn("slow suggestion call", "session_id", s.id, "elapsed", elapsed)
	}
	if err != nil {
		slog.Error("failed to generate suggestion", "error", err, "session_id", s.id)
		if sink != nil {
			sink.SendError(fmt.Sprintf("suggestion failed: %v", err))
		}
		return
	}
	if sink != nil {
		sink.SendSuggestion(sug)
	}
}

func (s *Session) lookupOwnerDisplayName(ctx context.Context) string {
	if s.repo == nil {
		return ""
	}
	profile, err := s.repo.GetVoiceProfile(ctx, s.ownerID)
	if err != nil {
		slog.Warn("voice profile lookup failed", "error", err, "owner_id", s.ownerID)
		return ""
	}
	if profile == nil {
		return ""
	}
	return profile.DisplayName
}

func (s *Session) ensureMeeting(ctx context.Context, meetingID string, sink EventSink) error {
	s.mu.Lock()
	active := s.meeting
	s.mu.Unlock()
	if active != nil {
		return nil
	}

	if meetingID != "" && s.repo != nil {
		meeting, err := s.repo.GetMeetingByID(ctx, meetingID)
		if err != nil {
			return fmt.Errorf("look up meeting: %w", err)
		}
		if meeting != nil {
			summaries, err := s.repo.ListSummariesByMeetingID(ctx, meetingID)
			if err != nil {
				slog.Warn("failed to list prior summaries", "error", err, "meeting_id", meetingID)
			}
			previous := make([]string, 0, len(summaries))
			for _, sum := range summaries {
				previous = append(previous, sum.ShortSummary)
			}
			s.mu.Lock()
			s.meeting = meeting
			s.sessionNumber = len(previous) + 1
			s.previousSummaries = previous
			sessionNumber := s.sessionNumber
			s.mu.Unlock()
			slog.Info("continuing meeting", "session_id", s.id, "meeting_id", meeting.ID, "session_number", sessionNumber)
			if sink != nil {
				sink.SendMeetingContinued(meeting.ID, sessionNumber, previous)
			}
			return nil
		}
		slog.Warn("requested meeting not found, creating a new one", "meeting_id", meetingID)
	}

	if s.repo == nil {
		return nil
	}
	meeting, err := s.repo.CreateMeeting(ctx, repository.CreateMeetingInput{
		OwnerID:   s.ownerID,
		Title:     defaultMeetingTitle,
		StartedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("create meeting: %w", err)
	}
	s.mu.Lock()
	s.meeting = meeting
	s.sessionNumber = 1
	s.mu.Unlock()
	slog.Info("created meeting", "session_id", s.id, "meeting_id", meeting.ID)
	if sink != nil {
		sink.SendMeetingCreated(meeting.ID)
	}
	return nil
}

func (s *Session) summarize(meetingID string, sessionNumber int, previous []string, transcript string) *assistant.Summary {
	if strings.TrimSpace(transcript) == "" {
		return &assistant.Summary{
			MeetingID:     meetingID,
			SessionNumber: sessionNumber,
			ShortSummary:  messageEmptySummary,
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), summaryTimeout)
	defer cancel()
	sum, err := s.assistant.Summarize(ctx, assistant.SummaryRequest{
		MeetingID:         meetingID,
		OwnerID:           s.ownerID,
		Transcript:        transcript,
		SessionNumber:     sessionNumber,
		PreviousSummaries: previous,
	})
	if err != nil {
		slog.Error("failed to generate summary", "error", err, "meeting_id", meetingID)
		s.mu.Lock()
		sink := s.sink
		s.mu.Unlock()
		if sink != nil {
			sink.SendError(fmt.Sprintf("summary failed: %v", err))
		}
		return nil
	}
	if sum.SessionNumber == 0 {
		sum.SessionNumber = sessionNumber
	}
	return sum
}

func (s *Session) stopCapture() {
	s.trigger.CancelPending()

	s.mu.Lock()
	writer := s.writer
	s.writer = nil
	wasListening := s.listening
	s.listening = false
	s.mu.Unlock()

	if !wasListening {
		return
	}
	if err := s.bridge.Stop(); err != nil {
		slog.Warn("failed to stop capture", "error", err, "session_id", s.id)
	}
	if writer != nil {
		_ = writer.Close()
	}
	slog.Info("capture stopped", "session_id", s.id)
}

// Close tears the session down. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.stopCapture()
		s.decoder.Close()
		close(s.done)
	})
}
