package session

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amplifiedhq/amplified/internal/annotate"
	"github.com/amplifiedhq/amplified/internal/assistant"
	"github.com/amplifiedhq/amplified/internal/audio"
	"github.com/amplifiedhq/amplified/internal/capture"
	"github.com/amplifiedhq/amplified/internal/config"
	"github.com/amplifiedhq/amplified/internal/repository"
	"github.com/amplifiedhq/amplified/internal/transcriber"
)

type mockWriter struct {
	mu     sync.Mutex
	writes [][]byte
	closed bool
}

func (w *mockWriter) Write(pcm []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, append([]byte(nil), pcm...))
	return nil
}

func (w *mockWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

type mockTranscriber struct {
	mu       sync.Mutex
	startErr error
	opts     transcriber.StreamOptions
	receiver transcriber.ResultReceiver
	writer   *mockWriter
	starts   int
}

func (m *mockTranscriber) StartStreaming(_ context.Context, _ string, opts transcriber.StreamOptions, receiver transcriber.ResultReceiver) (transcriber.StreamWriter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	if m.startErr != nil {
		return nil, m.startErr
	}
	m.opts = opts
	m.receiver = receiver
	m.writer = &mockWriter{}
	return m.writer, nil
}

type mockBridge struct {
	mu       sync.Mutex
	channels int
	startErr error
	starts   int
	stops    int
	state    capture.State
}

func (b *mockBridge) Probe() int {
	if b.channels == 0 {
		return 1
	}
	return b.channels
}

func (b *mockBridge) Start(_ context.Context, _ capture.Config, _ capture.BlockWriter) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.startErr != nil {
		return b.startErr
	}
	b.starts++
	b.state = capture.StateListening
	return nil
}

func (b *mockBridge) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stops++
	b.state = capture.StateStopped
	return nil
}

func (b *mockBridge) State() capture.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

type mockAssistant struct {
	mu         sync.Mutex
	questions  []string
	suggestErr error
	summaries  []assistant.SummaryRequest
}

func (a *mockAssistant) Suggest(_ context.Context, question string, _ map[string]string, _ string) (*assistant.Suggestion, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.suggestErr != nil {
		return nil, a.suggestErr
	}
	a.questions = append(a.questions, question)
	return &assistant.Suggestion{Question: question, Answer: "suggested answer"}, nil
}

func (a *mockAssistant) Summarize(_ context.Context, req assistant.SummaryRequest) (*assistant.Summary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summaries = append(a.summaries, req)
	return &assistant.Summary{MeetingID: req.MeetingID, SessionNumber: req.SessionNumber, ShortSummary: "summary"}, nil
}

func (a *mockAssistant) suggestCalls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.questions...)
}

func (a *mockAssistant) summaryCalls() []assistant.SummaryRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]assistant.SummaryRequest(nil), a.summaries...)
}

type mockRepo struct {
	mu        sync.Mutex
	meetings  map[string]*repository.Meeting
	segments  []repository.InsertSegmentInput
	summaries []repository.SaveSummaryInput
	completed []string
	profiles  map[string]string
	nextID    int
}

func newMockRepo() *mockRepo {
	return &mockRepo{meetings: make(map[string]*repository.Meeting), profiles: make(map[string]string)}
}

func (r *mockRepo) CreateMeeting(_ context.Context, input repository.CreateMeetingInput) (*repository.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m := &repository.Meeting{
		ID:        "meeting-" + strconv.Itoa(r.nextID),
		OwnerID:   input.OwnerID,
		Title:     input.Title,
		StartedAt: input.StartedAt,
		Status:    repository.MeetingStatusRunning,
	}
	r.meetings[m.ID] = m
	return m, nil
}

func (r *mockRepo) GetMeetingByID(_ context.Context, meetingID string) (*repository.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meetings[meetingID], nil
}

func (r *mockRepo) UpdateMeetingCompleted(_ context.Context, input repository.CompleteMeetingInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, input.MeetingID)
	return nil
}

func (r *mockRepo) InsertSegment(_ context.Context, input repository.InsertSegmentInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = append(r.segments, input)
	return nil
}

func (r *mockRepo) ListSegmentsByMeetingID(_ context.Context, _ string) ([]repository.TranscriptSegment, error) {
	return nil, nil
}

func (r *mockRepo) SaveSummary(_ context.Context, input repository.SaveSummaryInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, input)
	return nil
}

func (r *mockRepo) ListSummariesByMeetingID(_ context.Context, _ string) ([]repository.MeetingSummary, error) {
	return nil, nil
}

func (r *mockRepo) GetVoiceProfile(_ context.Context, ownerID string) (*repository.VoiceProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.profiles[ownerID]
	if !ok {
		return nil, nil
	}
	return &repository.VoiceProfile{OwnerID: ownerID, DisplayName: name}, nil
}

type mockDecoder struct{}

func (mockDecoder) DecodePCM16(packet []byte) ([]byte, error) { return packet, nil }
func (mockDecoder) Close()                                    {}

type mockSink struct {
	mu          sync.Mutex
	statuses    []string
	transcripts []annotate.Event
	suggestions []*assistant.Suggestion
	sums        []*assistant.Summary
	meetings    []string
	errs        []string
	stalls      []string
}

func (s *mockSink) SendTranscript(ev annotate.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts = append(s.transcripts, ev)
}

func (s *mockSink) SendSuggestion(sug *assistant.Suggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions = append(s.suggestions, sug)
}

func (s *mockSink) SendStatus(status, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
}

func (s *mockSink) SendMeetingCreated(meetingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings = append(s.meetings, meetingID)
}

func (s *mockSink) SendMeetingContinued(meetingID string, _ int, _ []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings = append(s.meetings, meetingID)
}

func (s *mockSink) SendSummary(sum *assistant.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sums = append(s.sums, sum)
}

func (s *mockSink) SendStallPhrase(phrase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stalls = append(s.stalls, phrase)
}

func (s *mockSink) SendError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, message)
}

func (s *mockSink) statusList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.statuses...)
}

func (s *mockSink) transcriptList() []annotate.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]annotate.Event(nil), s.transcripts...)
}

func (s *mockSink) suggestionList() []*assistant.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*assistant.Suggestion(nil), s.suggestions...)
}

type fixture struct {
	manager *Manager
	stt     *mockTranscriber
	bridge  *mockBridge
	ai      *mockAssistant
	repo    *mockRepo
	sink    *mockSink
}

func newFixture() *fixture {
	f := &fixture{
		stt:    &mockTranscriber{},
		bridge: &mockBridge{channels: 2},
		ai:     &mockAssistant{},
		repo:   newMockRepo(),
		sink:   &mockSink{},
	}
	cfg := &config.Config{
		ListenAddr:         ":8000",
		DefaultLanguage:    "en-US",
		TranscribeProvider: config.ProviderDeepgram,
		AssistantBaseURL:   "http://assistant.local",
	}
	f.manager = NewManager(cfg, f.repo, f.ai,
		f.stt,
		capture.Factory(func() capture.Bridge { return f.bridge }),
		audio.DecoderFactory(func() audio.Decoder { return mockDecoder{} }),
	)
	return f
}

func (f *fixture) attach(t *testing.T) *Session {
	t.Helper()
	s := f.manager.Attach("session-1", "owner-1", f.sink)
	t.Cleanup(func() { f.manager.Detach("session-1") })
	s.trigger.debounce = testDebounce
	return s
}

func hasStatus(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestStartListening_ReportsListening(t *testing.T) {
	f := newFixture()
	s := f.attach(t)

	if err := s.StartListening(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	statuses := f.sink.statusList()
	if !hasStatus(statuses, statusStarting) || !hasStatus(statuses, statusListening) {
		t.Fatalf("expected starting then listening, got %v", statuses)
	}
	if f.stt.opts.Channels != 2 {
		t.Fatalf("probe result not forwarded to provider, got %d channels", f.stt.opts.Channels)
	}
	if f.bridge.starts != 1 {
		t.Fatalf("expected one capture start, got %d", f.bridge.starts)
	}
	if len(f.sink.meetings) != 1 {
		t.Fatalf("expected meeting_created, got %v", f.sink.meetings)
	}
}

func TestStartListening_ProviderFailureStaysStopped(t *testing.T) {
	f := newFixture()
	f.stt.startErr = errors.New("DEEPGRAM_API_KEY is not configured")
	s := f.attach(t)

	if err := s.StartListening(""); err == nil {
		t.Fatal("expected error")
	}

	statuses := f.sink.statusList()
	if !hasStatus(statuses, statusError) {
		t.Fatalf("expected error status, got %v", statuses)
	}
	if hasStatus(statuses, statusListening) {
		t.Fatalf("must never report listening on failure, got %v", statuses)
	}
	if f.bridge.starts != 0 {
		t.Fatal("capture must not start when the provider stream failed")
	}
}

func TestFragmentFlow_AnnotatesAndPersists(t *testing.T) {
	f := newFixture()
	s := f.attach(t)
	if err := s.StartListening(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.stt.receiver.OnFragment(transcriber.Fragment{
		Text:         "tell me about your last project",
		IsFinal:      true,
		ChannelIndex: 1,
		ReceivedAt:   time.Now(),
	})

	waitFor(t, time.Second, func() bool { return len(f.sink.transcriptList()) == 1 })
	ev := f.sink.transcriptList()[0]
	if ev.Speaker != "Interviewer (System)" || !ev.IsFinal || !ev.IsQuestion {
		t.Fatalf("unexpected event: %+v", ev)
	}

	waitFor(t, time.Second, func() bool {
		f.repo.mu.Lock()
		defer f.repo.mu.Unlock()
		return len(f.repo.segments) == 1
	})
	f.repo.mu.Lock()
	seg := f.repo.segments[0]
	f.repo.mu.Unlock()
	if seg.Content != "tell me about your last project" || seg.SegmentIndex != 0 {
		t.Fatalf("unexpected segment: %+v", seg)
	}
}

func TestSuggestion_FiresAfterDebounce(t *testing.T) {
	f := newFixture()
	s := f.attach(t)
	if err := s.StartListening(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.stt.receiver.OnFragment(transcriber.Fragment{
		Text: "what is your greatest strength?", IsFinal: true, ChannelIndex: 1, ReceivedAt: time.Now(),
	})

	waitFor(t, time.Second, func() bool { return len(f.sink.suggestionList()) == 1 })
	if got := f.ai.suggestCalls()[0]; got != "what is your greatest strength?" {
		t.Fatalf("unexpected question: %q", got)
	}
}

func TestSuggestion_InterimSpeechDefersFire(t *testing.T) {
	f := newFixture()
	s := f.attach(t)
	if err := s.StartListening(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.stt.receiver.OnFragment(transcriber.Fragment{
		Text: "can you describe a time you failed?", IsFinal: true, ChannelIndex: 1, ReceivedAt: time.Now(),
	})
	for i := 0; i < 4; i++ {
		time.Sleep(testDebounce / 3)
		f.stt.receiver.OnFragment(transcriber.Fragment{
			Text: "and how you", IsFinal: false, ChannelIndex: 1, ReceivedAt: time.Now(),
		})
		if n := len(f.sink.suggestionList()); n != 0 {
			t.Fatalf("suggestion fired while interim speech was still streaming: %d", n)
		}
	}

	waitFor(t, time.Second, func() bool { return len(f.sink.suggestionList()) == 1 })
	if got := f.ai.suggestCalls()[0]; got != "can you describe a time you failed?" {
		t.Fatalf("interim text leaked into the question: %q", got)
	}
}

func TestSuggestion_MockModeSuppresses(t *testing.T) {
	f := newFixture()
	s := f.attach(t)
	if err := s.StartListening(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.SetMockMode(true)

	f.stt.receiver.OnFragment(transcriber.Fragment{
		Text: "why should we hire you?", IsFinal: true, ChannelIndex: 1, ReceivedAt: time.Now(),
	})

	time.Sleep(3 * testDebounce)
	if n := len(f.ai.suggestCalls()); n != 0 {
		t.Fatalf("mock mode must suppress the collaborator call, got %d", n)
	}

	// The trigger state still resets: the next question carries only its
	// own text.
	s.SetMockMode(false)
	f.stt.receiver.OnFragment(transcriber.Fragment{
		Text: "what motivates you?", IsFinal: true, ChannelIndex: 1, ReceivedAt: time.Now(),
	})
	waitFor(t, time.Second, func() bool { return len(f.ai.suggestCalls()) == 1 })
	if got := f.ai.suggestCalls()[0]; strings.Contains(got, "hire you") {
		t.Fatalf("suppressed turn leaked into the next question: %q", got)
	}
}

func TestStopListening_PausesAndKeepsTranscript(t *testing.T) {
	f := newFixture()
	s := f.attach(t)
	if err := s.StartListening(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.stt.receiver.OnFragment(transcriber.Fragment{
		Text: "I led the migration project", IsFinal: true, ChannelIndex: 0, ReceivedAt: time.Now(),
	})
	waitFor(t, time.Second, func() bool { return len(f.sink.transcriptList()) == 1 })

	s.StopListening()

	if f.bridge.stops != 1 {
		t.Fatalf("expected one capture stop, got %d", f.bridge.stops)
	}
	if !f.stt.writer.closed {
		t.Fatal("provider stream should be closed on stop")
	}
	if !hasStatus(f.sink.statusList(), statusPaused) {
		t.Fatalf("expected paused status, got %v", f.sink.statusList())
	}
	s.mu.Lock()
	kept := len(s.transcript)
	s.mu.Unlock()
	if kept != 1 {
		t.Fatalf("transcript must survive a pause, got %d lines", kept)
	}
}

func TestEndMeeting_EmptyTranscriptCannedSummary(t *testing.T) {
	f := newFixture()
	s := f.attach(t)
	if err := s.StartListening(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.EndMeeting()

	f.sink.mu.Lock()
	sums := append([]*assistant.Summary(nil), f.sink.sums...)
	f.sink.mu.Unlock()
	if len(sums) != 1 || sums[0].ShortSummary != messageEmptySummary {
		t.Fatalf("expected canned empty-transcript summary, got %+v", sums)
	}
	if len(f.ai.summaryCalls()) != 0 {
		t.Fatal("collaborator must not be called for an empty transcript")
	}
	f.repo.mu.Lock()
	completed := len(f.repo.completed)
	f.repo.mu.Unlock()
	if completed != 1 {
		t.Fatalf("meeting should be completed, got %d", completed)
	}
	if !hasStatus(f.sink.statusList(), statusStopped) {
		t.Fatalf("expected stopped status, got %v", f.sink.statusList())
	}
}

func TestEndMeeting_SummarizesTranscript(t *testing.T) {
	f := newFixture()
	s := f.attach(t)
	if err := s.StartListening(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.stt.receiver.OnFragment(transcriber.Fragment{
		Text: "we shipped the feature on time", IsFinal: true, ChannelIndex: 0, ReceivedAt: time.Now(),
	})
	waitFor(t, time.Second, func() bool { return len(f.sink.transcriptList()) == 1 })

	s.EndMeeting()

	if len(f.ai.summaryCalls()) != 1 {
		t.Fatalf("expected one summary call, got %d", len(f.ai.summaryCalls()))
	}
	req := f.ai.summaryCalls()[0]
	if !strings.Contains(req.Transcript, "we shipped the feature on time") {
		t.Fatalf("transcript not handed to summarizer: %q", req.Transcript)
	}
	if req.SessionNumber != 1 {
		t.Fatalf("unexpected session number: %d", req.SessionNumber)
	}
}

func TestGenerateSuggestion_NoQuestionYet(t *testing.T) {
	f := newFixture()
	s := f.attach(t)

	s.GenerateSuggestion()

	f.sink.mu.Lock()
	errs := append([]string(nil), f.sink.errs...)
	f.sink.mu.Unlock()
	if len(errs) != 1 || errs[0] != messageNoQuestionYet {
		t.Fatalf("expected no-question error, got %v", errs)
	}
}

func TestGetStallPhrase_SendsKnownPhrase(t *testing.T) {
	f := newFixture()
	s := f.attach(t)

	s.GetStallPhrase()

	f.sink.mu.Lock()
	stalls := append([]string(nil), f.sink.stalls...)
	f.sink.mu.Unlock()
	if len(stalls) != 1 {
		t.Fatalf("expected one stall phrase, got %v", stalls)
	}
	known := false
	for _, phrase := range stallPhrases {
		if phrase == stalls[0] {
			known = true
		}
	}
	if !known {
		t.Fatalf("unknown stall phrase: %q", stalls[0])
	}
}

func TestManager_AttachIsIdempotentAndDetachCloses(t *testing.T) {
	f := newFixture()
	s1 := f.manager.Attach("session-1", "owner-1", f.sink)
	s2 := f.manager.Attach("session-1", "owner-1", f.sink)
	if s1 != s2 {
		t.Fatal("attach must return the existing session")
	}
	if f.manager.ActiveSessions() != 1 {
		t.Fatalf("expected 1 active session, got %d", f.manager.ActiveSessions())
	}

	f.manager.Detach("session-1")
	if f.manager.ActiveSessions() != 0 {
		t.Fatalf("expected 0 active sessions, got %d", f.manager.ActiveSessions())
	}
	f.manager.Detach("session-1")
}
