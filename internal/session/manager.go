package session

import (
	"log/slog"
	"sync"

	"github.com/amplifiedhq/amplified/internal/assistant"
	"github.com/amplifiedhq/amplified/internal/audio"
	"github.com/amplifiedhq/amplified/internal/capture"
	"github.com/amplifiedhq/amplified/internal/config"
	"github.com/amplifiedhq/amplified/internal/repository"
	"github.com/amplifiedhq/amplified/internal/transcriber"
)

// Manager is the session registry. Sessions are created on gateway attach
// and destroyed on detach; each owns its pipeline end to end.
type Manager struct {
	cfg        *config.Config
	repo       repository.Repository
	assistant  assistant.Client
	stt        transcriber.Transcriber
	newBridge  capture.Factory
	newDecoder audio.DecoderFactory

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(cfg *config.Config, repo repository.Repository, ac assistant.Client, stt transcriber.Transcriber, newBridge capture.Factory, newDecoder audio.DecoderFactory) *Manager {
	return &Manager{
		cfg:        cfg,
		repo:       repo,
		assistant:  ac,
		stt:        stt,
		newBridge:  newBridge,
		newDecoder: newDecoder,
		sessions:   make(map[string]*Session),
	}
}

// Attach returns the session for sessionID, creating it on first use and
// rebinding its sink on reconnect.
func (m *Manager) Attach(sessionID, ownerID string, sink EventSink) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		s.mu.Lock()
		s.sink = sink
		s.mu.Unlock()
		slog.Info("session sink rebound", "session_id", sessionID)
		return s
	}
	s := newSession(sessionID, ownerID, m.cfg, m.repo, m.assistant, m.stt, m.newBridge(), m.newDecoder(), sink)
	m.sessions[sessionID] = s
	slog.Info("session created", "session_id", sessionID, "owner_id", ownerID)
	return s
}

// Detach closes and removes the session.
func (m *Manager) Detach(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	if !ok {
		return
	}
	s.Close()
	slog.Info("session destroyed", "session_id", sessionID)
}

func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes every session, for server stop.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
