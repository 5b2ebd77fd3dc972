package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amplifiedhq/amplified/internal/repository"
)

// MemoryRepository keeps meeting state in-process for deployments without a
// DATABASE_URL. Data does not survive a restart.
type MemoryRepository struct {
	mu        sync.Mutex
	meetings  map[string]*repository.Meeting
	segments  map[string][]repository.TranscriptSegment
	summaries map[string][]repository.MeetingSummary
	profiles  map[string]*repository.VoiceProfile
}

func NewMemoryRepository() repository.Repository {
	return &MemoryRepository{
		meetings:  make(map[string]*repository.Meeting),
		segments:  make(map[string][]repository.TranscriptSegment),
		summaries: make(map[string][]repository.MeetingSummary),
		profiles:  make(map[string]*repository.VoiceProfile),
	}
}

func (r *MemoryRepository) CreateMeeting(_ context.Context, input repository.CreateMeetingInput) (*repository.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := &repository.Meeting{
		ID:        uuid.NewString(),
		OwnerID:   input.OwnerID,
		Title:     input.Title,
		StartedAt: input.StartedAt,
		Status:    repository.MeetingStatusRunning,
		CreatedAt: time.Now(),
	}
	r.meetings[m.ID] = m
	return cloneMeeting(m), nil
}

func (r *MemoryRepository) GetMeetingByID(_ context.Context, meetingID string) (*repository.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[meetingID]
	if !ok {
		return nil, nil
	}
	return cloneMeeting(m), nil
}

func (r *MemoryRepository) UpdateMeetingCompleted(_ context.Context, input repository.CompleteMeetingInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[input.MeetingID]
	if !ok {
		return nil
	}
	endedAt := input.EndedAt
	m.Status = repository.MeetingStatusCompleted
	m.EndedAt = &endedAt
	m.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) InsertSegment(_ context.Context, input repository.InsertSegmentInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments[input.MeetingID] = append(r.segments[input.MeetingID], repository.TranscriptSegment{
		ID:           uuid.NewString(),
		MeetingID:    input.MeetingID,
		Speaker:      input.Speaker,
		Content:      input.Content,
		SegmentIndex: input.SegmentIndex,
		SpokenAt:     input.SpokenAt,
		CreatedAt:    time.Now(),
	})
	return nil
}

func (r *MemoryRepository) ListSegmentsByMeetingID(_ context.Context, meetingID string) ([]repository.TranscriptSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := append([]repository.TranscriptSegment(nil), r.segments[meetingID]...)
	sort.Slice(list, func(i, j int) bool { return list[i].SegmentIndex < list[j].SegmentIndex })
	return list, nil
}

func (r *MemoryRepository) SaveSummary(_ context.Context, input repository.SaveSummaryInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.summaries[input.MeetingID]
	for i := range existing {
		if existing[i].SessionNumber == input.SessionNumber {
			existing[i].ShortSummary = input.ShortSummary
			return nil
		}
	}
	r.summaries[input.MeetingID] = append(existing, repository.MeetingSummary{
		ID:            uuid.NewString(),
		MeetingID:     input.MeetingID,
		SessionNumber: input.SessionNumber,
		ShortSummary:  input.ShortSummary,
		CreatedAt:     time.Now(),
	})
	return nil
}

func (r *MemoryRepository) ListSummariesByMeetingID(_ context.Context, meetingID string) ([]repository.MeetingSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := append([]repository.MeetingSummary(nil), r.summaries[meetingID]...)
	sort.Slice(list, func(i, j int) bool { return list[i].SessionNumber < list[j].SessionNumber })
	return list, nil
}

func (r *MemoryRepository) GetVoiceProfile(_ context.Context, ownerID string) (*repository.VoiceProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[ownerID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// SetVoiceProfile exists for tests and local development.
func (r *MemoryRepository) SetVoiceProfile(ownerID, displayName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[ownerID] = &repository.VoiceProfile{
		OwnerID:     ownerID,
		DisplayName: displayName,
		CreatedAt:   time.Now(),
	}
}

func cloneMeeting(m *repository.Meeting) *repository.Meeting {
	cp := *m
	if m.EndedAt != nil {
		endedAt := *m.EndedAt
		cp.EndedAt = &endedAt
	}
	return &cp
}
