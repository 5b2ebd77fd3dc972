package repository

import (
	"testing"
	"time"

	"github.com/amplifiedhq/amplified/internal/repository"
)

func TestMemoryRepository_MeetingLifecycle(t *testing.T) {
	r := NewMemoryRepository()

	m, err := r.CreateMeeting(t.Context(), repository.CreateMeetingInput{
		OwnerID:   "owner-1",
		Title:     "Interview session",
		StartedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.ID == "" || m.Status != repository.MeetingStatusRunning {
		t.Fatalf("unexpected meeting: %+v", m)
	}

	got, err := r.GetMeetingByID(t.Context(), m.ID)
	if err != nil || got == nil || got.ID != m.ID {
		t.Fatalf("get: %+v, %v", got, err)
	}

	if err := r.UpdateMeetingCompleted(t.Context(), repository.CompleteMeetingInput{
		MeetingID: m.ID,
		EndedAt:   time.Now(),
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, _ = r.GetMeetingByID(t.Context(), m.ID)
	if got.Status != repository.MeetingStatusCompleted || got.EndedAt == nil {
		t.Fatalf("meeting not completed: %+v", got)
	}

	missing, err := r.GetMeetingByID(t.Context(), "no-such-meeting")
	if err != nil || missing != nil {
		t.Fatalf("missing meeting should be nil, nil: %+v, %v", missing, err)
	}
}

func TestMemoryRepository_SegmentsOrderedByIndex(t *testing.T) {
	r := NewMemoryRepository()
	m, _ := r.CreateMeeting(t.Context(), repository.CreateMeetingInput{OwnerID: "o", StartedAt: time.Now()})

	for _, idx := range []int{2, 0, 1} {
		if err := r.InsertSegment(t.Context(), repository.InsertSegmentInput{
			MeetingID:    m.ID,
			Content:      "seg",
			SegmentIndex: idx,
			SpokenAt:     time.Now(),
		}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	segments, err := r.ListSegmentsByMeetingID(t.Context(), m.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	for i, seg := range segments {
		if seg.SegmentIndex != i {
			t.Fatalf("segments out of order: %+v", segments)
		}
	}
}

func TestMemoryRepository_SummariesUpsertBySessionNumber(t *testing.T) {
	r := NewMemoryRepository()
	m, _ := r.CreateMeeting(t.Context(), repository.CreateMeetingInput{OwnerID: "o", StartedAt: time.Now()})

	_ = r.SaveSummary(t.Context(), repository.SaveSummaryInput{MeetingID: m.ID, SessionNumber: 1, ShortSummary: "first"})
	_ = r.SaveSummary(t.Context(), repository.SaveSummaryInput{MeetingID: m.ID, SessionNumber: 2, ShortSummary: "second"})
	_ = r.SaveSummary(t.Context(), repository.SaveSummaryInput{MeetingID: m.ID, SessionNumber: 1, ShortSummary: "first revised"})

	sums, err := r.ListSummariesByMeetingID(t.Context(), m.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(sums))
	}
	if sums[0].ShortSummary != "first revised" || sums[1].ShortSummary != "second" {
		t.Fatalf("unexpected summaries: %+v", sums)
	}
}

func TestMemoryRepository_VoiceProfile(t *testing.T) {
	r := NewMemoryRepository().(*MemoryRepository)

	p, err := r.GetVoiceProfile(t.Context(), "owner-1")
	if err != nil || p != nil {
		t.Fatalf("unknown owner should be nil, nil: %+v, %v", p, err)
	}

	r.SetVoiceProfile("owner-1", "Alex")
	p, err = r.GetVoiceProfile(t.Context(), "owner-1")
	if err != nil || p == nil || p.DisplayName != "Alex" {
		t.Fatalf("unexpected profile: %+v, %v", p, err)
	}
}
