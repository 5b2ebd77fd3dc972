package repository

import (
	"context"
	"time"
)

type CreateMeetingInput struct {
	OwnerID   string
	Title     string
	StartedAt time.Time
}

type CompleteMeetingInput struct {
	MeetingID string
	EndedAt   time.Time
}

type InsertSegmentInput struct {
	MeetingID    string
	Speaker      string
	Content      string
	SegmentIndex int
	SpokenAt     time.Time
}

type SaveSummaryInput struct {
	MeetingID     string
	SessionNumber int
	ShortSummary  string
}

type MeetingRepository interface {
	CreateMeeting(ctx context.Context, input CreateMeetingInput) (*Meeting, error)
	GetMeetingByID(ctx context.Context, meetingID string) (*Meeting, error)
	UpdateMeetingCompleted(ctx context.Context, input CompleteMeetingInput) error
}

type TranscriptRepository interface {
	InsertSegment(ctx context.Context, input InsertSegmentInput) error
	ListSegmentsByMeetingID(ctx context.Context, meetingID string) ([]TranscriptSegment, error)
}

type SummaryRepository interface {
	SaveSummary(ctx context.Context, input SaveSummaryInput) error
	ListSummariesByMeetingID(ctx context.Context, meetingID string) ([]MeetingSummary, error)
}

type VoiceProfileRepository interface {
	GetVoiceProfile(ctx context.Context, ownerID string) (*VoiceProfile, error)
}

type Repository interface {
	MeetingRepository
	TranscriptRepository
	SummaryRepository
	VoiceProfileRepository
}
