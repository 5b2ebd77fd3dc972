package repository

import "time"

type MeetingStatus string

const (
	MeetingStatusRunning   MeetingStatus = "running"
	MeetingStatusCompleted MeetingStatus = "completed"
)

type Meeting struct {
	ID        string
	OwnerID   string
	Title     string
	StartedAt time.Time
	EndedAt   *time.Time
	Status    MeetingStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TranscriptSegment struct {
	ID           string
	MeetingID    string
	Speaker      string
	Content      string
	SegmentIndex int
	SpokenAt     time.Time
	CreatedAt    time.Time
}

type VoiceProfile struct {
	OwnerID     string
	DisplayName string
	CreatedAt   time.Time
}

type MeetingSummary struct {
	ID            string
	MeetingID     string
	SessionNumber int
	ShortSummary  string
	CreatedAt     time.Time
}
