package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amplifiedhq/amplified/internal/repository"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateMeeting(ctx context.Context, input repository.CreateMeetingInput) (*repository.Meeting, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO meetings (owner_id, title, started_at, status)
		 VALUES ($1, $2, $3, 'running')
		 RETURNING id, owner_id, title, started_at, ended_at, status`,
		input.OwnerID, input.Title, input.StartedAt)
	return scanMeeting(row)
}

func (r *PostgresRepository) GetMeetingByID(ctx context.Context, meetingID string) (*repository.Meeting, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, title, started_at, ended_at, status
		 FROM meetings WHERE id = $1`,
		meetingID)
	m, err := scanMeeting(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (r *PostgresRepository) UpdateMeetingCompleted(ctx context.Context, input repository.CompleteMeetingInput) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE meetings SET status = 'completed', ended_at = $2, updated_at = NOW() WHERE id = $1`,
		input.MeetingID, input.EndedAt)
	return err
}

func (r *PostgresRepository) InsertSegment(ctx context.Context, input repository.InsertSegmentInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transcript_segments (meeting_id, speaker, content, segment_index, spoken_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		input.MeetingID, input.Speaker, input.Content, input.SegmentIndex, input.SpokenAt)
	return err
}

func (r *PostgresRepository) ListSegmentsByMeetingID(ctx context.Context, meetingID string) ([]repository.TranscriptSegment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, meeting_id, speaker, content, segment_index, spoken_at, created_at
		 FROM transcript_segments WHERE meeting_id = $1 ORDER BY segment_index ASC`,
		meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.TranscriptSegment
	for rows.Next() {
		var seg repository.TranscriptSegment
		if err := rows.Scan(&seg.ID, &seg.MeetingID, &seg.Speaker, &seg.Content, &seg.SegmentIndex, &seg.SpokenAt, &seg.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, seg)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) SaveSummary(ctx context.Context, input repository.SaveSummaryInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO meeting_summaries (meeting_id, session_number, short_summary)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (meeting_id, session_number) DO UPDATE SET short_summary = EXCLUDED.short_summary`,
		input.MeetingID, input.SessionNumber, input.ShortSummary)
	return err
}

func (r *PostgresRepository) ListSummariesByMeetingID(ctx context.Context, meetingID string) ([]repository.MeetingSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, meeting_id, session_number, short_summary, created_at
		 FROM meeting_summaries WHERE meeting_id = $1 ORDER BY session_number ASC`,
		meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.MeetingSummary
	for rows.Next() {
		var sum repository.MeetingSummary
		if err := rows.Scan(&sum.ID, &sum.MeetingID, &sum.SessionNumber, &sum.ShortSummary, &sum.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, sum)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) GetVoiceProfile(ctx context.Context, ownerID string) (*repository.VoiceProfile, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT owner_id, display_name, created_at FROM voice_profiles WHERE owner_id = $1`,
		ownerID)
	var p repository.VoiceProfile
	err := row.Scan(&p.OwnerID, &p.DisplayName, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func scanMeeting(row pgx.Row) (*repository.Meeting, error) {
	var m repository.Meeting
	var endedAt *time.Time
	err := row.Scan(&m.ID, &m.OwnerID, &m.Title, &m.StartedAt, &endedAt, &m.Status)
	if err != nil {
		return nil, err
	}
	m.EndedAt = endedAt
	return &m, nil
}
