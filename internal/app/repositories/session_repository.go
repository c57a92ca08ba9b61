package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/db"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/dberrors"
	"github.com/yigit/classroom/internal/pkg/logger"
)

var sessionColumns = []string{
	"s.id", "s.course_id", "s.title", "s.description", "s.start_time", "s.duration_minutes",
	"s.room_name", "s.room_url", "s.idempotency_key", "s.created_by", "s.created_at", "s.updated_at",
}

// SessionRepository handles course sessions and their attendees.
type SessionRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanSession(row pgx.Row) (*models.CourseSession, error) {
	var s models.CourseSession
	err := row.Scan(&s.ID, &s.CourseID, &s.Title, &s.Description, &s.StartTime, &s.DurationMinutes,
		&s.RoomName, &s.RoomURL, &s.IdempotencyKey, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a session row without attendees.
func (r *SessionRepository) Create(ctx context.Context, s *models.CourseSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	sql, args, err := r.sb.Insert("course_sessions").
		Columns("id", "course_id", "title", "description", "start_time", "duration_minutes",
			"room_name", "room_url", "idempotency_key", "created_by").
		Values(s.ID, s.CourseID, s.Title, s.Description, s.StartTime, s.DurationMinutes,
			s.RoomName, s.RoomURL, s.IdempotencyKey, s.CreatedBy).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create session query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "course_sessions_idempotency_key_key") {
			return apperrors.NewConflictError("A session with this idempotency key already exists")
		}
		logger.Error().Err(err).Str("courseID", s.CourseID.String()).Msg("Error executing create session query")
		return dberrors.Translate(err, apperrors.ErrCourseNotFound)
	}
	return nil
}

// GetByID retrieves a session together with its attendee ids.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CourseSession, error) {
	return r.getOne(ctx, squirrel.Eq{"s.id": id})
}

// GetByIdempotencyKey retrieves the session created under key.
func (r *SessionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.CourseSession, error) {
	return r.getOne(ctx, squirrel.Eq{"s.idempotency_key": key})
}

func (r *SessionRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.CourseSession, error) {
	sql, args, err := r.sb.Select(sessionColumns...).From("course_sessions s").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get session query: %w", err)
	}
	s, err := scanSession(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("error retrieving session: %w", err)
	}
	if s.Attendees, err = r.ListAttendees(ctx, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns sessions matching filter ordered by start time.
func (r *SessionRepository) List(ctx context.Context, filter dto.SessionFilter) ([]models.CourseSession, error) {
	q := r.sb.Select(sessionColumns...).From("course_sessions s")
	if filter.CourseID != nil {
		q = q.Where(squirrel.Eq{"s.course_id": *filter.CourseID})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"s.start_time": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.Lt{"s.start_time": *filter.To})
	}
	if filter.AttendeeID != nil {
		q = q.Where(squirrel.Expr(
			"EXISTS (SELECT 1 FROM session_attendees a WHERE a.session_id = s.id AND a.student_id = ?)", *filter.AttendeeID))
	}
	if filter.TeacherID != nil {
		q = q.Join("courses c ON c.id = s.course_id").Where(squirrel.Eq{"c.teacher_id": *filter.TeacherID})
	}

	sql, args, err := q.OrderBy("s.start_time ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list sessions query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing sessions")
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]models.CourseSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Update writes the mutable session columns.
func (r *SessionRepository) Update(ctx context.Context, s *models.CourseSession) error {
	sql, args, err := r.sb.Update("course_sessions").
		Set("title", s.Title).
		Set("description", s.Description).
		Set("start_time", s.StartTime).
		Set("duration_minutes", s.DurationMinutes).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": s.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update session query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrSessionNotFound
		}
		return fmt.Errorf("error updating session: %w", err)
	}
	return nil
}

// Delete removes a session and its attendee rows.
func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM course_sessions WHERE id = $1`, id)
	if err != nil {
		logger.Error().Err(err).Str("sessionID", id.String()).Msg("Error deleting session")
		return fmt.Errorf("error deleting session: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

// AddAttendees inserts one attendee row per student in a single transaction.
func (r *SessionRepository) AddAttendees(ctx context.Context, sessionID uuid.UUID, studentIDs []uuid.UUID) error {
	if len(studentIDs) == 0 {
		return nil
	}
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		return r.insertAttendees(ctx, tx, sessionID, studentIDs)
	})
}

// ReplaceAttendees swaps the attendee list in a single transaction.
func (r *SessionRepository) ReplaceAttendees(ctx context.Context, sessionID uuid.UUID, studentIDs []uuid.UUID) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM session_attendees WHERE session_id = $1`, sessionID); err != nil {
			return fmt.Errorf("error clearing attendees: %w", err)
		}
		return r.insertAttendees(ctx, tx, sessionID, studentIDs)
	})
}

func (r *SessionRepository) insertAttendees(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, studentIDs []uuid.UUID) error {
	if len(studentIDs) == 0 {
		return nil
	}
	q := r.sb.Insert("session_attendees").Columns("session_id", "student_id")
	for _, id := range studentIDs {
		q = q.Values(sessionID, id)
	}
	sql, args, err := q.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert attendees query: %w", err)
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("sessionID", sessionID.String()).Msg("Error inserting attendees")
		return dberrors.Translate(err, apperrors.ErrUserNotFound)
	}
	return nil
}

// ListAttendees returns the student ids attending a session.
func (r *SessionRepository) ListAttendees(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT student_id FROM session_attendees WHERE session_id = $1 ORDER BY student_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error listing attendees: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("error scanning attendees: %w", err)
	}
	return ids, nil
}

// IsAttendee reports whether the student attends the session.
func (r *SessionRepository) IsAttendee(ctx context.Context, sessionID, studentID uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM session_attendees WHERE session_id = $1 AND student_id = $2)`,
		sessionID, studentID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("error checking attendee: %w", err)
	}
	return ok, nil
}
