package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/db"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/dberrors"
	"github.com/yigit/classroom/internal/pkg/logger"
)

type workTables struct {
	students    string
	submissions string
	fk          string
	uniqueKey   string
}

func tablesFor(kind models.WorkKind) (workTables, error) {
	switch kind {
	case models.WorkAssignment:
		return workTables{"assignment_students", "assignment_submissions", "assignment_id", "assignment_submissions_work_student_key"}, nil
	case models.WorkQuiz:
		return workTables{"quiz_students", "quiz_submissions", "quiz_id", "quiz_submissions_work_student_key"}, nil
	}
	return workTables{}, fmt.Errorf("unknown work kind %q", kind)
}

// CourseworkRepository handles the per-student rows shared by assignments and
// quizzes: assigned students and submissions.
type CourseworkRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCourseworkRepository creates a new CourseworkRepository
func NewCourseworkRepository(db *pgxpool.Pool) *CourseworkRepository {
	return &CourseworkRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// AssignStudents links students to a piece of work, ignoring existing links.
func (r *CourseworkRepository) AssignStudents(ctx context.Context, kind models.WorkKind, workID uuid.UUID, studentIDs []uuid.UUID) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}
	return r.insertStudents(ctx, r.db, t, workID, studentIDs)
}

// ReplaceStudents swaps the assigned student list in one transaction.
func (r *CourseworkRepository) ReplaceStudents(ctx context.Context, kind models.WorkKind, workID uuid.UUID, studentIDs []uuid.UUID) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Delete(t.students).Where(squirrel.Eq{t.fk: workID}).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build clear students query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error clearing assigned students: %w", err)
		}
		return r.insertStudents(ctx, tx, t, workID, studentIDs)
	})
}

func (r *CourseworkRepository) insertStudents(ctx context.Context, conn querier, t workTables, workID uuid.UUID, studentIDs []uuid.UUID) error {
	if len(studentIDs) == 0 {
		return nil
	}
	q := r.sb.Insert(t.students).Columns(t.fk, "student_id")
	for _, id := range studentIDs {
		q = q.Values(workID, id)
	}
	sql, args, err := q.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("failed to build assign students query: %w", err)
	}
	if _, err := conn.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("table", t.students).Str("workID", workID.String()).Msg("Error assigning students")
		return dberrors.Translate(err, apperrors.ErrUserNotFound)
	}
	return nil
}

// ListStudents returns the student ids assigned to a piece of work.
func (r *CourseworkRepository) ListStudents(ctx context.Context, kind models.WorkKind, workID uuid.UUID) ([]uuid.UUID, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	sql, args, err := r.sb.Select("student_id").From(t.students).Where(squirrel.Eq{t.fk: workID}).OrderBy("student_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list students query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing assigned students: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

// IsAssigned reports whether the student is assigned the work.
func (r *CourseworkRepository) IsAssigned(ctx context.Context, kind models.WorkKind, workID, studentID uuid.UUID) (bool, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return false, err
	}
	sql, args, err := r.sb.Select("1").From(t.students).
		Where(squirrel.Eq{t.fk: workID, "student_id": studentID}).Prefix("SELECT EXISTS(").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build assigned check query: %w", err)
	}
	var ok bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("error checking assignment: %w", err)
	}
	return ok, nil
}

func (r *CourseworkRepository) submissionColumns(t workTables) []string {
	return []string{"id", t.fk, "student_id", "content", "answers", "grade", "feedback", "submitted_at", "graded_at", "graded_by"}
}

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	var s models.Submission
	var answers []byte
	err := row.Scan(&s.ID, &s.WorkID, &s.StudentID, &s.Content, &answers, &s.Grade, &s.Feedback,
		&s.SubmittedAt, &s.GradedAt, &s.GradedBy)
	if err != nil {
		return nil, err
	}
	s.Answers = answers
	return &s, nil
}

// CreateSubmission records a student's single submission for a piece of work.
func (r *CourseworkRepository) CreateSubmission(ctx context.Context, kind models.WorkKind, s *models.Submission) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	sql, args, err := r.sb.Insert(t.submissions).
		Columns("id", t.fk, "student_id", "content", "answers").
		Values(s.ID, s.WorkID, s.StudentID, s.Content, jsonbArg(s.Answers)).
		Suffix("RETURNING submitted_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create submission query: %w", err)
	}

	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, sql, args...).Scan(&s.SubmittedAt); err != nil {
			if dberrors.IsDuplicateConstraintError(err, t.uniqueKey) {
				return apperrors.ErrAlreadySubmitted
			}
			logger.Error().Err(err).Str("workID", s.WorkID.String()).Msg("Error creating submission")
			return dberrors.Translate(err, apperrors.ErrResourceNotFound)
		}

		for i := range s.Attachments {
			s.Attachments[i].ResourceType = models.ResourceSubmission
			s.Attachments[i].ResourceID = s.ID
			s.Attachments[i].UploadedBy = s.StudentID
			s.Attachments[i].CreatedAt = s.SubmittedAt
		}
		return insertAttachments(ctx, tx, r.sb, s.Attachments)
	})
}

// GetSubmission retrieves one submission of the given kind.
func (r *CourseworkRepository) GetSubmission(ctx context.Context, kind models.WorkKind, id uuid.UUID) (*models.Submission, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	sql, args, err := r.sb.Select(r.submissionColumns(t)...).From(t.submissions).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get submission query: %w", err)
	}
	s, err := scanSubmission(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("error retrieving submission: %w", err)
	}
	attachments, err := listAttachments(ctx, r.db, r.sb, models.ResourceSubmission, []uuid.UUID{s.ID})
	if err != nil {
		return nil, err
	}
	s.Attachments = attachments
	return s, nil
}

// ListSubmissions returns the submissions of a piece of work, optionally only
// those of one student.
func (r *CourseworkRepository) ListSubmissions(ctx context.Context, kind models.WorkKind, workID uuid.UUID, studentID *uuid.UUID) ([]models.Submission, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	q := r.sb.Select(r.submissionColumns(t)...).From(t.submissions).Where(squirrel.Eq{t.fk: workID})
	if studentID != nil {
		q = q.Where(squirrel.Eq{"student_id": *studentID})
	}
	sql, args, err := q.OrderBy("submitted_at ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list submissions query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing submissions: %w", err)
	}
	defer rows.Close()

	out := make([]models.Submission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning submission: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}
	rows.Close()

	if len(out) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(out))
	index := make(map[uuid.UUID]int, len(out))
	for i := range out {
		ids[i] = out[i].ID
		index[out[i].ID] = i
	}
	attachments, err := listAttachments(ctx, r.db, r.sb, models.ResourceSubmission, ids)
	if err != nil {
		return nil, err
	}
	for _, a := range attachments {
		i := index[a.ResourceID]
		out[i].Attachments = append(out[i].Attachments, a)
	}
	return out, nil
}

// GradeSubmission stores a grade and feedback.
func (r *CourseworkRepository) GradeSubmission(ctx context.Context, kind models.WorkKind, id uuid.UUID, grade float64, feedback *string, gradedBy uuid.UUID, at time.Time) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}
	sql, args, err := r.sb.Update(t.submissions).
		Set("grade", grade).
		Set("feedback", feedback).
		Set("graded_by", gradedBy).
		Set("graded_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build grade submission query: %w", err)
	}
	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("submissionID", id.String()).Msg("Error grading submission")
		return fmt.Errorf("error grading submission: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrSubmissionNotFound
	}
	return nil
}
