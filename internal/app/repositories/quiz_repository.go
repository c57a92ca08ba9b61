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
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/dberrors"
	"github.com/yigit/classroom/internal/pkg/logger"
)

var quizColumns = []string{
	"q.id", "q.course_id", "q.title", "q.description", "q.due_date", "q.total_marks",
	"q.duration_minutes", "q.questions", "q.created_by", "q.created_at", "q.updated_at",
}

// QuizRepository handles quiz rows.
type QuizRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewQuizRepository creates a new QuizRepository
func NewQuizRepository(db *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanQuiz(row pgx.Row) (*models.Quiz, error) {
	var q models.Quiz
	var questions []byte
	err := row.Scan(&q.ID, &q.CourseID, &q.Title, &q.Description, &q.DueDate, &q.TotalMarks,
		&q.DurationMinutes, &questions, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	q.Questions = questions
	return &q, nil
}

// jsonbArg passes an optional JSON document to a jsonb column.
func jsonbArg(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// Create inserts a quiz row.
func (r *QuizRepository) Create(ctx context.Context, q *models.Quiz) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	sql, args, err := r.sb.Insert("quizzes").
		Columns("id", "course_id", "title", "description", "due_date", "total_marks",
			"duration_minutes", "questions", "created_by").
		Values(q.ID, q.CourseID, q.Title, q.Description, q.DueDate, q.TotalMarks,
			q.DurationMinutes, jsonbArg(q.Questions), q.CreatedBy).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create quiz query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&q.CreatedAt, &q.UpdatedAt); err != nil {
		logger.Error().Err(err).Str("courseID", q.CourseID.String()).Msg("Error executing create quiz query")
		return dberrors.Translate(err, apperrors.ErrCourseNotFound)
	}
	return nil
}

// GetByID retrieves a quiz by ID
func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	sql, args, err := r.sb.Select(quizColumns...).From("quizzes q").Where(squirrel.Eq{"q.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get quiz query: %w", err)
	}
	q, err := scanQuiz(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrQuizNotFound
		}
		return nil, fmt.Errorf("error retrieving quiz: %w", err)
	}
	return q, nil
}

// List returns quizzes matching filter ordered by due date.
func (r *QuizRepository) List(ctx context.Context, filter dto.WorkFilter) ([]models.Quiz, error) {
	b := r.sb.Select(quizColumns...).From("quizzes q")
	if filter.CourseID != nil {
		b = b.Where(squirrel.Eq{"q.course_id": *filter.CourseID})
	}
	if filter.StudentID != nil {
		b = b.Where(squirrel.Expr(
			"(EXISTS (SELECT 1 FROM quiz_students x WHERE x.quiz_id = q.id AND x.student_id = ?)"+
				" OR (NOT EXISTS (SELECT 1 FROM quiz_students y WHERE y.quiz_id = q.id)"+
				" AND EXISTS (SELECT 1 FROM enrollments e WHERE e.course_id = q.course_id AND e.student_id = ?)))",
			*filter.StudentID, *filter.StudentID))
	}
	if filter.TeacherID != nil {
		b = b.Join("courses c ON c.id = q.course_id").Where(squirrel.Eq{"c.teacher_id": *filter.TeacherID})
	}
	sql, args, err := b.OrderBy("q.due_date ASC NULLS LAST", "q.created_at ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list quizzes query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing quizzes")
		return nil, fmt.Errorf("error listing quizzes: %w", err)
	}
	defer rows.Close()

	out := make([]models.Quiz, 0)
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning quiz: %w", err)
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

// Update writes the mutable quiz columns.
func (r *QuizRepository) Update(ctx context.Context, q *models.Quiz) error {
	sql, args, err := r.sb.Update("quizzes").
		Set("title", q.Title).
		Set("description", q.Description).
		Set("due_date", q.DueDate).
		Set("total_marks", q.TotalMarks).
		Set("duration_minutes", q.DurationMinutes).
		Set("questions", jsonbArg(q.Questions)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": q.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update quiz query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&q.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrQuizNotFound
		}
		return fmt.Errorf("error updating quiz: %w", err)
	}
	return nil
}

// Delete removes a quiz and its child rows.
func (r *QuizRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting quiz: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrQuizNotFound
	}
	return nil
}
