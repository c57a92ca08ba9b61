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

var assignmentColumns = []string{
	"a.id", "a.course_id", "a.title", "a.description", "a.due_date", "a.total_marks",
	"a.created_by", "a.created_at", "a.updated_at",
}

// AssignmentRepository handles assignment rows.
type AssignmentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanAssignment(row pgx.Row) (*models.Assignment, error) {
	var a models.Assignment
	err := row.Scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &a.DueDate, &a.TotalMarks,
		&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an assignment row.
func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	sql, args, err := r.sb.Insert("assignments").
		Columns("id", "course_id", "title", "description", "due_date", "total_marks", "created_by").
		Values(a.ID, a.CourseID, a.Title, a.Description, a.DueDate, a.TotalMarks, a.CreatedBy).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create assignment query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		logger.Error().Err(err).Str("courseID", a.CourseID.String()).Msg("Error executing create assignment query")
		return dberrors.Translate(err, apperrors.ErrCourseNotFound)
	}
	return nil
}

// GetByID retrieves an assignment by ID
func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	sql, args, err := r.sb.Select(assignmentColumns...).From("assignments a").Where(squirrel.Eq{"a.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get assignment query: %w", err)
	}
	a, err := scanAssignment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("error retrieving assignment: %w", err)
	}
	return a, nil
}

// List returns assignments matching filter ordered by due date.
func (r *AssignmentRepository) List(ctx context.Context, filter dto.WorkFilter) ([]models.Assignment, error) {
	q := r.sb.Select(assignmentColumns...).From("assignments a")
	if filter.CourseID != nil {
		q = q.Where(squirrel.Eq{"a.course_id": *filter.CourseID})
	}
	if filter.StudentID != nil {
		q = q.Where(squirrel.Expr(
			"(EXISTS (SELECT 1 FROM assignment_students x WHERE x.assignment_id = a.id AND x.student_id = ?)"+
				" OR (NOT EXISTS (SELECT 1 FROM assignment_students y WHERE y.assignment_id = a.id)"+
				" AND EXISTS (SELECT 1 FROM enrollments e WHERE e.course_id = a.course_id AND e.student_id = ?)))",
			*filter.StudentID, *filter.StudentID))
	}
	if filter.TeacherID != nil {
		q = q.Join("courses c ON c.id = a.course_id").Where(squirrel.Eq{"c.teacher_id": *filter.TeacherID})
	}
	sql, args, err := q.OrderBy("a.due_date ASC NULLS LAST", "a.created_at ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list assignments query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing assignments")
		return nil, fmt.Errorf("error listing assignments: %w", err)
	}
	defer rows.Close()

	out := make([]models.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning assignment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Update writes the mutable assignment columns.
func (r *AssignmentRepository) Update(ctx context.Context, a *models.Assignment) error {
	sql, args, err := r.sb.Update("assignments").
		Set("title", a.Title).
		Set("description", a.Description).
		Set("due_date", a.DueDate).
		Set("total_marks", a.TotalMarks).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": a.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update assignment query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrAssignmentNotFound
		}
		return fmt.Errorf("error updating assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment and its child rows.
func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting assignment: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAssignmentNotFound
	}
	return nil
}
