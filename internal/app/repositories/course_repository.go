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

var courseColumns = []string{
	"c.id", "c.teacher_id", "c.title", "c.description", "c.category", "c.thumbnail_url",
	"c.start_date", "c.end_date", "c.created_at", "c.updated_at",
}

// CourseRepository handles courses and enrollments.
type CourseRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	var c models.Course
	err := row.Scan(&c.ID, &c.TeacherID, &c.Title, &c.Description, &c.Category, &c.ThumbnailURL,
		&c.StartDate, &c.EndDate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a course row.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	sql, args, err := r.sb.Insert("courses").
		Columns("id", "teacher_id", "title", "description", "category", "thumbnail_url", "start_date", "end_date").
		Values(course.ID, course.TeacherID, course.Title, course.Description, course.Category,
			course.ThumbnailURL, course.StartDate, course.EndDate).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create course query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&course.CreatedAt, &course.UpdatedAt); err != nil {
		logger.Error().Err(err).Str("teacherID", course.TeacherID.String()).Msg("Error executing create course query")
		return dberrors.Translate(err, apperrors.ErrUserNotFound)
	}
	return nil
}

// GetByID retrieves a course by ID
func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns...).From("courses c").Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}
	course, err := scanCourse(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Str("courseID", id.String()).Msg("Error retrieving course")
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}
	return course, nil
}

// GetDetail returns a course with its child counters.
func (r *CourseRepository) GetDetail(ctx context.Context, id uuid.UUID) (*dto.CourseDetail, error) {
	cols := append(append([]string{}, courseColumns...),
		"(SELECT count(*) FROM enrollments e WHERE e.course_id = c.id)",
		"(SELECT count(*) FROM course_sessions s WHERE s.course_id = c.id)",
		"(SELECT count(*) FROM assignments a WHERE a.course_id = c.id)",
		"(SELECT count(*) FROM quizzes q WHERE q.course_id = c.id)",
	)
	sql, args, err := r.sb.Select(cols...).From("courses c").Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build course detail query: %w", err)
	}

	var d dto.CourseDetail
	c := &d.Course
	err = r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.TeacherID, &c.Title, &c.Description, &c.Category,
		&c.ThumbnailURL, &c.StartDate, &c.EndDate, &c.CreatedAt, &c.UpdatedAt,
		&d.StudentCount, &d.SessionCount, &d.AssignmentCount, &d.QuizCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("error retrieving course detail: %w", err)
	}
	return &d, nil
}

// List returns a page of courses matching filter, newest first.
func (r *CourseRepository) List(ctx context.Context, filter dto.CourseFilter, offset, limit uint64) ([]models.Course, int64, error) {
	where := squirrel.And{}
	if filter.Query != "" {
		where = append(where, squirrel.ILike{"c.title": "%" + filter.Query + "%"})
	}
	if filter.TeacherID != nil {
		where = append(where, squirrel.Eq{"c.teacher_id": *filter.TeacherID})
	}
	if filter.StudentID != nil {
		where = append(where, squirrel.Expr(
			"EXISTS (SELECT 1 FROM enrollments e WHERE e.course_id = c.id AND e.student_id = ?)", *filter.StudentID))
	}

	countSQL, countArgs, err := r.sb.Select("count(*)").From("courses c").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count courses query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting courses")
		return nil, 0, fmt.Errorf("error counting courses: %w", err)
	}

	sql, args, err := r.sb.Select(courseColumns...).From("courses c").Where(where).
		OrderBy("c.start_date DESC", "c.created_at DESC").Offset(offset).Limit(limit).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list courses query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing courses")
		return nil, 0, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()

	courses := make([]models.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning course: %w", err)
		}
		courses = append(courses, *c)
	}
	return courses, total, rows.Err()
}

// Update writes the mutable course columns.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	sql, args, err := r.sb.Update("courses").
		Set("title", course.Title).
		Set("description", course.Description).
		Set("category", course.Category).
		Set("thumbnail_url", course.ThumbnailURL).
		Set("start_date", course.StartDate).
		Set("end_date", course.EndDate).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": course.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update course query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&course.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Str("courseID", course.ID.String()).Msg("Error updating course")
		return fmt.Errorf("error updating course: %w", err)
	}
	return nil
}

// Delete removes a course; child rows go with it.
func (r *CourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		logger.Error().Err(err).Str("courseID", id.String()).Msg("Error deleting course")
		return fmt.Errorf("error deleting course: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	return nil
}

// Enroll adds students to a course, skipping existing enrollments. It returns
// the number of new rows.
func (r *CourseRepository) Enroll(ctx context.Context, courseID uuid.UUID, studentIDs []uuid.UUID) (int64, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	q := r.sb.Insert("enrollments").Columns("course_id", "student_id")
	for _, id := range studentIDs {
		q = q.Values(courseID, id)
	}
	sql, args, err := q.Suffix("ON CONFLICT (course_id, student_id) DO NOTHING").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build enroll query: %w", err)
	}
	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, dberrors.Translate(err, apperrors.ErrUserNotFound)
	}
	return cmdTag.RowsAffected(), nil
}

// Unenroll removes one enrollment.
func (r *CourseRepository) Unenroll(ctx context.Context, courseID, studentID uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM enrollments WHERE course_id = $1 AND student_id = $2`, courseID, studentID)
	if err != nil {
		return fmt.Errorf("error removing enrollment: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("Student is not enrolled in this course")
	}
	return nil
}

// IsEnrolled reports whether the student is enrolled in the course.
func (r *CourseRepository) IsEnrolled(ctx context.Context, courseID, studentID uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM enrollments WHERE course_id = $1 AND student_id = $2)`,
		courseID, studentID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("error checking enrollment: %w", err)
	}
	return ok, nil
}

// ListStudents returns the users enrolled in a course.
func (r *CourseRepository) ListStudents(ctx context.Context, courseID uuid.UUID) ([]models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users u").
		Join("enrollments e ON e.student_id = u.id").
		Where(squirrel.Eq{"e.course_id": courseID}).
		OrderBy("u.full_name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list course students query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing course students: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
