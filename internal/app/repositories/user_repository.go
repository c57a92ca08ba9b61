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
	"github.com/yigit/classroom/internal/db"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/dberrors"
	"github.com/yigit/classroom/internal/pkg/logger"
)

var userColumns = []string{
	"u.id", "u.email", "u.password_hash", "u.full_name", "u.role",
	"u.avatar_url", "u.is_active", "u.created_at", "u.updated_at",
}

// UserRepository handles users and their teacher or student profile rows.
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role,
		&u.AvatarURL, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateWithProfile inserts the user and, depending on its role, the teacher
// or student profile row in one transaction.
func (r *UserRepository) CreateWithProfile(ctx context.Context, user *models.User, teacher *models.Teacher, student *models.Student) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("users").
			Columns("id", "email", "password_hash", "full_name", "role", "avatar_url", "is_active").
			Values(user.ID, user.Email, user.PasswordHash, user.FullName, user.Role, user.AvatarURL, user.IsActive).
			Suffix("RETURNING created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create user query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
			if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
				logger.Warn().Str("email", user.Email).Msg("Attempted to create user with duplicate email")
				return apperrors.ErrEmailAlreadyExists
			}
			logger.Error().Err(err).Str("email", user.Email).Msg("Error executing create user query")
			return fmt.Errorf("error creating user: %w", err)
		}

		switch {
		case user.Role == models.RoleTeacher && teacher != nil:
			teacher.UserID = user.ID
			sql, args, err = r.sb.Insert("teachers").
				Columns("user_id", "department", "bio").
				Values(teacher.UserID, teacher.Department, teacher.Bio).
				ToSql()
		case user.Role == models.RoleStudent && student != nil:
			student.UserID = user.ID
			sql, args, err = r.sb.Insert("students").
				Columns("user_id", "student_number", "grade_level").
				Values(student.UserID, student.StudentNumber, student.GradeLevel).
				ToSql()
		default:
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to build create profile query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			if dberrors.IsDuplicateConstraintError(err, "students_student_number_key") {
				return apperrors.NewConflictError("Student number already in use")
			}
			logger.Error().Err(err).Str("userID", user.ID.String()).Msg("Error creating user profile")
			return fmt.Errorf("error creating profile: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users u").Where(squirrel.Eq{"u.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}
	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Str("userID", id.String()).Msg("Error retrieving user")
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users u").Where("lower(u.email) = lower(?)", email).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}
	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Str("email", email).Msg("Error retrieving user by email")
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return user, nil
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking email: %w", err)
	}
	return exists, nil
}

// GetTeacherProfile returns the teacher row of a user.
func (r *UserRepository) GetTeacherProfile(ctx context.Context, userID uuid.UUID) (*models.Teacher, error) {
	var t models.Teacher
	err := r.db.QueryRow(ctx, `SELECT user_id, department, bio FROM teachers WHERE user_id = $1`, userID).
		Scan(&t.UserID, &t.Department, &t.Bio)
	if err != nil {
		return nil, dberrors.Translate(err, apperrors.ErrUserNotFound)
	}
	return &t, nil
}

// GetStudentProfile returns the student row of a user.
func (r *UserRepository) GetStudentProfile(ctx context.Context, userID uuid.UUID) (*models.Student, error) {
	var s models.Student
	err := r.db.QueryRow(ctx, `SELECT user_id, student_number, grade_level FROM students WHERE user_id = $1`, userID).
		Scan(&s.UserID, &s.StudentNumber, &s.GradeLevel)
	if err != nil {
		return nil, dberrors.Translate(err, apperrors.ErrUserNotFound)
	}
	return &s, nil
}

// ListByRole returns a page of active users with the given role, optionally
// filtered by name or email.
func (r *UserRepository) ListByRole(ctx context.Context, role models.Role, query string, offset, limit uint64) ([]models.User, int64, error) {
	where := squirrel.And{squirrel.Eq{"u.role": role}, squirrel.Eq{"u.is_active": true}}
	if query != "" {
		pattern := "%" + query + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"u.full_name": pattern},
			squirrel.ILike{"u.email": pattern},
		})
	}

	countSQL, countArgs, err := r.sb.Select("count(*)").From("users u").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count users query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Str("role", string(role)).Msg("Error counting users")
		return nil, 0, fmt.Errorf("error counting users: %w", err)
	}

	sql, args, err := r.sb.Select(userColumns...).From("users u").Where(where).
		OrderBy("u.full_name ASC").Offset(offset).Limit(limit).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list users query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("role", string(role)).Msg("Error listing users")
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

// ListByIDs returns the users with the given ids. Unknown ids are skipped.
func (r *UserRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	sql, args, err := r.sb.Select(userColumns...).From("users u").
		Where(squirrel.Eq{"u.id": ids}).OrderBy("u.full_name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list users query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0, len(ids))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CountByRole returns the number of users holding role.
func (r *UserRepository) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users WHERE role = $1`, role).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return n, nil
}
