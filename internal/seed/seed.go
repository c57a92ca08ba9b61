package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appModels "github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/auth"
)

// UserStore is the part of the user repository seeding needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*appModels.User, error)
	CreateWithProfile(ctx context.Context, user *appModels.User, teacher *appModels.Teacher, student *appModels.Student) error
}

// Admin describes the default administrator account.
type Admin struct {
	Email    string
	Password string
	Name     string
}

// CreateDefaultData makes sure the default administrator exists. It returns
// true when the account was created by this call.
func CreateDefaultData(ctx context.Context, users UserStore, admin Admin, lgr zerolog.Logger) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" || admin.Password == "" {
		lgr.Warn().Msg("Seed admin credentials not configured, skipping default data")
		return false, nil
	}

	lgr.Info().Str("email", email).Msg("Checking/Creating default administrator...")
	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != appModels.RoleAdmin {
			lgr.Warn().Str("email", email).Str("role", string(existing.Role)).Msg("Seed admin email belongs to a non-admin account")
		}
		return false, nil
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return false, fmt.Errorf("error looking up seed admin: %w", err)
	}

	hash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return false, fmt.Errorf("error hashing seed admin password: %w", err)
	}

	user := &appModels.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     admin.Name,
		Role:         appModels.RoleAdmin,
		IsActive:     true,
	}
	if err := users.CreateWithProfile(ctx, user, nil, nil); err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return false, nil
		}
		return false, fmt.Errorf("error creating seed admin: %w", err)
	}

	lgr.Info().Str("email", email).Str("userID", user.ID.String()).Msg("Default administrator created")
	return true, nil
}
