package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/auth"
)

func newAuthFixture(t *testing.T) (*harness, *AuthService, *dto.UserResponse) {
	t.Helper()
	h := newHarness()
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "classroom-test",
	})
	dept := "Maths"
	user, err := NewUserService(h.users, h.logger).CreateUser(context.Background(), &dto.CreateUserRequest{
		Email:      " Ada@Example.com ",
		Password:   "correct-horse",
		FullName:   "Ada",
		Role:       models.RoleTeacher,
		Department: &dept,
	})
	require.NoError(t, err)
	return h, NewAuthService(h.users, h.tokens, jwtService, h.logger), user
}

func TestLogin(t *testing.T) {
	h, svc, user := newAuthFixture(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)
	assert.Equal(t, "Maths", *res.User.Department)
	assert.Equal(t, "Bearer", res.Token.TokenType)
	assert.Contains(t, h.tokens.tokens, res.Token.RefreshToken)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	h.users.users[user.ID].IsActive = false
	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
}

func TestRefreshToken_Rotates(t *testing.T) {
	_, svc, _ := newAuthFixture(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	next, err := svc.RefreshToken(ctx, res.Token.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.Token.RefreshToken, next.RefreshToken)

	_, err = svc.RefreshToken(ctx, res.Token.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	_, err = svc.RefreshToken(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

// staleTokens answers lookups as if no revocation had happened yet, like a
// concurrent refresh that read the token before the other one revoked it.
type staleTokens struct {
	*fakeTokens
}

func (s staleTokens) GetTokenByValue(_ context.Context, token string) (uuid.UUID, error) {
	id, ok := s.tokens[token]
	if !ok {
		return uuid.Nil, apperrors.ErrTokenNotFound
	}
	return id, nil
}

func TestRefreshToken_ConcurrentRotationHasOneWinner(t *testing.T) {
	h, svc, _ := newAuthFixture(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	racing := NewAuthService(h.users, staleTokens{h.tokens}, svc.jwtService, h.logger)
	_, err = racing.RefreshToken(ctx, res.Token.RefreshToken)
	require.NoError(t, err)

	_, err = racing.RefreshToken(ctx, res.Token.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
}

func TestLogout(t *testing.T) {
	h, svc, user := newAuthFixture(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "unknown-token"))
	require.NoError(t, svc.Logout(ctx, res.Token.RefreshToken))
	assert.True(t, h.tokens.revoked[res.Token.RefreshToken])

	again, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	require.NoError(t, svc.LogoutAll(ctx, user.ID))
	assert.True(t, h.tokens.revoked[again.Token.RefreshToken])
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	h, _, _ := newAuthFixture(t)

	_, err := NewUserService(h.users, h.logger).CreateUser(context.Background(), &dto.CreateUserRequest{
		Email: "ada@example.com", Password: "another-pass", FullName: "Ada Two", Role: models.RoleStudent,
	})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}
