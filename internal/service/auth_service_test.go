package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trade-journal/internal/config"
	"github.com/trade-journal/internal/repository"
	"gorm.io/gorm"
)

func newAuthService(db *gorm.DB) *AuthService {
	return NewAuthService(repository.NewUserRepository(db), config.JWTConfig{
		Secret:      "test-secret",
		ExpireHours: 1,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	user, err := svc.Register(&RegisterRequest{
		Username: "trader",
		Email:    "trader@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	token, err := svc.Login(&LoginRequest{Username: "trader", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, 3600, token.ExpiresIn)

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "trader", claims.Username)
}

func TestLoginByEmail(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	_, err := svc.Register(&RegisterRequest{
		Username: "trader",
		Email:    "trader@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.Login(&LoginRequest{Username: "trader@example.com", Password: "secret123"})
	assert.NoError(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	_, err := svc.Register(&RegisterRequest{
		Username: "trader",
		Email:    "trader@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.Login(&LoginRequest{Username: "trader", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(&LoginRequest{Username: "nobody", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicates(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	_, err := svc.Register(&RegisterRequest{
		Username: "trader",
		Email:    "trader@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.Register(&RegisterRequest{
		Username: "trader",
		Email:    "other@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Register(&RegisterRequest{
		Username: "other",
		Email:    "trader@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRefreshToken(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	_, err := svc.Register(&RegisterRequest{
		Username: "trader",
		Email:    "trader@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	token, err := svc.Login(&LoginRequest{Username: "trader", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(token.AccessToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.RefreshToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
