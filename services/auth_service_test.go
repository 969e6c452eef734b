package services

import (
	"context"
	"testing"

	"github.com/gladiator-fit/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthEnv() (AuthService, *memStore) {
	store := newMemStore()
	return NewAuthService(&fakeUserRepo{s: store}), store
}

func TestRegisterAndLogin(t *testing.T) {
	auth, _ := newAuthEnv()

	user, err := auth.Register(context.Background(), RegisterInput{
		Email:        "  Maximus@Example.COM ",
		Password:     "strength-and-honor",
		DisplayName:  " Maximus ",
		FitnessLevel: models.FitnessAdvanced,
	})
	require.NoError(t, err)
	assert.Equal(t, "maximus@example.com", user.Email)
	assert.Equal(t, "Maximus", user.DisplayName)
	assert.Equal(t, models.TierBronze, user.Tier)
	assert.Equal(t, 1, user.Level)
	assert.Equal(t, 0, user.Points)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("strength-and-honor")))

	logged, err := auth.Login(context.Background(), LoginInput{
		Email:    "maximus@example.com",
		Password: "strength-and-honor",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
}

func TestRegisterShortPassword(t *testing.T) {
	auth, _ := newAuthEnv()

	_, err := auth.Register(context.Background(), RegisterInput{
		Email:        "a@example.com",
		Password:     "short",
		DisplayName:  "A",
		FitnessLevel: models.FitnessBeginner,
	})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterInvalidFitnessLevel(t *testing.T) {
	auth, _ := newAuthEnv()

	_, err := auth.Register(context.Background(), RegisterInput{
		Email:        "a@example.com",
		Password:     "longenough",
		DisplayName:  "A",
		FitnessLevel: models.FitnessLevel("Elite"),
	})
	assert.ErrorIs(t, err, ErrInvalidFitnessLevel)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	auth, _ := newAuthEnv()

	input := RegisterInput{
		Email:        "taken@example.com",
		Password:     "longenough",
		DisplayName:  "First",
		FitnessLevel: models.FitnessBeginner,
	}
	_, err := auth.Register(context.Background(), input)
	require.NoError(t, err)

	input.DisplayName = "Second"
	_, err = auth.Register(context.Background(), input)
	assert.ErrorIs(t, err, ErrAuthEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	auth, _ := newAuthEnv()

	_, err := auth.Register(context.Background(), RegisterInput{
		Email:        "b@example.com",
		Password:     "rightpassword",
		DisplayName:  "B",
		FitnessLevel: models.FitnessBeginner,
	})
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), LoginInput{Email: "b@example.com", Password: "wrongpassword"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	auth, _ := newAuthEnv()

	_, err := auth.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)
}
