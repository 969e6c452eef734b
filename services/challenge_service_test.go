package services

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/gladiator-fit/backend/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChallengeEnv() (ChallengeService, *memStore) {
	store := newMemStore()
	svc := NewChallengeService(&fakeChallengeRepo{s: store}, &fakeUserRepo{s: store},
		rand.New(rand.NewSource(7)))
	return svc, store
}

func seedChallengeRow(store *memStore, title string, level models.FitnessLevel, active bool) *models.Challenge {
	challenge := &models.Challenge{
		ID:         uuid.NewString(),
		Title:      title,
		Difficulty: level,
		Active:     active,
	}
	store.challenges[challenge.ID] = challenge
	return challenge
}

func TestListFiltersByDifficulty(t *testing.T) {
	svc, store := newChallengeEnv()
	seedChallengeRow(store, "Push-Up Burnout", models.FitnessBeginner, true)
	seedChallengeRow(store, "Muscle-Up Challenge", models.FitnessAdvanced, true)
	seedChallengeRow(store, "Retired Drill", models.FitnessBeginner, false)

	beginner := models.FitnessBeginner
	challenges, err := svc.List(context.Background(), &beginner, 20)
	require.NoError(t, err)
	require.Len(t, challenges, 1)
	assert.Equal(t, "Push-Up Burnout", challenges[0].Title)

	challenges, err = svc.List(context.Background(), nil, 20)
	require.NoError(t, err)
	assert.Len(t, challenges, 2)
}

func TestListRejectsUnknownDifficulty(t *testing.T) {
	svc, _ := newChallengeEnv()

	bogus := models.FitnessLevel("Superhuman")
	_, err := svc.List(context.Background(), &bogus, 20)
	assert.ErrorIs(t, err, ErrInvalidFitnessLevel)
}

func TestGetInactiveChallenge(t *testing.T) {
	svc, store := newChallengeEnv()
	retired := seedChallengeRow(store, "Retired Drill", models.FitnessBeginner, false)

	_, err := svc.Get(context.Background(), retired.ID)
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestDailyPoolMatchesUserLevel(t *testing.T) {
	svc, store := newChallengeEnv()
	for i := 0; i < 8; i++ {
		seedChallengeRow(store, fmt.Sprintf("Intermediate %d", i), models.FitnessIntermediate, true)
	}
	seedChallengeRow(store, "Advanced Only", models.FitnessAdvanced, true)

	userRepo := &fakeUserRepo{s: store}
	user := &models.User{
		Email:        "pool@example.com",
		PasswordHash: "hash",
		DisplayName:  "Pool",
		FitnessLevel: models.FitnessIntermediate,
	}
	require.NoError(t, userRepo.Create(context.Background(), user))

	pool, err := svc.DailyPool(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, pool, 5)
	for _, challenge := range pool {
		assert.Equal(t, models.FitnessIntermediate, challenge.Difficulty)
	}
}

func TestDailyPoolUnknownUser(t *testing.T) {
	svc, _ := newChallengeEnv()

	_, err := svc.DailyPool(context.Background(), "44444444-4444-4444-4444-444444444444")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
