package services

import (
	"context"
	"testing"

	"github.com/gladiator-fit/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formActiveBattle(t *testing.T) (*testEnv, *models.Battle) {
	t.Helper()

	env := newTestEnv(t)
	env.seedChallenge(t, "Pull-Up Ladder", models.FitnessBeginner)
	users := env.seedCohort(t, 10)
	for _, user := range users {
		_, err := env.matchmaking.Enroll(context.Background(), user.ID)
		require.NoError(t, err)
	}
	for _, battle := range env.store.battles {
		copied := *battle
		return env, &copied
	}
	t.Fatal("no battle formed")
	return nil, nil
}

func TestSubmitVideoFlipsBattleToVoting(t *testing.T) {
	env, battle := formActiveBattle(t)

	result, err := env.battles.SubmitVideo(context.Background(), battle.ID, battle.User1ID, "https://cdn.example.com/one.mp4")
	require.NoError(t, err)
	assert.False(t, result.ReadyForVoting)
	assert.Equal(t, models.BattleStatusActive, env.store.battles[battle.ID].Status)

	result, err = env.battles.SubmitVideo(context.Background(), battle.ID, battle.User2ID, "https://cdn.example.com/two.mp4")
	require.NoError(t, err)
	assert.True(t, result.ReadyForVoting)

	stored := env.store.battles[battle.ID]
	assert.Equal(t, models.BattleStatusPending, stored.Status)
	require.NotNil(t, stored.User1VideoURL)
	require.NotNil(t, stored.User2VideoURL)
	assert.Equal(t, "https://cdn.example.com/one.mp4", *stored.User1VideoURL)
	assert.Equal(t, "https://cdn.example.com/two.mp4", *stored.User2VideoURL)

	require.Len(t, env.store.uploads, 2)
}

func TestSubmitVideoReplacesOwnSide(t *testing.T) {
	env, battle := formActiveBattle(t)

	_, err := env.battles.SubmitVideo(context.Background(), battle.ID, battle.User1ID, "https://cdn.example.com/first-take.mp4")
	require.NoError(t, err)
	result, err := env.battles.SubmitVideo(context.Background(), battle.ID, battle.User1ID, "https://cdn.example.com/second-take.mp4")
	require.NoError(t, err)
	assert.False(t, result.ReadyForVoting)

	stored := env.store.battles[battle.ID]
	require.NotNil(t, stored.User1VideoURL)
	assert.Equal(t, "https://cdn.example.com/second-take.mp4", *stored.User1VideoURL)
	assert.Nil(t, stored.User2VideoURL)
}

func TestSubmitVideoNonParticipant(t *testing.T) {
	env, battle := formActiveBattle(t)

	outsider := env.seedUser(t, "outsider", models.FitnessBeginner)
	_, err := env.battles.SubmitVideo(context.Background(), battle.ID, outsider.ID, "https://cdn.example.com/x.mp4")
	assert.ErrorIs(t, err, ErrNotBattleParticipant)
}

func TestSubmitVideoAfterVotingOpened(t *testing.T) {
	env, battle := formActiveBattle(t)

	_, err := env.battles.SubmitVideo(context.Background(), battle.ID, battle.User1ID, "https://cdn.example.com/one.mp4")
	require.NoError(t, err)
	_, err = env.battles.SubmitVideo(context.Background(), battle.ID, battle.User2ID, "https://cdn.example.com/two.mp4")
	require.NoError(t, err)

	_, err = env.battles.SubmitVideo(context.Background(), battle.ID, battle.User1ID, "https://cdn.example.com/late.mp4")
	assert.ErrorIs(t, err, ErrBattleNotActive)
}

func TestSubmitVideoUnknownBattle(t *testing.T) {
	env, _ := formActiveBattle(t)

	_, err := env.battles.SubmitVideo(context.Background(),
		"22222222-2222-2222-2222-222222222222", "irrelevant", "https://cdn.example.com/x.mp4")
	assert.ErrorIs(t, err, ErrBattleNotFound)
}

func TestGetDetailForParticipant(t *testing.T) {
	env, battle := formActiveBattle(t)

	detail, err := env.battles.GetDetail(context.Background(), battle.ID, battle.User1ID)
	require.NoError(t, err)
	assert.Equal(t, battle.ID, detail.Battle.ID)
	require.NotNil(t, detail.Challenge)
	assert.Equal(t, "Pull-Up Ladder", detail.Challenge.Title)
	assert.Equal(t, battle.User1ID, detail.CurrentUser.ID)
	assert.Equal(t, battle.User2ID, detail.Opponent.ID)
}

func TestGetDetailHiddenFromOutsiders(t *testing.T) {
	env, battle := formActiveBattle(t)

	outsider := env.seedUser(t, "spectator", models.FitnessBeginner)
	_, err := env.battles.GetDetail(context.Background(), battle.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrBattleNotFound)
}

func TestListLiveBattles(t *testing.T) {
	env, battle := formActiveBattle(t)

	battles, err := env.battles.ListLiveBattles(context.Background(), battle.User1ID)
	require.NoError(t, err)
	require.Len(t, battles, 1)
	assert.Equal(t, battle.ID, battles[0].ID)

	outsider := env.seedUser(t, "idle", models.FitnessBeginner)
	battles, err = env.battles.ListLiveBattles(context.Background(), outsider.ID)
	require.NoError(t, err)
	assert.Empty(t, battles)
}
