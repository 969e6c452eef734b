package rank

import (
	"math/rand"
	"testing"

	"github.com/gladiator-fit/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFor(t *testing.T) {
	cases := []struct {
		points int
		want   models.Tier
	}{
		{0, models.TierBronze},
		{499, models.TierBronze},
		{500, models.TierSilver},
		{999, models.TierSilver},
		{1000, models.TierGold},
		{1999, models.TierGold},
		{2000, models.TierPlatinum},
		{3499, models.TierPlatinum},
		{3500, models.TierDiamond},
		{4999, models.TierDiamond},
		{5000, models.TierGladiator},
		{123456, models.TierGladiator},
		{-10, models.TierBronze},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TierFor(c.points), "points=%d", c.points)
	}
}

func TestAdvancePromotionResetsLevel(t *testing.T) {
	// Bronze level 5 at 480 points wins a battle (+100 -> 580): Silver, level 5.
	next, changed := Advance(State{Tier: models.TierBronze, Level: 5, Points: 580})
	require.True(t, changed)
	assert.Equal(t, models.TierSilver, next.Tier)
	assert.Equal(t, 5, next.Level)
}

func TestAdvanceLevelUpWithinTier(t *testing.T) {
	next, changed := Advance(State{Tier: models.TierBronze, Level: 1, Points: 250})
	require.True(t, changed)
	assert.Equal(t, models.TierBronze, next.Tier)
	assert.Equal(t, 2, next.Level)
}

func TestAdvanceLevelDownWithinTier(t *testing.T) {
	next, changed := Advance(State{Tier: models.TierBronze, Level: 3, Points: 350})
	require.True(t, changed)
	assert.Equal(t, models.TierBronze, next.Tier)
	assert.Equal(t, 2, next.Level)
}

func TestAdvanceNoChange(t *testing.T) {
	// Level 2 holds while points stay inside [200, 400).
	next, changed := Advance(State{Tier: models.TierBronze, Level: 2, Points: 350})
	assert.False(t, changed)
	assert.Equal(t, 2, next.Level)
}

func TestAdvanceLevelClamps(t *testing.T) {
	next, changed := Advance(State{Tier: models.TierGladiator, Level: 5, Points: 9000})
	assert.False(t, changed)
	assert.Equal(t, 5, next.Level)

	next, changed = Advance(State{Tier: models.TierBronze, Level: 1, Points: 0})
	assert.False(t, changed)
	assert.Equal(t, 1, next.Level)
}

func TestAdvanceInvariants(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	s := State{Tier: models.TierBronze, Level: 5, Points: 0}
	for i := 0; i < 5000; i++ {
		if rnd.Intn(2) == 0 {
			s.Points += 100
		} else {
			s.Points -= 50
			if s.Points < 0 {
				s.Points = 0
			}
		}
		s, _ = Advance(s)
		assert.Equal(t, TierFor(s.Points), s.Tier)
		assert.GreaterOrEqual(t, s.Level, MinLevel)
		assert.LessOrEqual(t, s.Level, MaxLevel)
	}
}
