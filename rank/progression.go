// Package rank implements the tier/level progression applied after every
// resolved battle.
package rank

import (
	"github.com/gladiator-fit/backend/models"
)

// Band is an inclusive point range owned by a tier. The top band has no
// upper bound (Max < 0).
type Band struct {
	Tier models.Tier
	Min  int
	Max  int
}

var bands = []Band{
	{models.TierBronze, 0, 499},
	{models.TierSilver, 500, 999},
	{models.TierGold, 1000, 1999},
	{models.TierPlatinum, 2000, 3499},
	{models.TierDiamond, 3500, 4999},
	{models.TierGladiator, 5000, -1},
}

// levelStep is the number of points required per level step within a tier.
const levelStep = 200

const (
	MinLevel = 1
	MaxLevel = 5
)

// TierFor returns the tier whose band contains points. Points below zero are
// treated as zero.
func TierFor(points int) models.Tier {
	if points < 0 {
		points = 0
	}
	for _, b := range bands {
		if points >= b.Min && (b.Max < 0 || points <= b.Max) {
			return b.Tier
		}
	}
	return models.TierBronze
}

// State is the subset of a user's rank relevant to progression.
type State struct {
	Tier   models.Tier
	Level  int
	Points int
}

// Advance recomputes tier and level from the just-updated points value.
// Entering a new tier resets the level to MaxLevel: the user has only barely
// qualified for the harder tier. Within a tier, the level moves one step at a
// time against the level*levelStep thresholds. The second return value
// reports whether anything changed and a persist is needed.
func Advance(s State) (State, bool) {
	next := s
	next.Tier = TierFor(s.Points)

	if next.Tier != s.Tier {
		next.Level = MaxLevel
		return next, true
	}

	switch {
	case s.Points >= s.Level*levelStep && s.Level < MaxLevel:
		next.Level = s.Level + 1
	case s.Points < (s.Level-1)*levelStep && s.Level > MinLevel:
		next.Level = s.Level - 1
	}

	return next, next.Level != s.Level
}
