// Package matchup holds the pure matchmaking algorithms: pairing a full
// voting group into battles, assigning voters, and deciding a battle's
// winner from the final tally.
package matchup

import (
	"fmt"
	"math/rand"
)

// Quorum is the number of votes that resolves a battle. It equals the number
// of voters assigned to each battle: in a full group of ten, every competitor
// judges the four battles they are not fighting in, so each battle is judged
// by the eight others.
const Quorum = 8

// Pair is one battle's two competitors. Slot order is arbitrary but fixed at
// creation; User1 is the deterministic tie-break favorite (see DecideWinner).
type Pair struct {
	User1ID string
	User2ID string
}

// PairCompetitors randomly permutes userIDs and partitions consecutive
// entries into pairs. The caller supplies the randomness source so tests can
// pin the permutation.
func PairCompetitors(userIDs []string, rnd *rand.Rand) ([]Pair, error) {
	if len(userIDs) == 0 || len(userIDs)%2 != 0 {
		return nil, fmt.Errorf("cannot pair %d competitors: even non-zero count required", len(userIDs))
	}

	shuffled := make([]string, len(userIDs))
	copy(shuffled, userIDs)
	rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	pairs := make([]Pair, 0, len(shuffled)/2)
	for i := 0; i < len(shuffled); i += 2 {
		pairs = append(pairs, Pair{User1ID: shuffled[i], User2ID: shuffled[i+1]})
	}
	return pairs, nil
}

// VoterAssignment marks that a user judges the battle built from
// pairs[PairIndex].
type VoterAssignment struct {
	UserID    string
	PairIndex int
}

// VoterAssignments assigns every competitor as voter on every pair they do
// not fight in. For a group of ten this yields four assignments per user and
// exactly Quorum voters per pair.
func VoterAssignments(pairs []Pair) []VoterAssignment {
	assignments := make([]VoterAssignment, 0, len(pairs)*2*(len(pairs)-1))
	for _, own := range pairs {
		for _, userID := range []string{own.User1ID, own.User2ID} {
			for i, p := range pairs {
				if p == own {
					continue
				}
				assignments = append(assignments, VoterAssignment{UserID: userID, PairIndex: i})
			}
		}
	}
	return assignments
}
