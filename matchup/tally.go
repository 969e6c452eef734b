package matchup

// DecideWinner picks the battle winner from the final per-side vote counts.
// The side with the strictly higher count wins; an even split goes to slot
// one. The tie-break is deliberately fixed so resolution never depends on
// storage ordering.
func DecideWinner(user1ID, user2ID string, counts map[string]int) string {
	if counts[user2ID] > counts[user1ID] {
		return user2ID
	}
	return user1ID
}
