package models

import "time"

type Vote struct {
	ID         string    `json:"id"`
	BattleID   string    `json:"battle_id"`
	VoterID    string    `json:"voter_id"`
	VotedForID string    `json:"voted_for_id"`
	GroupID    string    `json:"group_id"`
	Feedback   *string   `json:"feedback,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// VoteHistoryEntry is the read model for a voter's past votes.
type VoteHistoryEntry struct {
	Vote
	BattleStatus   BattleStatus `json:"battle_status"`
	WinnerID       *string      `json:"winner_id,omitempty"`
	ChallengeTitle string       `json:"challenge_title"`
	VotedForName   string       `json:"voted_for_name"`
	VoteCorrect    *bool        `json:"vote_correct,omitempty"`
}
