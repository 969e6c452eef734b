package models

import "time"

type BattleStatus string

const (
	// BattleStatusActive: battle created, waiting for video submissions.
	BattleStatusActive BattleStatus = "active"
	// BattleStatusPending: both videos in, waiting for votes.
	BattleStatusPending   BattleStatus = "pending"
	BattleStatusCompleted BattleStatus = "completed"
	BattleStatusCanceled  BattleStatus = "canceled"
)

type Battle struct {
	ID            string       `json:"id"`
	ChallengeID   string       `json:"challenge_id"`
	User1ID       string       `json:"user1_id"`
	User2ID       string       `json:"user2_id"`
	User1VideoURL *string      `json:"user1_video_url,omitempty"`
	User2VideoURL *string      `json:"user2_video_url,omitempty"`
	WinnerID      *string      `json:"winner_id,omitempty"`
	Status        BattleStatus `json:"status"`
	StartedAt     *time.Time   `json:"started_at,omitempty"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
}

// HasParticipant reports whether userID competes in the battle.
func (b *Battle) HasParticipant(userID string) bool {
	return b.User1ID == userID || b.User2ID == userID
}

// OpponentOf returns the other side's user id, or "" if userID does not compete.
func (b *Battle) OpponentOf(userID string) string {
	switch userID {
	case b.User1ID:
		return b.User2ID
	case b.User2ID:
		return b.User1ID
	}
	return ""
}

// BothVideosIn reports whether the battle is ready to move to the voting phase.
func (b *Battle) BothVideosIn() bool {
	return b.User1VideoURL != nil && b.User2VideoURL != nil
}

type VideoUpload struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BattleID  string    `json:"battle_id"`
	VideoURL  string    `json:"video_url"`
	Timestamp time.Time `json:"timestamp"`
}
