package models

import "time"

// GroupSize is the number of competitors a voting group collects before
// battles are formed.
const GroupSize = 10

type VotingGroupStatus string

const (
	GroupStatusPending   VotingGroupStatus = "pending"
	GroupStatusActive    VotingGroupStatus = "active"
	GroupStatusCompleted VotingGroupStatus = "completed"
)

type VotingGroup struct {
	ID        string            `json:"id"`
	Status    VotingGroupStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

type GroupRole string

const (
	RoleCompetitor GroupRole = "competitor"
	RoleVoter      GroupRole = "voter"
)

// VotingGroupMember ties a user to a group with a role. A competitor row
// carries the battle the user fights in; a voter row carries the battle the
// user judges.
type VotingGroupMember struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	UserID    string    `json:"user_id"`
	Role      GroupRole `json:"role"`
	BattleID  *string   `json:"battle_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
