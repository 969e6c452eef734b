package models

import "time"

type FitnessLevel string

const (
	FitnessBeginner     FitnessLevel = "Beginner"
	FitnessIntermediate FitnessLevel = "Intermediate"
	FitnessAdvanced     FitnessLevel = "Advanced"
)

func (f FitnessLevel) Valid() bool {
	switch f {
	case FitnessBeginner, FitnessIntermediate, FitnessAdvanced:
		return true
	}
	return false
}

type Tier string

const (
	TierBronze    Tier = "Bronze"
	TierSilver    Tier = "Silver"
	TierGold      Tier = "Gold"
	TierPlatinum  Tier = "Platinum"
	TierDiamond   Tier = "Diamond"
	TierGladiator Tier = "Gladiator"
)

type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	DisplayName  string       `json:"display_name"`
	FitnessLevel FitnessLevel `json:"fitness_level"`
	HeightCm     *int         `json:"height_cm,omitempty"`
	WeightKg     *int         `json:"weight_kg,omitempty"`
	Age          *int         `json:"age,omitempty"`
	Gender       *string      `json:"gender,omitempty"`
	AvatarURL    *string      `json:"avatar_url,omitempty"`
	Tier         Tier         `json:"tier"`
	Level        int          `json:"level"`
	Points       int          `json:"points"`
	Wins         int          `json:"wins"`
	Losses       int          `json:"losses"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// UserProfilePatch carries the optional profile fields of a partial update.
// Nil means "leave unchanged".
type UserProfilePatch struct {
	DisplayName  *string       `json:"display_name,omitempty"`
	FitnessLevel *FitnessLevel `json:"fitness_level,omitempty"`
	HeightCm     *int          `json:"height_cm,omitempty"`
	WeightKg     *int          `json:"weight_kg,omitempty"`
	Age          *int          `json:"age,omitempty"`
	Gender       *string       `json:"gender,omitempty"`
	AvatarURL    *string       `json:"avatar_url,omitempty"`
}

func (p UserProfilePatch) IsEmpty() bool {
	return p.DisplayName == nil &&
		p.FitnessLevel == nil &&
		p.HeightCm == nil &&
		p.WeightKg == nil &&
		p.Age == nil &&
		p.Gender == nil &&
		p.AvatarURL == nil
}
