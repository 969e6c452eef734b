package models

import "time"

type Challenge struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	DurationSec *int         `json:"duration_sec,omitempty"`
	Difficulty  FitnessLevel `json:"difficulty"`
	Active      bool         `json:"active"`
	CreatedAt   time.Time    `json:"created_at"`
}
