package models

import "time"

// Athlete is a registered competitor. Level starts at 1 and grows by one per challenge won.
type Athlete struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"nome" db:"nome"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password"`
	Level        int       `json:"livello" db:"livello"`
	AvatarKey    *string   `json:"-" db:"avatar_key"`
	AvatarURL    *string   `json:"avatar_url,omitempty" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Opponent is the public view of an athlete that may be challenged.
type Opponent struct {
	ID    int    `json:"id" db:"id"`
	Name  string `json:"nome" db:"nome"`
	Level int    `json:"livello" db:"livello"`
}

// NewAthlete is one entry of a registration or bulk import.
type NewAthlete struct {
	Name     string `json:"nome"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AthleteUpdate carries the optional fields an admin may change.
type AthleteUpdate struct {
	Name  *string `json:"nome"`
	Email *string `json:"email"`
	Level *int    `json:"livello"`
}

type AthleteProfile struct {
	Profile            *Athlete          `json:"profile"`
	UpcomingChallenges []ChallengeDetail `json:"upcomingChallenges"`
	PastChallenges     []ChallengeDetail `json:"pastChallenges"`
}
