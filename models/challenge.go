package models

import "time"

type ChallengeStatus string

const (
	ChallengeScheduled ChallengeStatus = "scheduled"
	ChallengeResolved  ChallengeStatus = "resolved"
)

// Challenge is a match between two distinct athletes on a given day.
// WinnerID is set once, by an admin, and never changes afterwards.
type Challenge struct {
	ID           int       `json:"id" db:"id"`
	ChallengerID int       `json:"atleta1_id" db:"atleta1_id"`
	ChallengedID int       `json:"atleta2_id" db:"atleta2_id"`
	Date         Date      `json:"data_sfida" db:"data_sfida"`
	SpecialtyID  int       `json:"specialita_id" db:"specialita_id"`
	WinnerID     *int      `json:"vincitore_id" db:"vincitore_id"`
	CreatedAt    time.Time `json:"creato_il" db:"creato_il"`
	ModifiedAt   time.Time `json:"modificato_il" db:"modificato_il"`
}

func (c *Challenge) Status() ChallengeStatus {
	if c.WinnerID != nil {
		return ChallengeResolved
	}
	return ChallengeScheduled
}

func (c *Challenge) HasParticipant(athleteID int) bool {
	return c.ChallengerID == athleteID || c.ChallengedID == athleteID
}

// ChallengeDetail is a challenge joined with athlete and specialty names.
type ChallengeDetail struct {
	Challenge
	ChallengerName string          `json:"sfidante_nome" db:"sfidante_nome"`
	ChallengedName string          `json:"sfidato_nome" db:"sfidato_nome"`
	SpecialtyName  string          `json:"specialita" db:"specialita"`
	WinnerName     *string         `json:"vincitore_nome" db:"vincitore_nome"`
	State          ChallengeStatus `json:"stato" db:"-"`
}

type NewChallenge struct {
	ChallengedID int  `json:"atleta2_id"`
	Date         Date `json:"data_sfida"`
	SpecialtyID  int  `json:"specialita_id"`
}

// ChallengeResult is the winner after a result has been recorded, with the new level.
type ChallengeResult struct {
	ChallengeID int    `json:"sfida_id"`
	WinnerID    int    `json:"id" db:"id"`
	WinnerName  string `json:"nome" db:"nome"`
	WinnerLevel int    `json:"livello" db:"livello"`
}
