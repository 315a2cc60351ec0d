package models

import "time"

// TournamentConfig is the singleton tournament settings row.
type TournamentConfig struct {
	ID               int       `json:"id" db:"id"`
	Name             string    `json:"nome_torneo" db:"nome_torneo"`
	RegistrationOpen bool      `json:"registrazione_aperta" db:"registrazione_aperta"`
	StartDate        *Date     `json:"data_inizio" db:"data_inizio"`
	EndDate          *Date     `json:"data_fine" db:"data_fine"`
	UpdatedAt        time.Time `json:"aggiornato_il" db:"aggiornato_il"`
}

// TournamentConfigUpdate holds a partial update; nil fields keep their stored value.
type TournamentConfigUpdate struct {
	Name      *string `json:"nome_torneo"`
	StartDate *Date   `json:"data_inizio"`
	EndDate   *Date   `json:"data_fine"`
}
