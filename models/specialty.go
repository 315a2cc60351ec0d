package models

// Specialty is a weapon or discipline category (kodachi, nito, ...).
type Specialty struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"nome" db:"nome"`
}
