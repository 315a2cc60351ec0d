package models

type RankingEntry struct {
	ID         int    `json:"id" db:"id"`
	Name       string `json:"nome" db:"nome"`
	Level      int    `json:"livello" db:"livello"`
	Wins       int    `json:"vittorie" db:"vittorie"`
	Challenges int    `json:"sfide_totali" db:"sfide_totali"`
}

type Statistics struct {
	TotalAthletes       int  `json:"totale_atleti"`
	TotalChallenges     int  `json:"totale_sfide"`
	CompletedChallenges int  `json:"sfide_completate"`
	FutureChallenges    int  `json:"sfide_future"`
	TodayChallenges     int  `json:"sfide_oggi"`
	RegistrationOpen    bool `json:"registrazione_aperta"`
}
