package repositories

import (
	"context"
	"fmt"

	"github.com/Dosada05/chanbara-tournament/models"
	"github.com/jmoiron/sqlx"
)

type ReportRepository interface {
	Rankings(ctx context.Context) ([]models.RankingEntry, error)
}

type sqlReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) ReportRepository {
	return &sqlReportRepository{db: db}
}

// Rankings lists every athlete by level, ties broken by name then id.
// Only resolved challenges count towards sfide_totali.
func (r *sqlReportRepository) Rankings(ctx context.Context) ([]models.RankingEntry, error) {
	query := `
		SELECT
			a.id,
			a.nome,
			a.livello,
			COUNT(CASE WHEN s.vincitore_id = a.id THEN 1 END) AS vittorie,
			COUNT(CASE WHEN s.vincitore_id IS NOT NULL THEN 1 END) AS sfide_totali
		FROM atleti a
		LEFT JOIN sfide s ON s.atleta1_id = a.id OR s.atleta2_id = a.id
		GROUP BY a.id, a.nome, a.livello
		ORDER BY a.livello DESC, a.nome ASC, a.id ASC`

	entries := make([]models.RankingEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("failed to compute rankings: %w", err)
	}
	return entries, nil
}
