package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/chanbara-tournament/models"
	"github.com/jmoiron/sqlx"
)

var ErrConfigNotFound = errors.New("tournament config not found")

type TournamentConfigRepository interface {
	Get(ctx context.Context, exec SQLExecutor) (*models.TournamentConfig, error)
	Create(ctx context.Context, exec SQLExecutor, cfg *models.TournamentConfig) error
	Update(ctx context.Context, exec SQLExecutor, cfg *models.TournamentConfig) error
	SetRegistrationOpen(ctx context.Context, exec SQLExecutor, id int, open bool) error
}

type sqlTournamentConfigRepository struct {
	db *sqlx.DB
}

func NewTournamentConfigRepository(db *sqlx.DB) TournamentConfigRepository {
	return &sqlTournamentConfigRepository{db: db}
}

// Get returns the oldest config row; the table is expected to hold exactly one.
func (r *sqlTournamentConfigRepository) Get(ctx context.Context, exec SQLExecutor) (*models.TournamentConfig, error) {
	ex := executor(r.db, exec)
	query := `
		SELECT id, nome_torneo, registrazione_aperta, data_inizio, data_fine, aggiornato_il
		FROM config_torneo
		ORDER BY id ASC
		LIMIT 1`

	var cfg models.TournamentConfig
	if err := sqlx.GetContext(ctx, ex, &cfg, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to get tournament config: %w", err)
	}
	return &cfg, nil
}

func (r *sqlTournamentConfigRepository) Create(ctx context.Context, exec SQLExecutor, cfg *models.TournamentConfig) error {
	ex := executor(r.db, exec)
	query := ex.Rebind(`
		INSERT INTO config_torneo (nome_torneo, registrazione_aperta, data_inizio, data_fine)
		VALUES (?, ?, ?, ?)
		RETURNING id`)

	err := ex.QueryRowxContext(ctx, query, cfg.Name, cfg.RegistrationOpen, cfg.StartDate, cfg.EndDate).Scan(&cfg.ID)
	if err != nil {
		return fmt.Errorf("failed to insert tournament config: %w", err)
	}
	return nil
}

func (r *sqlTournamentConfigRepository) Update(ctx context.Context, exec SQLExecutor, cfg *models.TournamentConfig) error {
	ex := executor(r.db, exec)
	query := ex.Rebind(`
		UPDATE config_torneo
		SET nome_torneo = ?, data_inizio = ?, data_fine = ?, aggiornato_il = CURRENT_TIMESTAMP
		WHERE id = ?`)

	result, err := ex.ExecContext(ctx, query, cfg.Name, cfg.StartDate, cfg.EndDate, cfg.ID)
	if err != nil {
		return fmt.Errorf("failed to update tournament config: %w", err)
	}
	return checkAffectedRows(result, ErrConfigNotFound)
}

func (r *sqlTournamentConfigRepository) SetRegistrationOpen(ctx context.Context, exec SQLExecutor, id int, open bool) error {
	ex := executor(r.db, exec)
	query := ex.Rebind(`
		UPDATE config_torneo
		SET registrazione_aperta = ?, aggiornato_il = CURRENT_TIMESTAMP
		WHERE id = ?`)

	result, err := ex.ExecContext(ctx, query, open, id)
	if err != nil {
		return fmt.Errorf("failed to set registration flag: %w", err)
	}
	return checkAffectedRows(result, ErrConfigNotFound)
}
