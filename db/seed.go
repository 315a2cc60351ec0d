package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/chanbara-tournament/utils"
	"github.com/jmoiron/sqlx"
)

type SeedOptions struct {
	AdminUsername  string
	AdminPassword  string
	TournamentName string
}

// Seed inserts the default admin and the tournament configuration row when they are missing.
// Specialties are seeded by the schema migration.
func Seed(ctx context.Context, db *sqlx.DB, opts SeedOptions, logger *slog.Logger) error {
	if opts.AdminPassword == "" {
		logger.Warn("ADMIN_PASSWORD not set, default admin not seeded")
	} else {
		var exists bool
		err := db.GetContext(ctx, &exists, db.Rebind(`SELECT EXISTS (SELECT 1 FROM admin WHERE username = ?)`), opts.AdminUsername)
		if err != nil {
			return fmt.Errorf("failed to check default admin: %w", err)
		}
		if !exists {
			hash, err := utils.HashPassword(opts.AdminPassword)
			if err != nil {
				return fmt.Errorf("failed to hash default admin password: %w", err)
			}
			_, err = db.ExecContext(ctx, db.Rebind(`
				INSERT INTO admin (username, password) VALUES (?, ?)
				ON CONFLICT (username) DO NOTHING`), opts.AdminUsername, hash)
			if err != nil {
				return fmt.Errorf("failed to insert default admin: %w", err)
			}
			logger.Info("default admin created", slog.String("username", opts.AdminUsername))
		}
	}

	var configRows int
	if err := db.GetContext(ctx, &configRows, `SELECT COUNT(*) FROM config_torneo`); err != nil {
		return fmt.Errorf("failed to count tournament config rows: %w", err)
	}
	if configRows == 0 {
		_, err := db.ExecContext(ctx, db.Rebind(`INSERT INTO config_torneo (nome_torneo, registrazione_aperta) VALUES (?, ?)`),
			opts.TournamentName, true)
		if err != nil {
			return fmt.Errorf("failed to insert default tournament config: %w", err)
		}
		logger.Info("default tournament config created", slog.String("name", opts.TournamentName))
	}

	return nil
}
