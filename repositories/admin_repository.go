package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/chanbara-tournament/models"
	"github.com/jmoiron/sqlx"
)

var ErrAdminNotFound = errors.New("admin not found")

type AdminRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
}

type sqlAdminRepository struct {
	db *sqlx.DB
}

func NewAdminRepository(db *sqlx.DB) AdminRepository {
	return &sqlAdminRepository{db: db}
}

func (r *sqlAdminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query := r.db.Rebind(`SELECT id, username, password, created_at FROM admin WHERE username = ?`)

	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &admin, nil
}
