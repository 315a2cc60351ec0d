package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/chanbara-tournament/models"
	"github.com/jmoiron/sqlx"
)

var ErrSpecialtyNotFound = errors.New("specialty not found")

type SpecialtyRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Specialty, error)
	GetAll(ctx context.Context) ([]models.Specialty, error)
}

type sqlSpecialtyRepository struct {
	db *sqlx.DB
}

func NewSpecialtyRepository(db *sqlx.DB) SpecialtyRepository {
	return &sqlSpecialtyRepository{db: db}
}

func (r *sqlSpecialtyRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Specialty, error) {
	ex := executor(r.db, exec)

	var specialty models.Specialty
	err := sqlx.GetContext(ctx, ex, &specialty, ex.Rebind(`SELECT id, nome FROM specialita WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSpecialtyNotFound
		}
		return nil, fmt.Errorf("failed to get specialty %d: %w", id, err)
	}
	return &specialty, nil
}

func (r *sqlSpecialtyRepository) GetAll(ctx context.Context) ([]models.Specialty, error) {
	specialties := make([]models.Specialty, 0, 5)
	if err := r.db.SelectContext(ctx, &specialties, `SELECT id, nome FROM specialita ORDER BY nome ASC`); err != nil {
		return nil, fmt.Errorf("failed to list specialties: %w", err)
	}
	return specialties, nil
}
