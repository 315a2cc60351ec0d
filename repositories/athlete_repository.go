package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/chanbara-tournament/models"
	"github.com/jmoiron/sqlx"
)

var (
	ErrAthleteNotFound      = errors.New("athlete not found")
	ErrAthleteEmailConflict = errors.New("athlete email conflict")
)

type AthleteRepository interface {
	Create(ctx context.Context, exec SQLExecutor, athlete *models.Athlete) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Athlete, error)
	GetByEmail(ctx context.Context, email string) (*models.Athlete, error)
	ExistsByEmail(ctx context.Context, exec SQLExecutor, email string) (bool, error)
	List(ctx context.Context) ([]models.Athlete, error)
	ListOpponents(ctx context.Context, athleteID, minLevel int) ([]models.Opponent, error)
	Update(ctx context.Context, exec SQLExecutor, athlete *models.Athlete) error
	UpdateAvatarKey(ctx context.Context, id int, key *string) error
	IncrementLevel(ctx context.Context, exec SQLExecutor, id int) (*models.ChallengeResult, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	Count(ctx context.Context) (int, error)
}

type sqlAthleteRepository struct {
	db *sqlx.DB
}

func NewAthleteRepository(db *sqlx.DB) AthleteRepository {
	return &sqlAthleteRepository{db: db}
}

const athleteColumns = `id, nome, email, password, livello, avatar_key, created_at`

func (r *sqlAthleteRepository) Create(ctx context.Context, exec SQLExecutor, athlete *models.Athlete) error {
	ex := executor(r.db, exec)
	query := ex.Rebind(`
		INSERT INTO atleti (nome, email, password, livello)
		VALUES (?, ?, ?, ?)
		RETURNING id`)

	if athlete.Level < 1 {
		athlete.Level = 1
	}
	err := ex.QueryRowxContext(ctx, query, athlete.Name, athlete.Email, athlete.PasswordHash, athlete.Level).Scan(&athlete.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAthleteEmailConflict
		}
		return fmt.Errorf("failed to insert athlete: %w", err)
	}

	// reload to pick up database defaults such as created_at
	stored, err := r.get(ctx, ex, ex.Rebind(`SELECT `+athleteColumns+` FROM atleti WHERE id = ?`), athlete.ID)
	if err != nil {
		return err
	}
	*athlete = *stored
	return nil
}

func (r *sqlAthleteRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Athlete, error) {
	ex := executor(r.db, exec)
	query := ex.Rebind(`SELECT ` + athleteColumns + ` FROM atleti WHERE id = ?`)
	return r.get(ctx, ex, query, id)
}

func (r *sqlAthleteRepository) GetByEmail(ctx context.Context, email string) (*models.Athlete, error) {
	query := r.db.Rebind(`SELECT ` + athleteColumns + ` FROM atleti WHERE email = ?`)
	return r.get(ctx, r.db, query, email)
}

func (r *sqlAthleteRepository) get(ctx context.Context, ex SQLExecutor, query string, args ...interface{}) (*models.Athlete, error) {
	var athlete models.Athlete
	if err := sqlx.GetContext(ctx, ex, &athlete, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAthleteNotFound
		}
		return nil, fmt.Errorf("failed to get athlete: %w", err)
	}
	return &athlete, nil
}

func (r *sqlAthleteRepository) ExistsByEmail(ctx context.Context, exec SQLExecutor, email string) (bool, error) {
	ex := executor(r.db, exec)
	var exists bool
	err := sqlx.GetContext(ctx, ex, &exists, ex.Rebind(`SELECT EXISTS (SELECT 1 FROM atleti WHERE email = ?)`), email)
	if err != nil {
		return false, fmt.Errorf("failed to check athlete email: %w", err)
	}
	return exists, nil
}

func (r *sqlAthleteRepository) List(ctx context.Context) ([]models.Athlete, error) {
	query := `SELECT ` + athleteColumns + ` FROM atleti ORDER BY livello DESC, nome ASC, id ASC`

	athletes := make([]models.Athlete, 0)
	if err := r.db.SelectContext(ctx, &athletes, query); err != nil {
		return nil, fmt.Errorf("failed to list athletes: %w", err)
	}
	return athletes, nil
}

// ListOpponents returns everyone except athleteID whose level is at least minLevel.
func (r *sqlAthleteRepository) ListOpponents(ctx context.Context, athleteID, minLevel int) ([]models.Opponent, error) {
	query := r.db.Rebind(`
		SELECT id, nome, livello
		FROM atleti
		WHERE id <> ? AND livello >= ?
		ORDER BY livello ASC, nome ASC, id ASC`)

	opponents := make([]models.Opponent, 0)
	if err := r.db.SelectContext(ctx, &opponents, query, athleteID, minLevel); err != nil {
		return nil, fmt.Errorf("failed to list opponents: %w", err)
	}
	return opponents, nil
}

func (r *sqlAthleteRepository) Update(ctx context.Context, exec SQLExecutor, athlete *models.Athlete) error {
	ex := executor(r.db, exec)
	query := ex.Rebind(`UPDATE atleti SET nome = ?, email = ?, livello = ? WHERE id = ?`)

	result, err := ex.ExecContext(ctx, query, athlete.Name, athlete.Email, athlete.Level, athlete.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAthleteEmailConflict
		}
		return fmt.Errorf("failed to update athlete %d: %w", athlete.ID, err)
	}
	return checkAffectedRows(result, ErrAthleteNotFound)
}

func (r *sqlAthleteRepository) UpdateAvatarKey(ctx context.Context, id int, key *string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE atleti SET avatar_key = ? WHERE id = ?`), key, id)
	if err != nil {
		return fmt.Errorf("failed to update avatar of athlete %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrAthleteNotFound)
}

// IncrementLevel raises the athlete's level by exactly one and returns the new state.
func (r *sqlAthleteRepository) IncrementLevel(ctx context.Context, exec SQLExecutor, id int) (*models.ChallengeResult, error) {
	ex := executor(r.db, exec)
	query := ex.Rebind(`
		UPDATE atleti
		SET livello = livello + 1
		WHERE id = ?
		RETURNING id, nome, livello`)

	var result models.ChallengeResult
	if err := sqlx.GetContext(ctx, ex, &result, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAthleteNotFound
		}
		return nil, fmt.Errorf("failed to increment level of athlete %d: %w", id, err)
	}
	return &result, nil
}

func (r *sqlAthleteRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	ex := executor(r.db, exec)
	result, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM atleti WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete athlete %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrAthleteNotFound)
}

func (r *sqlAthleteRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM atleti`); err != nil {
		return 0, fmt.Errorf("failed to count athletes: %w", err)
	}
	return total, nil
}
