package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/chanbara-tournament/models"
	"github.com/jmoiron/sqlx"
)

var (
	ErrChallengeNotFound        = errors.New("challenge not found")
	ErrChallengeConflict        = errors.New("challenge already exists for this pair and date")
	ErrChallengeAlreadyResolved = errors.New("challenge already resolved")
)

// ChallengeFilter narrows List and Count. Zero value matches every challenge.
type ChallengeFilter struct {
	On        *models.Date
	From      *models.Date // on or after
	After     *models.Date // strictly after
	Before    *models.Date // strictly before
	AthleteID *int
	Resolved  *bool

	Descending bool
	Limit      int
}

type ChallengeRepository interface {
	Create(ctx context.Context, exec SQLExecutor, challenge *models.Challenge) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Challenge, error)
	GetDetail(ctx context.Context, id int) (*models.ChallengeDetail, error)
	List(ctx context.Context, filter ChallengeFilter) ([]models.ChallengeDetail, error)
	Count(ctx context.Context, filter ChallengeFilter) (int, error)
	ExistsForPair(ctx context.Context, exec SQLExecutor, athleteA, athleteB int, date models.Date) (bool, error)
	SetWinner(ctx context.Context, exec SQLExecutor, id, winnerID int) error
	DeleteByAthlete(ctx context.Context, exec SQLExecutor, athleteID int) (int64, error)
}

type sqlChallengeRepository struct {
	db *sqlx.DB
}

func NewChallengeRepository(db *sqlx.DB) ChallengeRepository {
	return &sqlChallengeRepository{db: db}
}

const challengeColumns = `id, atleta1_id, atleta2_id, data_sfida, specialita_id, vincitore_id, creato_il, modificato_il`

const challengeDetailSelect = `
	SELECT
		s.id, s.atleta1_id, s.atleta2_id, s.data_sfida, s.specialita_id, s.vincitore_id, s.creato_il, s.modificato_il,
		a1.nome AS sfidante_nome,
		a2.nome AS sfidato_nome,
		sp.nome AS specialita,
		v.nome AS vincitore_nome
	FROM sfide s
	JOIN atleti a1 ON s.atleta1_id = a1.id
	JOIN atleti a2 ON s.atleta2_id = a2.id
	JOIN specialita sp ON s.specialita_id = sp.id
	LEFT JOIN atleti v ON s.vincitore_id = v.id`

func (r *sqlChallengeRepository) Create(ctx context.Context, exec SQLExecutor, challenge *models.Challenge) error {
	ex := executor(r.db, exec)
	query := ex.Rebind(`
		INSERT INTO sfide (atleta1_id, atleta2_id, data_sfida, specialita_id)
		VALUES (?, ?, ?, ?)
		RETURNING id`)

	err := ex.QueryRowxContext(ctx, query,
		challenge.ChallengerID,
		challenge.ChallengedID,
		challenge.Date,
		challenge.SpecialtyID,
	).Scan(&challenge.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrChallengeConflict
		}
		return fmt.Errorf("failed to insert challenge: %w", err)
	}
	return nil
}

func (r *sqlChallengeRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Challenge, error) {
	ex := executor(r.db, exec)

	var challenge models.Challenge
	err := sqlx.GetContext(ctx, ex, &challenge, ex.Rebind(`SELECT `+challengeColumns+` FROM sfide WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge %d: %w", id, err)
	}
	return &challenge, nil
}

func (r *sqlChallengeRepository) GetDetail(ctx context.Context, id int) (*models.ChallengeDetail, error) {
	var detail models.ChallengeDetail
	err := r.db.GetContext(ctx, &detail, r.db.Rebind(challengeDetailSelect+` WHERE s.id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge detail %d: %w", id, err)
	}
	detail.State = detail.Status()
	return &detail, nil
}

func (r *sqlChallengeRepository) List(ctx context.Context, filter ChallengeFilter) ([]models.ChallengeDetail, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(challengeDetailSelect)

	where, args := filter.where("s.")
	queryBuilder.WriteString(where)

	if filter.Descending {
		queryBuilder.WriteString(" ORDER BY s.data_sfida DESC, s.id DESC")
	} else {
		queryBuilder.WriteString(" ORDER BY s.data_sfida ASC, s.id ASC")
	}
	if filter.Limit > 0 {
		queryBuilder.WriteString(" LIMIT ")
		queryBuilder.WriteString(strconv.Itoa(filter.Limit))
	}

	challenges := make([]models.ChallengeDetail, 0)
	if err := r.db.SelectContext(ctx, &challenges, r.db.Rebind(queryBuilder.String()), args...); err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	for i := range challenges {
		challenges[i].State = challenges[i].Status()
	}
	return challenges, nil
}

func (r *sqlChallengeRepository) Count(ctx context.Context, filter ChallengeFilter) (int, error) {
	where, args := filter.where("")

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM sfide`+where), args...); err != nil {
		return 0, fmt.Errorf("failed to count challenges: %w", err)
	}
	return total, nil
}

// ExistsForPair compares the pair unordered: (a, b) and (b, a) are the same match.
func (r *sqlChallengeRepository) ExistsForPair(ctx context.Context, exec SQLExecutor, athleteA, athleteB int, date models.Date) (bool, error) {
	ex := executor(r.db, exec)
	query := ex.Rebind(`
		SELECT EXISTS (
			SELECT 1 FROM sfide
			WHERE ((atleta1_id = ? AND atleta2_id = ?) OR (atleta1_id = ? AND atleta2_id = ?))
			  AND data_sfida = ?
		)`)

	var exists bool
	if err := sqlx.GetContext(ctx, ex, &exists, query, athleteA, athleteB, athleteB, athleteA, date); err != nil {
		return false, fmt.Errorf("failed to check existing challenge: %w", err)
	}
	return exists, nil
}

// SetWinner records the winner only while none is set; a resolved challenge yields ErrChallengeAlreadyResolved.
func (r *sqlChallengeRepository) SetWinner(ctx context.Context, exec SQLExecutor, id, winnerID int) error {
	ex := executor(r.db, exec)
	query := ex.Rebind(`
		UPDATE sfide
		SET vincitore_id = ?, modificato_il = CURRENT_TIMESTAMP
		WHERE id = ? AND vincitore_id IS NULL`)

	result, err := ex.ExecContext(ctx, query, winnerID, id)
	if err != nil {
		return fmt.Errorf("failed to set winner of challenge %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrChallengeAlreadyResolved)
}

func (r *sqlChallengeRepository) DeleteByAthlete(ctx context.Context, exec SQLExecutor, athleteID int) (int64, error) {
	ex := executor(r.db, exec)
	result, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM sfide WHERE atleta1_id = ? OR atleta2_id = ?`), athleteID, athleteID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete challenges of athlete %d: %w", athleteID, err)
	}
	return result.RowsAffected()
}

func (f ChallengeFilter) where(prefix string) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.On != nil {
		conds = append(conds, prefix+"data_sfida = ?")
		args = append(args, *f.On)
	}
	if f.From != nil {
		conds = append(conds, prefix+"data_sfida >= ?")
		args = append(args, *f.From)
	}
	if f.After != nil {
		conds = append(conds, prefix+"data_sfida > ?")
		args = append(args, *f.After)
	}
	if f.Before != nil {
		conds = append(conds, prefix+"data_sfida < ?")
		args = append(args, *f.Before)
	}
	if f.AthleteID != nil {
		conds = append(conds, "("+prefix+"atleta1_id = ? OR "+prefix+"atleta2_id = ?)")
		args = append(args, *f.AthleteID, *f.AthleteID)
	}
	if f.Resolved != nil {
		if *f.Resolved {
			conds = append(conds, prefix+"vincitore_id IS NOT NULL")
		} else {
			conds = append(conds, prefix+"vincitore_id IS NULL")
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
