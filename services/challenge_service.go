package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/chanbara-tournament/events"
	"github.com/Dosada05/chanbara-tournament/models"
	"github.com/Dosada05/chanbara-tournament/repositories"
	"github.com/jmoiron/sqlx"
)

type ChallengeService interface {
	Create(ctx context.Context, challengerID int, input models.NewChallenge) (*models.ChallengeDetail, error)
	RecordResult(ctx context.Context, challengeID, winnerID int) (*models.ChallengeResult, error)
	List(ctx context.Context, date *models.Date) ([]models.ChallengeDetail, error)
	Get(ctx context.Context, challengeID int) (*models.ChallengeDetail, error)
}

type challengeService struct {
	db            *sqlx.DB
	challengeRepo repositories.ChallengeRepository
	athleteRepo   repositories.AthleteRepository
	specialtyRepo repositories.SpecialtyRepository
	configs       ConfigService
	publisher     events.Publisher
	clock         Clock
	logger        *slog.Logger
}

func NewChallengeService(
	db *sqlx.DB,
	challengeRepo repositories.ChallengeRepository,
	athleteRepo repositories.AthleteRepository,
	specialtyRepo repositories.SpecialtyRepository,
	configs ConfigService,
	publisher events.Publisher,
	clock Clock,
	logger *slog.Logger,
) ChallengeService {
	return &challengeService{
		db:            db,
		challengeRepo: challengeRepo,
		athleteRepo:   athleteRepo,
		specialtyRepo: specialtyRepo,
		configs:       configs,
		publisher:     publisher,
		clock:         clock,
		logger:        logger,
	}
}

// Create schedules a challenge. Only allowed once registrations are closed, against an
// opponent of equal or higher level, on a future day, at most once per pair and day.
func (s *challengeService) Create(ctx context.Context, challengerID int, input models.NewChallenge) (*models.ChallengeDetail, error) {
	if err := requireRegistration(ctx, s.configs, false, ErrRegistrationStillOpen); err != nil {
		return nil, err
	}
	if input.ChallengedID <= 0 || input.Date.IsZero() || input.SpecialtyID <= 0 {
		return nil, validationError("atleta2_id, data_sfida and specialita_id are required")
	}
	if input.ChallengedID == challengerID {
		return nil, validationError("an athlete cannot challenge themselves")
	}
	if !input.Date.After(s.clock.Today()) {
		return nil, validationError("data_sfida must be after today")
	}

	challenge := &models.Challenge{
		ChallengerID: challengerID,
		ChallengedID: input.ChallengedID,
		Date:         input.Date,
		SpecialtyID:  input.SpecialtyID,
	}

	err := withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		challenger, err := s.athleteRepo.GetByID(ctx, tx, challengerID)
		if err != nil {
			return handleRepositoryError(err)
		}
		opponent, err := s.athleteRepo.GetByID(ctx, tx, input.ChallengedID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if opponent.Level < challenger.Level {
			return validationError("opponent level %d is below challenger level %d", opponent.Level, challenger.Level)
		}
		if _, err := s.specialtyRepo.GetByID(ctx, tx, input.SpecialtyID); err != nil {
			return handleRepositoryError(err)
		}

		exists, err := s.challengeRepo.ExistsForPair(ctx, tx, challengerID, input.ChallengedID, input.Date)
		if err != nil {
			return err
		}
		if exists {
			return ErrChallengeConflict
		}
		return handleRepositoryError(s.challengeRepo.Create(ctx, tx, challenge))
	})
	if err != nil {
		return nil, err
	}

	detail, err := s.challengeRepo.GetDetail(ctx, challenge.ID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	s.logger.InfoContext(ctx, "challenge created",
		slog.Int("challenge_id", detail.ID),
		slog.Int("challenger_id", challengerID),
		slog.Int("challenged_id", input.ChallengedID),
		slog.String("date", input.Date.String()))
	s.publisher.Publish(events.TypeChallengeCreated, detail)
	return detail, nil
}

// RecordResult sets the winner and raises their level by one, atomically.
func (s *challengeService) RecordResult(ctx context.Context, challengeID, winnerID int) (*models.ChallengeResult, error) {
	if winnerID <= 0 {
		return nil, validationError("vincitore_id is required")
	}

	var result *models.ChallengeResult
	err := withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		challenge, err := s.challengeRepo.GetByID(ctx, tx, challengeID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if challenge.Status() == models.ChallengeResolved {
			return ErrChallengeAlreadyResolved
		}
		if !challenge.HasParticipant(winnerID) {
			return validationError("winner %d did not take part in challenge %d", winnerID, challengeID)
		}
		if challenge.Date.After(s.clock.Today()) {
			return validationError("challenge on %s has not taken place yet", challenge.Date)
		}

		// guarded by vincitore_id IS NULL, so a concurrent result loses here
		if err := s.challengeRepo.SetWinner(ctx, tx, challengeID, winnerID); err != nil {
			return handleRepositoryError(err)
		}
		result, err = s.athleteRepo.IncrementLevel(ctx, tx, winnerID)
		if err != nil {
			return handleRepositoryError(err)
		}
		result.ChallengeID = challengeID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "challenge result recorded",
		slog.Int("challenge_id", challengeID),
		slog.Int("winner_id", winnerID),
		slog.Int("new_level", result.WinnerLevel))
	s.publisher.Publish(events.TypeChallengeResolved, result)
	return result, nil
}

// List returns the challenges on date, or every challenge from today on when date is nil.
func (s *challengeService) List(ctx context.Context, date *models.Date) ([]models.ChallengeDetail, error) {
	filter := repositories.ChallengeFilter{}
	if date != nil && !date.IsZero() {
		filter.On = date
	} else {
		today := s.clock.Today()
		filter.From = &today
	}

	challenges, err := s.challengeRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	return challenges, nil
}

func (s *challengeService) Get(ctx context.Context, challengeID int) (*models.ChallengeDetail, error) {
	detail, err := s.challengeRepo.GetDetail(ctx, challengeID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return detail, nil
}
