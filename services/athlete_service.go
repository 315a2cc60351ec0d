package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Dosada05/chanbara-tournament/models"
	"github.com/Dosada05/chanbara-tournament/repositories"
	"github.com/Dosada05/chanbara-tournament/storage"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const pastChallengesLimit = 10

type AthleteService interface {
	List(ctx context.Context) ([]models.Athlete, error)
	Profile(ctx context.Context, athleteID int) (*models.AthleteProfile, error)
	PossibleOpponents(ctx context.Context, athleteID int) ([]models.Opponent, error)
	Update(ctx context.Context, athleteID int, input models.AthleteUpdate) (*models.Athlete, error)
	Delete(ctx context.Context, athleteID int) error
	UploadAvatar(ctx context.Context, athleteID int, contentType string, file io.Reader) (*models.Athlete, error)
}

type athleteService struct {
	db            *sqlx.DB
	athleteRepo   repositories.AthleteRepository
	challengeRepo repositories.ChallengeRepository
	uploader      storage.FileUploader
	clock         Clock
	logger        *slog.Logger
}

// NewAthleteService accepts a nil uploader; avatar uploads then fail with ErrStorageDisabled.
func NewAthleteService(
	db *sqlx.DB,
	athleteRepo repositories.AthleteRepository,
	challengeRepo repositories.ChallengeRepository,
	uploader storage.FileUploader,
	clock Clock,
	logger *slog.Logger,
) AthleteService {
	return &athleteService{
		db:            db,
		athleteRepo:   athleteRepo,
		challengeRepo: challengeRepo,
		uploader:      uploader,
		clock:         clock,
		logger:        logger,
	}
}

func (s *athleteService) List(ctx context.Context) ([]models.Athlete, error) {
	athletes, err := s.athleteRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range athletes {
		populateAvatarURL(&athletes[i], s.uploader)
	}
	return athletes, nil
}

func (s *athleteService) Profile(ctx context.Context, athleteID int) (*models.AthleteProfile, error) {
	athlete, err := s.athleteRepo.GetByID(ctx, nil, athleteID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	populateAvatarURL(athlete, s.uploader)

	today := s.clock.Today()
	upcoming, err := s.challengeRepo.List(ctx, repositories.ChallengeFilter{
		AthleteID: &athleteID,
		From:      &today,
	})
	if err != nil {
		return nil, err
	}
	past, err := s.challengeRepo.List(ctx, repositories.ChallengeFilter{
		AthleteID:  &athleteID,
		Before:     &today,
		Descending: true,
		Limit:      pastChallengesLimit,
	})
	if err != nil {
		return nil, err
	}

	return &models.AthleteProfile{
		Profile:            athlete,
		UpcomingChallenges: upcoming,
		PastChallenges:     past,
	}, nil
}

func (s *athleteService) PossibleOpponents(ctx context.Context, athleteID int) ([]models.Opponent, error) {
	athlete, err := s.athleteRepo.GetByID(ctx, nil, athleteID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.athleteRepo.ListOpponents(ctx, athlete.ID, athlete.Level)
}

func (s *athleteService) Update(ctx context.Context, athleteID int, input models.AthleteUpdate) (*models.Athlete, error) {
	athlete, err := s.athleteRepo.GetByID(ctx, nil, athleteID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	if input.Name != nil {
		if isBlank(*input.Name) {
			return nil, validationError("nome must not be blank")
		}
		athlete.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		if isBlank(*input.Email) {
			return nil, validationError("email must not be blank")
		}
		athlete.Email = strings.TrimSpace(*input.Email)
	}
	if input.Level != nil {
		if *input.Level < 1 {
			return nil, validationError("livello must be at least 1")
		}
		athlete.Level = *input.Level
	}

	if err := s.athleteRepo.Update(ctx, nil, athlete); err != nil {
		return nil, handleRepositoryError(err)
	}
	populateAvatarURL(athlete, s.uploader)
	return athlete, nil
}

// Delete removes the athlete together with every challenge they took part in.
func (s *athleteService) Delete(ctx context.Context, athleteID int) error {
	var avatarKey *string
	err := withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		athlete, err := s.athleteRepo.GetByID(ctx, tx, athleteID)
		if err != nil {
			return handleRepositoryError(err)
		}
		avatarKey = athlete.AvatarKey

		removed, err := s.challengeRepo.DeleteByAthlete(ctx, tx, athleteID)
		if err != nil {
			return err
		}
		if err := s.athleteRepo.Delete(ctx, tx, athleteID); err != nil {
			return handleRepositoryError(err)
		}
		s.logger.InfoContext(ctx, "athlete deleted", slog.Int("athlete_id", athleteID), slog.Int64("challenges_removed", removed))
		return nil
	})
	if err != nil {
		return err
	}

	if avatarKey != nil && s.uploader != nil {
		s.deleteObject(ctx, *avatarKey)
	}
	return nil
}

func (s *athleteService) UploadAvatar(ctx context.Context, athleteID int, contentType string, file io.Reader) (*models.Athlete, error) {
	if s.uploader == nil {
		return nil, ErrStorageDisabled
	}
	ext, err := extensionFromContentType(contentType)
	if err != nil {
		return nil, err
	}

	athlete, err := s.athleteRepo.GetByID(ctx, nil, athleteID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	previousKey := athlete.AvatarKey

	key := fmt.Sprintf("atleti/%d/avatar-%s%s", athleteID, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.athleteRepo.UpdateAvatarKey(ctx, athleteID, &key); err != nil {
		s.deleteObject(ctx, key)
		return nil, handleRepositoryError(err)
	}
	if previousKey != nil && *previousKey != key {
		s.deleteObject(ctx, *previousKey)
	}

	athlete.AvatarKey = &key
	populateAvatarURL(athlete, s.uploader)
	return athlete, nil
}

// deleteObject is best effort: a dangling object is logged, not reported to the caller.
func (s *athleteService) deleteObject(ctx context.Context, key string) {
	if err := s.uploader.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to delete stored object", slog.String("key", key), slog.Any("error", err))
	}
}
