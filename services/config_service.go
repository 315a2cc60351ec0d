package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/chanbara-tournament/events"
	"github.com/Dosada05/chanbara-tournament/models"
	"github.com/Dosada05/chanbara-tournament/repositories"
	"github.com/jmoiron/sqlx"
)

type ConfigService interface {
	Get(ctx context.Context) (*models.TournamentConfig, error)
	Update(ctx context.Context, input models.TournamentConfigUpdate) (*models.TournamentConfig, error)
	CloseRegistration(ctx context.Context) (*models.TournamentConfig, error)
}

type configService struct {
	db          *sqlx.DB
	configRepo  repositories.TournamentConfigRepository
	publisher   events.Publisher
	defaultName string
	logger      *slog.Logger
}

func NewConfigService(
	db *sqlx.DB,
	configRepo repositories.TournamentConfigRepository,
	publisher events.Publisher,
	defaultName string,
	logger *slog.Logger,
) ConfigService {
	return &configService{
		db:          db,
		configRepo:  configRepo,
		publisher:   publisher,
		defaultName: defaultName,
		logger:      logger,
	}
}

func (s *configService) Get(ctx context.Context) (*models.TournamentConfig, error) {
	return s.getOrCreate(ctx, nil)
}

// getOrCreate inserts the default row the first time the configuration is read.
func (s *configService) getOrCreate(ctx context.Context, exec repositories.SQLExecutor) (*models.TournamentConfig, error) {
	cfg, err := s.configRepo.Get(ctx, exec)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, repositories.ErrConfigNotFound) {
		return nil, err
	}

	cfg = &models.TournamentConfig{Name: s.defaultName, RegistrationOpen: true}
	if err := s.configRepo.Create(ctx, exec, cfg); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "tournament config created with defaults", slog.Int("config_id", cfg.ID))
	return s.configRepo.Get(ctx, exec)
}

func (s *configService) Update(ctx context.Context, input models.TournamentConfigUpdate) (*models.TournamentConfig, error) {
	if input.Name != nil && isBlank(*input.Name) {
		return nil, validationError("nome_torneo must not be blank")
	}

	var updated *models.TournamentConfig
	err := withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		cfg, err := s.getOrCreate(ctx, tx)
		if err != nil {
			return err
		}

		if input.Name != nil {
			cfg.Name = strings.TrimSpace(*input.Name)
		}
		if input.StartDate != nil && !input.StartDate.IsZero() {
			cfg.StartDate = input.StartDate
		}
		if input.EndDate != nil && !input.EndDate.IsZero() {
			cfg.EndDate = input.EndDate
		}
		if cfg.StartDate != nil && cfg.EndDate != nil && cfg.EndDate.Before(*cfg.StartDate) {
			return validationError("data_fine (%s) must not precede data_inizio (%s)", cfg.EndDate, cfg.StartDate)
		}

		if err := s.configRepo.Update(ctx, tx, cfg); err != nil {
			return err
		}
		updated, err = s.configRepo.Get(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *configService) CloseRegistration(ctx context.Context) (*models.TournamentConfig, error) {
	var closed *models.TournamentConfig
	err := withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		cfg, err := s.getOrCreate(ctx, tx)
		if err != nil {
			return err
		}
		if err := s.configRepo.SetRegistrationOpen(ctx, tx, cfg.ID, false); err != nil {
			return fmt.Errorf("failed to close registrations: %w", err)
		}
		closed, err = s.configRepo.Get(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "registrations closed", slog.Int("config_id", closed.ID))
	s.publisher.Publish(events.TypeRegistrationClosed, closed)
	return closed, nil
}

// requireRegistration fails with gateErr unless registrations are in the wanted state.
func requireRegistration(ctx context.Context, configs ConfigService, open bool, gateErr error) error {
	cfg, err := configs.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to read tournament config: %w", err)
	}
	if cfg.RegistrationOpen != open {
		return gateErr
	}
	return nil
}
