package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/chanbara-tournament/models"
	"github.com/Dosada05/chanbara-tournament/repositories"
	"github.com/Dosada05/chanbara-tournament/utils"
	"github.com/jmoiron/sqlx"
)

type AuthService interface {
	Register(ctx context.Context, input models.NewAthlete) (*AthleteAuth, error)
	Login(ctx context.Context, input LoginInput) (*AthleteAuth, error)
	AdminLogin(ctx context.Context, input AdminLoginInput) (*AdminAuth, error)
	BulkCreateAthletes(ctx context.Context, inputs []models.NewAthlete) ([]models.Athlete, error)
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AdminLoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AthleteAuth struct {
	Athlete *models.Athlete
	Token   string
}

type AdminAuth struct {
	Admin *models.Admin
	Token string
}

type authService struct {
	db          *sqlx.DB
	athleteRepo repositories.AthleteRepository
	adminRepo   repositories.AdminRepository
	configs     ConfigService
	tokens      TokenService
	logger      *slog.Logger
}

func NewAuthService(
	db *sqlx.DB,
	athleteRepo repositories.AthleteRepository,
	adminRepo repositories.AdminRepository,
	configs ConfigService,
	tokens TokenService,
	logger *slog.Logger,
) AuthService {
	return &authService{
		db:          db,
		athleteRepo: athleteRepo,
		adminRepo:   adminRepo,
		configs:     configs,
		tokens:      tokens,
		logger:      logger,
	}
}

func normalizeNewAthlete(input models.NewAthlete) (models.NewAthlete, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return input, validationError("nome, email and password are required")
	}
	return input, nil
}

func (s *authService) Register(ctx context.Context, input models.NewAthlete) (*AthleteAuth, error) {
	input, err := normalizeNewAthlete(input)
	if err != nil {
		return nil, err
	}
	if err := requireRegistration(ctx, s.configs, true, ErrRegistrationClosed); err != nil {
		return nil, err
	}

	exists, err := s.athleteRepo.ExistsByEmail(ctx, nil, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailConflict
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	athlete := &models.Athlete{Name: input.Name, Email: input.Email, PasswordHash: hash, Level: 1}
	if err := s.athleteRepo.Create(ctx, nil, athlete); err != nil {
		return nil, handleRepositoryError(err)
	}
	athlete.PasswordHash = ""

	token, err := s.tokens.Issue(Claims{ID: athlete.ID, Email: athlete.Email})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "athlete registered", slog.Int("athlete_id", athlete.ID))
	return &AthleteAuth{Athlete: athlete, Token: token}, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*AthleteAuth, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, validationError("email and password are required")
	}

	athlete, err := s.athleteRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrAthleteNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find athlete by email: %w", err)
	}
	if !utils.CheckPasswordHash(input.Password, athlete.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	athlete.PasswordHash = ""

	token, err := s.tokens.Issue(Claims{ID: athlete.ID, Email: athlete.Email})
	if err != nil {
		return nil, err
	}
	return &AthleteAuth{Athlete: athlete, Token: token}, nil
}

func (s *authService) AdminLogin(ctx context.Context, input AdminLoginInput) (*AdminAuth, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, validationError("username and password are required")
	}

	admin, err := s.adminRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	if !utils.CheckPasswordHash(input.Password, admin.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	admin.PasswordHash = ""

	token, err := s.tokens.Issue(Claims{ID: admin.ID, Username: admin.Username, IsAdmin: true})
	if err != nil {
		return nil, err
	}
	return &AdminAuth{Admin: admin, Token: token}, nil
}

// BulkCreateAthletes imports a list atomically. Emails already registered, or repeated
// earlier in the list, are skipped; a blank field anywhere aborts the whole import.
func (s *authService) BulkCreateAthletes(ctx context.Context, inputs []models.NewAthlete) ([]models.Athlete, error) {
	if err := requireRegistration(ctx, s.configs, true, ErrRegistrationClosed); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, validationError("athlete list is empty")
	}

	normalized := make([]models.NewAthlete, len(inputs))
	for i, input := range inputs {
		n, err := normalizeNewAthlete(input)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		normalized[i] = n
	}

	created := make([]models.Athlete, 0, len(normalized))
	err := withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		seen := make(map[string]struct{}, len(normalized))
		for _, input := range normalized {
			if _, dup := seen[input.Email]; dup {
				continue
			}
			seen[input.Email] = struct{}{}

			exists, err := s.athleteRepo.ExistsByEmail(ctx, tx, input.Email)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			hash, err := utils.HashPassword(input.Password)
			if err != nil {
				return err
			}
			athlete := models.Athlete{Name: input.Name, Email: input.Email, PasswordHash: hash, Level: 1}
			if err := s.athleteRepo.Create(ctx, tx, &athlete); err != nil {
				return handleRepositoryError(err)
			}
			athlete.PasswordHash = ""
			created = append(created, athlete)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "bulk athlete import completed",
		slog.Int("requested", len(inputs)), slog.Int("created", len(created)))
	return created, nil
}
