package services

import (
	"context"

	"github.com/Dosada05/chanbara-tournament/models"
	"github.com/Dosada05/chanbara-tournament/repositories"
	"golang.org/x/sync/errgroup"
)

type ReportService interface {
	Rankings(ctx context.Context) ([]models.RankingEntry, error)
	Statistics(ctx context.Context) (*models.Statistics, error)
}

type reportService struct {
	reportRepo    repositories.ReportRepository
	athleteRepo   repositories.AthleteRepository
	challengeRepo repositories.ChallengeRepository
	configs       ConfigService
	clock         Clock
}

func NewReportService(
	reportRepo repositories.ReportRepository,
	athleteRepo repositories.AthleteRepository,
	challengeRepo repositories.ChallengeRepository,
	configs ConfigService,
	clock Clock,
) ReportService {
	return &reportService{
		reportRepo:    reportRepo,
		athleteRepo:   athleteRepo,
		challengeRepo: challengeRepo,
		configs:       configs,
		clock:         clock,
	}
}

func (s *reportService) Rankings(ctx context.Context) ([]models.RankingEntry, error) {
	return s.reportRepo.Rankings(ctx)
}

func (s *reportService) Statistics(ctx context.Context) (*models.Statistics, error) {
	var stats models.Statistics
	today := s.clock.Today()
	resolved := true

	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int, filter repositories.ChallengeFilter) {
		g.Go(func() error {
			n, err := s.challengeRepo.Count(gctx, filter)
			*dst = n
			return err
		})
	}

	g.Go(func() error {
		n, err := s.athleteRepo.Count(gctx)
		stats.TotalAthletes = n
		return err
	})
	count(&stats.TotalChallenges, repositories.ChallengeFilter{})
	count(&stats.CompletedChallenges, repositories.ChallengeFilter{Resolved: &resolved})
	count(&stats.FutureChallenges, repositories.ChallengeFilter{After: &today})
	count(&stats.TodayChallenges, repositories.ChallengeFilter{On: &today})
	g.Go(func() error {
		cfg, err := s.configs.Get(gctx)
		if err != nil {
			return err
		}
		stats.RegistrationOpen = cfg.RegistrationOpen
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
