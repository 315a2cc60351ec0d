package services

import (
	"context"

	"github.com/Dosada05/chanbara-tournament/models"
	"github.com/Dosada05/chanbara-tournament/repositories"
)

type SpecialtyService interface {
	List(ctx context.Context) ([]models.Specialty, error)
}

type specialtyService struct {
	specialtyRepo repositories.SpecialtyRepository
}

func NewSpecialtyService(specialtyRepo repositories.SpecialtyRepository) SpecialtyService {
	return &specialtyService{specialtyRepo: specialtyRepo}
}

func (s *specialtyService) List(ctx context.Context) ([]models.Specialty, error) {
	return s.specialtyRepo.GetAll(ctx)
}
