package periods

import (
	"context"
	"time"
)

// Service exposes the fiscal calendar.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListByYear(ctx context.Context, businessID int64, fiscalYear int) ([]Period, error) {
	return s.repo.ListByYear(ctx, businessID, fiscalYear)
}

func (s *Service) FindOpenByDate(ctx context.Context, businessID int64, date time.Time) (Period, error) {
	return s.repo.FindOpenByDate(ctx, businessID, date)
}
