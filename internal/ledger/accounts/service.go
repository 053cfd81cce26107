package accounts

import "context"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, businessID int64) ([]Account, error) {
	return s.repo.List(ctx, businessID)
}

func (s *Service) GetByID(ctx context.Context, id int64) (Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByNumber(ctx context.Context, businessID int64, number string) (Account, error) {
	return s.repo.GetByNumber(ctx, businessID, number)
}
