// Package reconcile treats the incremental account balances as a cache and
// the ledger as the source of truth: it recomputes each balance from
// non-voided ledger entries and reports any drift.
package reconcile

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/atlas-pm/atlas-pm/internal/ledger/accounts"
)

const defaultConcurrency = 8

// Repository sums the active (non-voided) ledger deltas per account.
type Repository interface {
	SumActiveDeltas(ctx context.Context, accountID int64) (int64, error)
}

// Drift describes one account whose cached balance disagrees with its
// ledger-derived balance.
type Drift struct {
	AccountID     int64
	AccountNumber string
	Cached        int64
	Derived       int64
}

// Service recomputes balances from the ledger.
type Service struct {
	accounts accounts.Repository
	repo     Repository
	logger   *slog.Logger
	workers  int
}

func NewService(accountRepo accounts.Repository, repo Repository, logger *slog.Logger) *Service {
	return &Service{accounts: accountRepo, repo: repo, logger: logger, workers: defaultConcurrency}
}

// ReconcileBusiness checks every account of a business and returns the
// accounts whose cached balance drifted from the ledger.
func (s *Service) ReconcileBusiness(ctx context.Context, businessID int64) ([]Drift, error) {
	accts, err := s.accounts.List(ctx, businessID)
	if err != nil {
		return nil, err
	}
	results := make([]*Drift, len(accts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, account := range accts {
		g.Go(func() error {
			derived, err := s.repo.SumActiveDeltas(ctx, account.ID)
			if err != nil {
				return err
			}
			if derived != account.CurrentBalance {
				results[i] = &Drift{
					AccountID:     account.ID,
					AccountNumber: account.Number,
					Cached:        account.CurrentBalance,
					Derived:       derived,
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var drifts []Drift
	for _, d := range results {
		if d != nil {
			drifts = append(drifts, *d)
			if s.logger != nil {
				s.logger.Warn("account balance drift detected",
					slog.Int64("account_id", d.AccountID),
					slog.String("number", d.AccountNumber),
					slog.Int64("cached", d.Cached),
					slog.Int64("derived", d.Derived))
			}
		}
	}
	return drifts, nil
}
