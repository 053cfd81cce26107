package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlas-pm/atlas-pm/internal/ledger/accounts"
	"github.com/atlas-pm/atlas-pm/internal/ledger/shared"
)

type stubAccounts struct {
	list []accounts.Account
}

func (s stubAccounts) List(ctx context.Context, businessID int64) ([]accounts.Account, error) {
	return s.list, nil
}

func (s stubAccounts) GetByID(ctx context.Context, id int64) (accounts.Account, error) {
	for _, a := range s.list {
		if a.ID == id {
			return a, nil
		}
	}
	return accounts.Account{}, shared.ErrAccountNotFound
}

func (s stubAccounts) GetByNumber(ctx context.Context, businessID int64, number string) (accounts.Account, error) {
	for _, a := range s.list {
		if a.Number == number {
			return a, nil
		}
	}
	return accounts.Account{}, shared.ErrAccountNotFound
}

type stubSums struct {
	sums map[int64]int64
}

func (s stubSums) SumActiveDeltas(ctx context.Context, accountID int64) (int64, error) {
	return s.sums[accountID], nil
}

func TestReconcileReportsDriftOnly(t *testing.T) {
	accts := stubAccounts{list: []accounts.Account{
		{ID: 1, Number: "1010", CurrentBalance: 150000},
		{ID: 2, Number: "4010", CurrentBalance: 150000},
		{ID: 3, Number: "5010", CurrentBalance: 400},
	}}
	sums := stubSums{sums: map[int64]int64{1: 150000, 2: 150000, 3: 900}}

	service := NewService(accts, sums, nil)
	drifts, err := service.ReconcileBusiness(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	require.Equal(t, int64(3), drifts[0].AccountID)
	require.Equal(t, "5010", drifts[0].AccountNumber)
	require.Equal(t, int64(400), drifts[0].Cached)
	require.Equal(t, int64(900), drifts[0].Derived)
}

func TestReconcileCleanBooks(t *testing.T) {
	accts := stubAccounts{list: []accounts.Account{
		{ID: 1, Number: "1010", CurrentBalance: 0},
		{ID: 2, Number: "4010", CurrentBalance: 0},
	}}
	service := NewService(accts, stubSums{sums: map[int64]int64{}}, nil)
	drifts, err := service.ReconcileBusiness(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, drifts)
}
