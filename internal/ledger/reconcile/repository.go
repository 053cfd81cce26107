package reconcile

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) SumActiveDeltas(ctx context.Context, accountID int64) (int64, error) {
	var sum int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(delta), 0) FROM ledger_entries WHERE account_id=$1 AND NOT voided`, accountID).Scan(&sum)
	return sum, err
}
