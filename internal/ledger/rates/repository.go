package rates

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// errRateMissing signals no stored rate for the pair; the resolver treats
// it as a fallback trigger, never a caller-visible failure.
var errRateMissing = errors.New("rates: no rate on file")

type Repository interface {
	// FindLatest returns the most recent rate for from->to dated on or
	// before the given date.
	FindLatest(ctx context.Context, from, to string, on time.Time) (decimal.Decimal, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) FindLatest(ctx context.Context, from, to string, on time.Time) (decimal.Decimal, error) {
	var raw string
	err := r.db.QueryRow(ctx, `SELECT rate::text FROM exchange_rates
WHERE from_currency=$1 AND to_currency=$2 AND rate_date <= $3 ORDER BY rate_date DESC LIMIT 1`, from, to, on).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, errRateMissing
		}
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}
