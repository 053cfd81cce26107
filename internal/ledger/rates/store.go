package rates

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store is the admin surface over stored rates, used by ops tooling to
// import and audit rate coverage. The resolver never writes.
type Store interface {
	Upsert(ctx context.Context, from, to string, on time.Time, rate decimal.Decimal) error
	ListDates(ctx context.Context, from, to string, start, end time.Time) ([]time.Time, error)
}

type store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) Store {
	return &store{db: db}
}

func (s *store) Upsert(ctx context.Context, from, to string, on time.Time, rate decimal.Decimal) error {
	_, err := s.db.Exec(ctx, `INSERT INTO exchange_rates (from_currency, to_currency, rate_date, rate)
VALUES ($1, $2, $3, $4::numeric)
ON CONFLICT (from_currency, to_currency, rate_date) DO UPDATE SET rate = EXCLUDED.rate`,
		from, to, on, rate.String())
	return err
}

func (s *store) ListDates(ctx context.Context, from, to string, start, end time.Time) ([]time.Time, error) {
	rows, err := s.db.Query(ctx, `SELECT rate_date FROM exchange_rates
WHERE from_currency=$1 AND to_currency=$2 AND rate_date BETWEEN $3 AND $4 ORDER BY rate_date`,
		from, to, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
