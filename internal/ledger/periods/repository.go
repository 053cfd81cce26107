package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-pm/atlas-pm/internal/ledger/shared"
)

type Repository interface {
	FindOpenByDate(ctx context.Context, businessID int64, date time.Time) (Period, error)
	ListByYear(ctx context.Context, businessID int64, fiscalYear int) ([]Period, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// FindOpenByDate returns the open period covering the supplied date.
func (r *repository) FindOpenByDate(ctx context.Context, businessID int64, date time.Time) (Period, error) {
	var p Period
	err := r.db.QueryRow(ctx, `SELECT id, business_id, fiscal_year, number, start_date, end_date, status, created_at, updated_at
FROM fiscal_periods WHERE business_id=$1 AND status='OPEN' AND $2 BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, businessID, date).
		Scan(&p.ID, &p.BusinessID, &p.FiscalYear, &p.Number, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrNoOpenPeriod
		}
		return Period{}, err
	}
	return p, nil
}

// ListByYear returns the calendar of periods for one fiscal year.
func (r *repository) ListByYear(ctx context.Context, businessID int64, fiscalYear int) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT id, business_id, fiscal_year, number, start_date, end_date, status, created_at, updated_at
FROM fiscal_periods WHERE business_id=$1 AND fiscal_year=$2 ORDER BY number`, businessID, fiscalYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.ID, &p.BusinessID, &p.FiscalYear, &p.Number, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
