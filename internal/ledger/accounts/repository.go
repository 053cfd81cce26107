package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-pm/atlas-pm/internal/ledger/shared"
)

const accountColumns = `id, business_id, number, name, type, normal_balance, parent_id, is_active, current_balance, ytd_debit, ytd_credit, created_at, updated_at`

// Repository reads chart-of-accounts rows. Balance mutation lives on the
// journals transaction repository, not here.
type Repository interface {
	List(ctx context.Context, businessID int64) ([]Account, error)
	GetByID(ctx context.Context, id int64) (Account, error)
	GetByNumber(ctx context.Context, businessID int64, number string) (Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, businessID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE business_id=$1 ORDER BY number`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id int64) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) GetByNumber(ctx context.Context, businessID int64, number string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE business_id=$1 AND number=$2`, businessID, number)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.BusinessID, &a.Number, &a.Name, &a.Type, &a.NormalBalance, &a.ParentID, &a.IsActive, &a.CurrentBalance, &a.YTDDebit, &a.YTDCredit, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
