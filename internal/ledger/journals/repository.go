package journals

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/atlas-pm/atlas-pm/internal/ledger/accounts"
	"github.com/atlas-pm/atlas-pm/internal/ledger/periods"
	"github.com/atlas-pm/atlas-pm/internal/ledger/shared"
	"github.com/atlas-pm/atlas-pm/internal/platform/db"
)

// Repository encapsulates journal persistence. Everything that mutates
// state runs through WithTx so a posting either lands whole or not at all.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetBaseCurrency(ctx context.Context, businessID int64) (string, error)
	GetJournal(ctx context.Context, id int64) (Journal, error)
	List(ctx context.Context, businessID int64, filter ListFilter) ([]Journal, error)
	ListAccountEntries(ctx context.Context, accountID int64, q LedgerQuery) ([]LedgerEntry, error)
}

// TxRepository exposes operations available inside a posting transaction.
type TxRepository interface {
	NextJournalNumber(ctx context.Context, businessID int64, t JournalType) (string, error)
	FindJournalBySource(ctx context.Context, businessID int64, sourceType, sourceID string) (Journal, error)
	InsertJournal(ctx context.Context, j *Journal) error
	InsertJournalLines(ctx context.Context, journalID int64, lines []JournalLine) ([]JournalLine, error)
	ReplaceJournalLines(ctx context.Context, journalID int64, lines []JournalLine) ([]JournalLine, error)
	UpdateJournalHeader(ctx context.Context, j *Journal) error
	DeleteJournal(ctx context.Context, journalID int64) error
	GetJournalForUpdate(ctx context.Context, id int64) (Journal, []JournalLine, error)
	MarkSubmitted(ctx context.Context, journalID int64) error
	MarkPosted(ctx context.Context, journalID, actorID int64, at time.Time) error
	MarkVoid(ctx context.Context, journalID, actorID int64, at time.Time, reason string) error
	MarkReversed(ctx context.Context, journalID, reversingID int64) error

	GetAccountForUpdate(ctx context.Context, accountID int64) (accounts.Account, error)
	ApplyBalanceDelta(ctx context.Context, accountID int64, delta, debit, credit int64) error
	InsertLedgerEntries(ctx context.Context, entries []LedgerEntry) error
	ListLedgerEntries(ctx context.Context, journalID int64) ([]LedgerEntry, error)
	MarkLedgerEntriesVoid(ctx context.Context, journalID int64) error

	FindOpenPeriod(ctx context.Context, businessID int64, date time.Time) (periods.Period, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *repository) GetBaseCurrency(ctx context.Context, businessID int64) (string, error) {
	var code string
	err := r.db.QueryRow(ctx, `SELECT base_currency FROM businesses WHERE id=$1`, businessID).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.New(shared.ErrNotFound, "ledger: business not found")
		}
		return "", err
	}
	return code, nil
}

const journalColumns = `id, business_id, number, type, date, source_type, source_id, currency, base_currency, exchange_rate::text, status,
total_debit, total_credit, total_base_debit, total_base_credit, memo, posted_by, posted_at, voided_by, voided_at, void_reason,
reversed_by_id, reverses_id, created_at, updated_at`

func (r *repository) GetJournal(ctx context.Context, id int64) (Journal, error) {
	j, err := scanJournal(r.db.QueryRow(ctx, `SELECT `+journalColumns+` FROM journals WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Journal{}, shared.ErrJournalNotFound
		}
		return Journal{}, err
	}
	lines, err := queryLines(ctx, r.db, id)
	if err != nil {
		return Journal{}, err
	}
	j.Lines = lines
	return j, nil
}

func (r *repository) List(ctx context.Context, businessID int64, filter ListFilter) ([]Journal, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `SELECT `+journalColumns+` FROM journals
WHERE business_id=$1 AND ($2='' OR status=$2) AND ($3='' OR type=$3)
ORDER BY date DESC, id DESC LIMIT $4 OFFSET $5`,
		businessID, string(filter.Status), string(filter.Type), limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Journal
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *repository) ListAccountEntries(ctx context.Context, accountID int64, q LedgerQuery) ([]LedgerEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT id, business_id, journal_id, journal_line_id, account_id, fiscal_year, period_number, posting_date, debit, credit, delta, voided, created_at
FROM ledger_entries WHERE account_id=$1
AND ($2::date IS NULL OR posting_date >= $2)
AND ($3::date IS NULL OR posting_date <= $3)
ORDER BY posting_date, id`, accountID, q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

type txRepository struct {
	tx pgx.Tx
}

// NextJournalNumber increments the per-(business, type) counter row. The
// increment commits or rolls back with the surrounding transaction, so a
// failed creation never burns a number.
func (r *txRepository) NextJournalNumber(ctx context.Context, businessID int64, t JournalType) (string, error) {
	var seq int64
	err := r.tx.QueryRow(ctx, `INSERT INTO journal_counters (business_id, journal_type, value) VALUES ($1,$2,1)
ON CONFLICT (business_id, journal_type) DO UPDATE SET value = journal_counters.value + 1
RETURNING value`, businessID, string(t)).Scan(&seq)
	if err != nil {
		return "", err
	}
	return formatNumber(t, seq), nil
}

func (r *txRepository) FindJournalBySource(ctx context.Context, businessID int64, sourceType, sourceID string) (Journal, error) {
	j, err := scanJournal(r.tx.QueryRow(ctx, `SELECT `+journalColumns+` FROM journals
WHERE business_id=$1 AND source_type=$2 AND source_id=$3`, businessID, sourceType, sourceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Journal{}, shared.ErrJournalNotFound
		}
		return Journal{}, err
	}
	return j, nil
}

func (r *txRepository) InsertJournal(ctx context.Context, j *Journal) error {
	err := r.tx.QueryRow(ctx, `INSERT INTO journals
(business_id, number, type, date, source_type, source_id, currency, base_currency, exchange_rate, status,
 total_debit, total_credit, total_base_debit, total_base_credit, memo)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::numeric,$10,$11,$12,$13,$14,$15)
RETURNING id, created_at, updated_at`,
		j.BusinessID, j.Number, string(j.Type), j.Date, j.SourceType, j.SourceID, j.Currency, j.BaseCurrency,
		j.ExchangeRate.String(), string(j.Status), j.TotalDebit, j.TotalCredit, j.TotalBaseDebit, j.TotalBaseCredit, j.Memo).
		Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "uq_journals_source" {
				return shared.ErrSourceAlreadyPosted
			}
			return shared.New(shared.ErrConflict, "ledger: journal number collision")
		}
		return err
	}
	return nil
}

func (r *txRepository) InsertJournalLines(ctx context.Context, journalID int64, lines []JournalLine) ([]JournalLine, error) {
	out := make([]JournalLine, 0, len(lines))
	for _, line := range lines {
		line.JournalID = journalID
		err := r.tx.QueryRow(ctx, `INSERT INTO journal_lines
(journal_id, account_id, debit, credit, base_debit, base_credit, tax_amount, property_id, unit_id, tenant_id, vendor_id, memo)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING id, created_at, updated_at`,
			journalID, line.AccountID, line.Debit, line.Credit, line.BaseDebit, line.BaseCredit, line.TaxAmount,
			line.PropertyID, line.UnitID, line.TenantID, line.VendorID, line.Memo).
			Scan(&line.ID, &line.CreatedAt, &line.UpdatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}

func (r *txRepository) ReplaceJournalLines(ctx context.Context, journalID int64, lines []JournalLine) ([]JournalLine, error) {
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE journal_id=$1`, journalID); err != nil {
		return nil, err
	}
	return r.InsertJournalLines(ctx, journalID, lines)
}

func (r *txRepository) UpdateJournalHeader(ctx context.Context, j *Journal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journals SET date=$2, currency=$3, exchange_rate=$4::numeric, memo=$5,
total_debit=$6, total_credit=$7, total_base_debit=$8, total_base_credit=$9, updated_at=NOW() WHERE id=$1`,
		j.ID, j.Date, j.Currency, j.ExchangeRate.String(), j.Memo, j.TotalDebit, j.TotalCredit, j.TotalBaseDebit, j.TotalBaseCredit)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	return nil
}

func (r *txRepository) DeleteJournal(ctx context.Context, journalID int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE journal_id=$1`, journalID); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journals WHERE id=$1`, journalID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	return nil
}

func (r *txRepository) GetJournalForUpdate(ctx context.Context, id int64) (Journal, []JournalLine, error) {
	j, err := scanJournal(r.tx.QueryRow(ctx, `SELECT `+journalColumns+` FROM journals WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Journal{}, nil, shared.ErrJournalNotFound
		}
		return Journal{}, nil, err
	}
	lines, err := queryLines(ctx, r.tx, id)
	if err != nil {
		return Journal{}, nil, err
	}
	return j, lines, nil
}

func (r *txRepository) MarkSubmitted(ctx context.Context, journalID int64) error {
	return r.setStatus(ctx, journalID, `UPDATE journals SET status='PENDING_APPROVAL', updated_at=NOW() WHERE id=$1`)
}

func (r *txRepository) MarkPosted(ctx context.Context, journalID, actorID int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journals SET status='POSTED', posted_by=$2, posted_at=$3, updated_at=NOW() WHERE id=$1`, journalID, actorID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	return nil
}

func (r *txRepository) MarkVoid(ctx context.Context, journalID, actorID int64, at time.Time, reason string) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journals SET status='VOID', voided_by=$2, voided_at=$3, void_reason=$4, updated_at=NOW() WHERE id=$1`, journalID, actorID, at, reason)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	return nil
}

func (r *txRepository) MarkReversed(ctx context.Context, journalID, reversingID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journals SET status='REVERSED', reversed_by_id=$2, updated_at=NOW() WHERE id=$1`, journalID, reversingID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	return nil
}

func (r *txRepository) setStatus(ctx context.Context, journalID int64, query string) error {
	cmd, err := r.tx.Exec(ctx, query, journalID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	return nil
}

// GetAccountForUpdate locks the account row so concurrent postings to the
// same account serialize their balance mutation.
func (r *txRepository) GetAccountForUpdate(ctx context.Context, accountID int64) (accounts.Account, error) {
	var a accounts.Account
	err := r.tx.QueryRow(ctx, `SELECT id, business_id, number, name, type, normal_balance, parent_id, is_active, current_balance, ytd_debit, ytd_credit, created_at, updated_at
FROM accounts WHERE id=$1 FOR UPDATE`, accountID).
		Scan(&a.ID, &a.BusinessID, &a.Number, &a.Name, &a.Type, &a.NormalBalance, &a.ParentID, &a.IsActive, &a.CurrentBalance, &a.YTDDebit, &a.YTDCredit, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.ErrAccountNotFound
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *txRepository) ApplyBalanceDelta(ctx context.Context, accountID int64, delta, debit, credit int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET current_balance = current_balance + $2,
ytd_debit = ytd_debit + $3, ytd_credit = ytd_credit + $4, updated_at=NOW() WHERE id=$1`, accountID, delta, debit, credit)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *txRepository) InsertLedgerEntries(ctx context.Context, entries []LedgerEntry) error {
	for _, e := range entries {
		if _, err := r.tx.Exec(ctx, `INSERT INTO ledger_entries
(business_id, journal_id, journal_line_id, account_id, fiscal_year, period_number, posting_date, debit, credit, delta, voided)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,false)`,
			e.BusinessID, e.JournalID, e.JournalLineID, e.AccountID, e.FiscalYear, e.PeriodNumber, e.PostingDate, e.Debit, e.Credit, e.Delta); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) ListLedgerEntries(ctx context.Context, journalID int64) ([]LedgerEntry, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, business_id, journal_id, journal_line_id, account_id, fiscal_year, period_number, posting_date, debit, credit, delta, voided, created_at
FROM ledger_entries WHERE journal_id=$1 ORDER BY id`, journalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (r *txRepository) MarkLedgerEntriesVoid(ctx context.Context, journalID int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE ledger_entries SET voided=true WHERE journal_id=$1`, journalID)
	return err
}

func (r *txRepository) FindOpenPeriod(ctx context.Context, businessID int64, date time.Time) (periods.Period, error) {
	var p periods.Period
	err := r.tx.QueryRow(ctx, `SELECT id, business_id, fiscal_year, number, start_date, end_date, status, created_at, updated_at
FROM fiscal_periods WHERE business_id=$1 AND status='OPEN' AND $2 BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, businessID, date).
		Scan(&p.ID, &p.BusinessID, &p.FiscalYear, &p.Number, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, shared.ErrNoOpenPeriod
		}
		return periods.Period{}, err
	}
	return p, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q queryer, journalID int64) ([]JournalLine, error) {
	rows, err := q.Query(ctx, `SELECT id, journal_id, account_id, debit, credit, base_debit, base_credit, tax_amount, property_id, unit_id, tenant_id, vendor_id, memo, created_at, updated_at
FROM journal_lines WHERE journal_id=$1 ORDER BY id`, journalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.JournalID, &line.AccountID, &line.Debit, &line.Credit, &line.BaseDebit, &line.BaseCredit, &line.TaxAmount,
			&line.PropertyID, &line.UnitID, &line.TenantID, &line.VendorID, &line.Memo, &line.CreatedAt, &line.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func collectEntries(rows pgx.Rows) ([]LedgerEntry, error) {
	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.BusinessID, &e.JournalID, &e.JournalLineID, &e.AccountID, &e.FiscalYear, &e.PeriodNumber,
			&e.PostingDate, &e.Debit, &e.Credit, &e.Delta, &e.Voided, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanJournal(row pgx.Row) (Journal, error) {
	var j Journal
	var rate string
	err := row.Scan(&j.ID, &j.BusinessID, &j.Number, &j.Type, &j.Date, &j.SourceType, &j.SourceID, &j.Currency, &j.BaseCurrency, &rate, &j.Status,
		&j.TotalDebit, &j.TotalCredit, &j.TotalBaseDebit, &j.TotalBaseCredit, &j.Memo, &j.PostedBy, &j.PostedAt, &j.VoidedBy, &j.VoidedAt, &j.VoidReason,
		&j.ReversedByID, &j.ReversesID, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return Journal{}, err
	}
	j.ExchangeRate, err = decimal.NewFromString(rate)
	return j, err
}
