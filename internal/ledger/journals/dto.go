package journals

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-pm/atlas-pm/internal/ledger/rates"
	"github.com/atlas-pm/atlas-pm/internal/ledger/shared"
)

// LineInput describes one proposed journal line. Amounts are
// transaction-currency minor units; exactly one of Debit/Credit should be
// nonzero, though a zero/zero placeholder line is tolerated.
type LineInput struct {
	AccountID  int64
	Debit      int64
	Credit     int64
	TaxAmount  int64
	PropertyID *int64
	UnitID     *int64
	TenantID   *int64
	VendorID   *int64
	Memo       string
}

// CreateInput groups fields required to build a journal.
type CreateInput struct {
	BusinessID   int64
	Type         JournalType
	Date         time.Time
	SourceType   string
	SourceID     string
	Currency     string
	ExchangeRate *decimal.Decimal
	Memo         string
	AutoPost     bool
	ActorID      int64
	Lines        []LineInput
}

// Validate enforces the balance invariant and basic line hygiene before
// anything touches the store.
func (in CreateInput) Validate() error {
	if in.BusinessID == 0 {
		return shared.New(shared.ErrValidation, "ledger: business id required")
	}
	if in.Date.IsZero() {
		return shared.New(shared.ErrValidation, "ledger: journal date required")
	}
	switch in.Type {
	case JournalTypeGeneral, JournalTypeCashReceipts, JournalTypeCashPayments, JournalTypeReversing:
	default:
		return shared.New(shared.ErrValidation, fmt.Sprintf("ledger: unknown journal type %q", in.Type))
	}
	if !rates.ValidCurrency(in.Currency) {
		return shared.New(shared.ErrValidation, fmt.Sprintf("ledger: invalid currency code %q", in.Currency))
	}
	if in.ExchangeRate != nil && in.ExchangeRate.Sign() <= 0 {
		return shared.New(shared.ErrValidation, "ledger: exchange rate must be positive")
	}
	if (in.SourceType == "") != (in.SourceID == "") {
		return shared.New(shared.ErrValidation, "ledger: source type and source id must be supplied together")
	}
	return validateLines(in.Lines)
}

// UpdateInput carries replacement header fields and lines for an editable
// journal. The journal type and source reference are fixed at creation.
type UpdateInput struct {
	Date         time.Time
	Currency     string
	ExchangeRate *decimal.Decimal
	Memo         string
	ActorID      int64
	Lines        []LineInput
}

func (in UpdateInput) Validate() error {
	if in.Date.IsZero() {
		return shared.New(shared.ErrValidation, "ledger: journal date required")
	}
	if !rates.ValidCurrency(in.Currency) {
		return shared.New(shared.ErrValidation, fmt.Sprintf("ledger: invalid currency code %q", in.Currency))
	}
	if in.ExchangeRate != nil && in.ExchangeRate.Sign() <= 0 {
		return shared.New(shared.ErrValidation, "ledger: exchange rate must be positive")
	}
	return validateLines(in.Lines)
}

func validateLines(lines []LineInput) error {
	if len(lines) < 2 {
		return shared.ErrTooFewLines
	}
	var debit, credit int64
	for idx, line := range lines {
		if line.AccountID == 0 {
			return shared.New(shared.ErrValidation, fmt.Sprintf("ledger: line %d missing account", idx))
		}
		if line.Debit < 0 || line.Credit < 0 {
			return shared.New(shared.ErrValidation, fmt.Sprintf("ledger: line %d negative amount", idx))
		}
		if line.Debit > 0 && line.Credit > 0 {
			return shared.New(shared.ErrValidation, fmt.Sprintf("ledger: line %d cannot be both debit and credit", idx))
		}
		debit += line.Debit
		credit += line.Credit
	}
	if debit != credit {
		return fmt.Errorf("%w: debit %d != credit %d", shared.ErrUnbalanced, debit, credit)
	}
	return nil
}

// LedgerQuery filters an account's ledger entries.
type LedgerQuery struct {
	StartDate *time.Time
	EndDate   *time.Time
}

// ListFilter narrows journal listings.
type ListFilter struct {
	Status JournalStatus
	Type   JournalType
	Limit  int
	Offset int
}
