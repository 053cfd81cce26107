package journals

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus enumerates journal lifecycle values. APPROVED exists only
// as a transient step inside the approval path and is never stored.
type JournalStatus string

const (
	JournalStatusDraft           JournalStatus = "DRAFT"
	JournalStatusPendingApproval JournalStatus = "PENDING_APPROVAL"
	JournalStatusPosted          JournalStatus = "POSTED"
	JournalStatusVoid            JournalStatus = "VOID"
	JournalStatusReversed        JournalStatus = "REVERSED"
)

// Editable reports whether the journal may still be changed or deleted.
func (s JournalStatus) Editable() bool {
	return s == JournalStatusDraft || s == JournalStatusPendingApproval
}

// JournalType enumerates journal books. Each (business, type) pair owns an
// independent number sequence.
type JournalType string

const (
	JournalTypeGeneral      JournalType = "GENERAL"
	JournalTypeCashReceipts JournalType = "CASH_RECEIPTS"
	JournalTypeCashPayments JournalType = "CASH_PAYMENTS"
	JournalTypeReversing    JournalType = "REVERSING"
)

// NumberPrefix returns the human-facing prefix for journal numbers.
func (t JournalType) NumberPrefix() string {
	switch t {
	case JournalTypeCashReceipts:
		return "CR"
	case JournalTypeCashPayments:
		return "CP"
	case JournalTypeReversing:
		return "RV"
	default:
		return "GJ"
	}
}

// SourceTypeReversal marks reversing journals; their source id is the
// original journal's id.
const SourceTypeReversal = "REVERSAL"

// Journal is the header of one balanced financial event. Amount totals are
// minor units: TotalDebit/TotalCredit in the transaction currency,
// TotalBaseDebit/TotalBaseCredit converted to the business base currency.
type Journal struct {
	ID              int64
	BusinessID      int64
	Number          string
	Type            JournalType
	Date            time.Time
	SourceType      string
	SourceID        string
	Currency        string
	BaseCurrency    string
	ExchangeRate    decimal.Decimal
	Status          JournalStatus
	TotalDebit      int64
	TotalCredit     int64
	TotalBaseDebit  int64
	TotalBaseCredit int64
	Memo            string
	PostedBy        *int64
	PostedAt        *time.Time
	VoidedBy        *int64
	VoidedAt        *time.Time
	VoidReason      string
	ReversedByID    *int64
	ReversesID      *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Lines           []JournalLine
}

// JournalLine carries one debit-or-credit amount against an account, in
// transaction-currency minor units plus base-currency equivalents. The
// dimension ids tag the line for reporting and survive reversal.
type JournalLine struct {
	ID         int64
	JournalID  int64
	AccountID  int64
	Debit      int64
	Credit     int64
	BaseDebit  int64
	BaseCredit int64
	TaxAmount  int64
	PropertyID *int64
	UnitID     *int64
	TenantID   *int64
	VendorID   *int64
	Memo       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LedgerEntry is the append-only projection of a posted line onto one
// account's timeline. Delta is the signed base-currency effect already
// interpreted through the account's normal balance, so voiding an entry is
// exactly applying -Delta. Entries are never removed, only flagged.
type LedgerEntry struct {
	ID            int64
	BusinessID    int64
	JournalID     int64
	JournalLineID int64
	AccountID     int64
	FiscalYear    int
	PeriodNumber  int
	PostingDate   time.Time
	Debit         int64
	Credit        int64
	Delta         int64
	Voided        bool
	CreatedAt     time.Time
}
