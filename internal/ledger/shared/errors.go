package shared

import "errors"

// Error categories. Every ledger error wraps exactly one of these so
// transport layers can map a failure to a response class with errors.Is.
var (
	// ErrValidation indicates malformed or unbalanced input, or an
	// operation requested against a journal in the wrong status.
	ErrValidation = errors.New("ledger: validation failed")
	// ErrNotFound indicates an unknown journal or account id.
	ErrNotFound = errors.New("ledger: not found")
	// ErrConflict indicates a duplicate source event or a number collision.
	ErrConflict = errors.New("ledger: conflict")
	// ErrConfiguration indicates incomplete setup rather than bad input.
	ErrConfiguration = errors.New("ledger: configuration incomplete")
)

// Named sentinels. Each carries its category so callers can test either
// the specific condition or the class.
var (
	// ErrUnbalanced indicates debit != credit in transaction currency.
	ErrUnbalanced = New(ErrValidation, "ledger: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = New(ErrValidation, "ledger: journal requires at least two lines")
	// ErrInvalidStatus indicates the journal status forbids the operation.
	ErrInvalidStatus = New(ErrValidation, "ledger: invalid status transition")
	// ErrJournalNotFound indicates a missing journal.
	ErrJournalNotFound = New(ErrNotFound, "ledger: journal not found")
	// ErrAccountNotFound indicates a missing account.
	ErrAccountNotFound = New(ErrNotFound, "ledger: account not found")
	// ErrNoOpenPeriod indicates no open fiscal period covers the date.
	ErrNoOpenPeriod = New(ErrConfiguration, "ledger: no open fiscal period for date")
	// ErrMappingNotFound indicates an event category without an account mapping.
	ErrMappingNotFound = New(ErrConfiguration, "ledger: account mapping not found")
	// ErrSourceAlreadyPosted indicates the source event was posted before.
	ErrSourceAlreadyPosted = New(ErrConflict, "ledger: source already posted")
)

type categorized struct {
	category error
	msg      string
}

func (e *categorized) Error() string { return e.msg }

func (e *categorized) Unwrap() error { return e.category }

// New builds an error carrying the given category.
func New(category error, msg string) error {
	return &categorized{category: category, msg: msg}
}
