package autopost

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atlas-pm/atlas-pm/internal/ledger/accounts"
	"github.com/atlas-pm/atlas-pm/internal/ledger/journals"
	"github.com/atlas-pm/atlas-pm/internal/ledger/shared"
)

// Event is one financial domain event to translate into a journal.
// AmountCents and TaxCents are transaction-currency minor units; the
// string fields feed description templates, the id fields become line
// dimensions.
type Event struct {
	ID          uuid.UUID
	Category    EventCategory
	AmountCents int64
	TaxCents    int64
	Currency    string
	Date        time.Time
	Tenant      string
	Unit        string
	Vendor      string
	Property    string
	PropertyID  *int64
	UnitID      *int64
	TenantID    *int64
	VendorID    *int64
}

// AccountDirectory resolves account numbers to live accounts.
type AccountDirectory interface {
	GetByNumber(ctx context.Context, businessID int64, number string) (accounts.Account, error)
}

// JournalCreator is the slice of the journal service the mapper drives.
type JournalCreator interface {
	Create(ctx context.Context, input journals.CreateInput) (journals.Journal, error)
}

// Service translates domain events into balanced journals and posts them.
type Service struct {
	table    map[EventCategory]Mapping
	accounts AccountDirectory
	journals JournalCreator
}

// NewService builds the mapper. The mapping table is validated exhaustively;
// a gap is a startup error, not a runtime surprise.
func NewService(table map[EventCategory]Mapping, accounts AccountDirectory, journals JournalCreator) (*Service, error) {
	if table == nil {
		table = DefaultMappings()
	}
	if err := ValidateMappings(table); err != nil {
		return nil, err
	}
	return &Service{table: table, accounts: accounts, journals: journals}, nil
}

// CreateFromEvent posts one domain event at most once. A repeated
// (category, event id) pair fails with a conflict and leaves the books
// untouched.
func (s *Service) CreateFromEvent(ctx context.Context, businessID, actorID int64, event Event) (journals.Journal, error) {
	if event.ID == uuid.Nil {
		return journals.Journal{}, shared.New(shared.ErrValidation, "autopost: event id required")
	}
	if event.AmountCents <= 0 {
		return journals.Journal{}, shared.New(shared.ErrValidation, "autopost: event amount must be positive")
	}
	if event.TaxCents < 0 {
		return journals.Journal{}, shared.New(shared.ErrValidation, "autopost: event tax cannot be negative")
	}
	mapping, ok := s.table[event.Category]
	if !ok {
		return journals.Journal{}, fmt.Errorf("%w: no mapping for event category %q", shared.ErrMappingNotFound, event.Category)
	}
	debitAccount, err := s.resolveAccount(ctx, businessID, mapping.DebitAccount, "debit")
	if err != nil {
		return journals.Journal{}, err
	}
	creditAccount, err := s.resolveAccount(ctx, businessID, mapping.CreditAccount, "credit")
	if err != nil {
		return journals.Journal{}, err
	}

	dims := dimensions{PropertyID: event.PropertyID, UnitID: event.UnitID, TenantID: event.TenantID, VendorID: event.VendorID}
	lines := []journals.LineInput{dims.line(debitAccount.ID, event.AmountCents, 0)}
	if event.TaxCents > 0 {
		if mapping.TaxAccount == "" {
			return journals.Journal{}, fmt.Errorf("%w: category %s carries tax but maps no tax account", shared.ErrMappingNotFound, event.Category)
		}
		taxAccount, err := s.resolveAccount(ctx, businessID, mapping.TaxAccount, "tax")
		if err != nil {
			return journals.Journal{}, err
		}
		tax := dims.line(taxAccount.ID, event.TaxCents, 0)
		tax.TaxAmount = event.TaxCents
		lines = append(lines, tax)
	}
	// The settlement side covers the net amount plus tax.
	lines = append(lines, dims.line(creditAccount.ID, 0, event.AmountCents+event.TaxCents))

	memo := renderDescription(mapping.Description, map[string]string{
		"tenant":   event.Tenant,
		"unit":     event.Unit,
		"vendor":   event.Vendor,
		"property": event.Property,
	})

	journal, err := s.journals.Create(ctx, journals.CreateInput{
		BusinessID: businessID,
		Type:       mapping.JournalType,
		Date:       event.Date,
		SourceType: string(event.Category),
		SourceID:   event.ID.String(),
		Currency:   event.Currency,
		Memo:       memo,
		AutoPost:   true,
		ActorID:    actorID,
		Lines:      lines,
	})
	if err != nil {
		return journals.Journal{}, err
	}
	return journal, nil
}

func (s *Service) resolveAccount(ctx context.Context, businessID int64, number, role string) (accounts.Account, error) {
	account, err := s.accounts.GetByNumber(ctx, businessID, number)
	if err != nil {
		if errors.Is(err, shared.ErrAccountNotFound) {
			return accounts.Account{}, fmt.Errorf("%w: mapped %s account %s does not exist", shared.ErrConfiguration, role, number)
		}
		return accounts.Account{}, err
	}
	return account, nil
}

type dimensions struct {
	PropertyID *int64
	UnitID     *int64
	TenantID   *int64
	VendorID   *int64
}

func (d dimensions) line(accountID, debit, credit int64) journals.LineInput {
	return journals.LineInput{
		AccountID:  accountID,
		Debit:      debit,
		Credit:     credit,
		PropertyID: d.PropertyID,
		UnitID:     d.UnitID,
		TenantID:   d.TenantID,
		VendorID:   d.VendorID,
	}
}
