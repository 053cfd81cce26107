package journals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-pm/atlas-pm/internal/ledger/shared"
	internalShared "github.com/atlas-pm/atlas-pm/internal/shared"
)

// RateResolver answers conversion rates; it never fails on a miss.
type RateResolver interface {
	Resolve(ctx context.Context, from, to string, on time.Time) decimal.Decimal
}

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// ApprovalPort persists the submit/approve history of a journal.
type ApprovalPort interface {
	Record(ctx context.Context, log internalShared.ApprovalLog) error
}

// Service coordinates building, posting, voiding, and reversing journals.
type Service struct {
	repo      Repository
	rates     RateResolver
	audit     AuditPort
	approvals ApprovalPort
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, rates RateResolver, audit AuditPort, approvals ApprovalPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, rates: rates, audit: audit, approvals: approvals, logger: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create validates the proposed lines, resolves the exchange rate, assigns
// the next journal number, and persists the journal as a draft. With
// AutoPost set the journal is posted inside the same transaction, so a
// posting failure releases the number along with everything else.
func (s *Service) Create(ctx context.Context, input CreateInput) (Journal, error) {
	if err := input.Validate(); err != nil {
		return Journal{}, err
	}
	baseCurrency, err := s.repo.GetBaseCurrency(ctx, input.BusinessID)
	if err != nil {
		return Journal{}, err
	}
	rate := s.resolveRate(ctx, input.Currency, baseCurrency, input.ExchangeRate, input.Date)
	now := s.now()
	lines, residual := buildLines(input.Lines, rate, now)
	if residual != 0 && s.logger != nil {
		s.logger.Warn("base currency rounding residual absorbed",
			slog.Int64("residual", residual), slog.String("currency", input.Currency))
	}
	debit, credit, baseDebit, baseCredit := totals(lines)

	journal := Journal{
		BusinessID:      input.BusinessID,
		Type:            input.Type,
		Date:            input.Date,
		SourceType:      input.SourceType,
		SourceID:        input.SourceID,
		Currency:        input.Currency,
		BaseCurrency:    baseCurrency,
		ExchangeRate:    rate,
		Status:          JournalStatusDraft,
		TotalDebit:      debit,
		TotalCredit:     credit,
		TotalBaseDebit:  baseDebit,
		TotalBaseCredit: baseCredit,
		Memo:            input.Memo,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if input.SourceType != "" {
			if _, err := tx.FindJournalBySource(ctx, input.BusinessID, input.SourceType, input.SourceID); err == nil {
				return shared.ErrSourceAlreadyPosted
			} else if !errors.Is(err, shared.ErrJournalNotFound) {
				return err
			}
		}
		number, err := tx.NextJournalNumber(ctx, input.BusinessID, input.Type)
		if err != nil {
			return err
		}
		journal.Number = number
		if err := tx.InsertJournal(ctx, &journal); err != nil {
			return err
		}
		inserted, err := tx.InsertJournalLines(ctx, journal.ID, lines)
		if err != nil {
			return err
		}
		journal.Lines = inserted
		if input.AutoPost {
			return s.postLocked(ctx, tx, &journal, input.ActorID)
		}
		return nil
	})
	if err != nil {
		return Journal{}, err
	}
	s.recordAudit(ctx, input.ActorID, "journal.create", journal, map[string]any{
		"number": journal.Number,
		"type":   string(journal.Type),
		"status": string(journal.Status),
	})
	if input.AutoPost {
		s.recordAudit(ctx, input.ActorID, "journal.post", journal, map[string]any{"number": journal.Number})
	}
	return journal, nil
}

// Update replaces lines and header fields of an editable journal,
// re-validating the balance invariant and recomputing base equivalents.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Journal, error) {
	if err := input.Validate(); err != nil {
		return Journal{}, err
	}
	var journal Journal
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, _, err := tx.GetJournalForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.Editable() {
			return shared.ErrInvalidStatus
		}
		rate := s.resolveRate(ctx, input.Currency, current.BaseCurrency, input.ExchangeRate, input.Date)
		now := s.now()
		lines, _ := buildLines(input.Lines, rate, now)
		debit, credit, baseDebit, baseCredit := totals(lines)

		current.Date = input.Date
		current.Currency = input.Currency
		current.ExchangeRate = rate
		current.Memo = input.Memo
		current.TotalDebit = debit
		current.TotalCredit = credit
		current.TotalBaseDebit = baseDebit
		current.TotalBaseCredit = baseCredit
		if err := tx.UpdateJournalHeader(ctx, &current); err != nil {
			return err
		}
		replaced, err := tx.ReplaceJournalLines(ctx, id, lines)
		if err != nil {
			return err
		}
		current.Lines = replaced
		journal = current
		return nil
	})
	if err != nil {
		return Journal{}, err
	}
	return journal, nil
}

// Delete removes a journal that has never been posted.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, _, err := tx.GetJournalForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.Editable() {
			return shared.ErrInvalidStatus
		}
		return tx.DeleteJournal(ctx, id)
	})
	return err
}

// Submit moves a draft into the approval queue. No ledger side effects.
func (s *Service) Submit(ctx context.Context, id, actorID int64) (Journal, error) {
	var journal Journal
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, lines, err := tx.GetJournalForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != JournalStatusDraft {
			return shared.ErrInvalidStatus
		}
		if err := tx.MarkSubmitted(ctx, id); err != nil {
			return err
		}
		current.Status = JournalStatusPendingApproval
		current.Lines = lines
		journal = current
		return nil
	})
	if err != nil {
		return Journal{}, err
	}
	s.recordApproval(ctx, actorID, internalShared.ApprovalSubmit, journal)
	return journal, nil
}

// Approve accepts a pending journal and immediately posts it.
func (s *Service) Approve(ctx context.Context, id, actorID int64) (Journal, error) {
	var journal Journal
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, lines, err := tx.GetJournalForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != JournalStatusPendingApproval {
			return shared.ErrInvalidStatus
		}
		current.Lines = lines
		if err := s.postLocked(ctx, tx, &current, actorID); err != nil {
			return err
		}
		journal = current
		return nil
	})
	if err != nil {
		return Journal{}, err
	}
	s.recordApproval(ctx, actorID, internalShared.ApprovalApprove, journal)
	s.recordAudit(ctx, actorID, "journal.post", journal, map[string]any{"number": journal.Number})
	return journal, nil
}

// Post commits a draft or approved journal to the ledger.
func (s *Service) Post(ctx context.Context, id, actorID int64) (Journal, error) {
	var journal Journal
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, lines, err := tx.GetJournalForUpdate(ctx, id)
		if err != nil {
			return err
		}
		current.Lines = lines
		if err := s.postLocked(ctx, tx, &current, actorID); err != nil {
			return err
		}
		journal = current
		return nil
	})
	if err != nil {
		return Journal{}, err
	}
	s.recordAudit(ctx, actorID, "journal.post", journal, map[string]any{"number": journal.Number})
	return journal, nil
}

// postLocked runs the posting sequence against a journal already locked in
// the current transaction: status gate, balance re-check, period
// resolution, ledger entry inserts, and balance mutation. The caller's
// transaction makes the whole sequence atomic.
func (s *Service) postLocked(ctx context.Context, tx TxRepository, j *Journal, actorID int64) error {
	if !j.Status.Editable() {
		return shared.ErrInvalidStatus
	}
	var debit, credit int64
	for _, line := range j.Lines {
		debit += line.Debit
		credit += line.Credit
	}
	if debit != credit {
		return fmt.Errorf("%w: debit %d != credit %d", shared.ErrUnbalanced, debit, credit)
	}
	period, err := tx.FindOpenPeriod(ctx, j.BusinessID, j.Date)
	if err != nil {
		return err
	}
	now := s.now()
	entries := make([]LedgerEntry, 0, len(j.Lines))
	for _, line := range j.Lines {
		account, err := tx.GetAccountForUpdate(ctx, line.AccountID)
		if err != nil {
			return err
		}
		delta := account.Delta(line.BaseDebit, line.BaseCredit)
		if err := tx.ApplyBalanceDelta(ctx, account.ID, delta, line.BaseDebit, line.BaseCredit); err != nil {
			return err
		}
		entries = append(entries, LedgerEntry{
			BusinessID:    j.BusinessID,
			JournalID:     j.ID,
			JournalLineID: line.ID,
			AccountID:     line.AccountID,
			FiscalYear:    period.FiscalYear,
			PeriodNumber:  period.Number,
			PostingDate:   j.Date,
			Debit:         line.BaseDebit,
			Credit:        line.BaseCredit,
			Delta:         delta,
		})
	}
	if err := tx.InsertLedgerEntries(ctx, entries); err != nil {
		return err
	}
	if err := tx.MarkPosted(ctx, j.ID, actorID, now); err != nil {
		return err
	}
	j.Status = JournalStatusPosted
	j.PostedBy = &actorID
	j.PostedAt = &now
	return nil
}

// Void retracts a posted journal in place: every account gets the exact
// negative of the delta applied at post time and the ledger entries are
// soft-flagged, never removed.
func (s *Service) Void(ctx context.Context, id, actorID int64, reason string) (Journal, error) {
	var journal Journal
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, lines, err := tx.GetJournalForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != JournalStatusPosted {
			return shared.ErrInvalidStatus
		}
		entries, err := tx.ListLedgerEntries(ctx, id)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.Voided {
				continue
			}
			if _, err := tx.GetAccountForUpdate(ctx, e.AccountID); err != nil {
				return err
			}
			if err := tx.ApplyBalanceDelta(ctx, e.AccountID, -e.Delta, -e.Debit, -e.Credit); err != nil {
				return err
			}
		}
		if err := tx.MarkLedgerEntriesVoid(ctx, id); err != nil {
			return err
		}
		now := s.now()
		if err := tx.MarkVoid(ctx, id, actorID, now, reason); err != nil {
			return err
		}
		current.Status = JournalStatusVoid
		current.VoidedBy = &actorID
		current.VoidedAt = &now
		current.VoidReason = reason
		current.Lines = lines
		journal = current
		return nil
	})
	if err != nil {
		return Journal{}, err
	}
	s.recordAudit(ctx, actorID, "journal.void", journal, map[string]any{"reason": reason})
	return journal, nil
}

// Reverse offsets a posted journal with a new reversing journal dated
// reversalDate. Both stay visible in the ledger; the original's status
// becomes REVERSED and the two are linked.
func (s *Service) Reverse(ctx context.Context, id, actorID int64, reversalDate time.Time) (Journal, error) {
	if reversalDate.IsZero() {
		return Journal{}, shared.New(shared.ErrValidation, "ledger: reversal date required")
	}
	var reversal Journal
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, lines, err := tx.GetJournalForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if original.Status != JournalStatusPosted {
			return shared.ErrInvalidStatus
		}
		now := s.now()
		reversed := reverseLines(lines, now)
		debit, credit, baseDebit, baseCredit := totals(reversed)
		entry := Journal{
			BusinessID:      original.BusinessID,
			Type:            JournalTypeReversing,
			Date:            reversalDate,
			SourceType:      SourceTypeReversal,
			SourceID:        fmt.Sprintf("%d", original.ID),
			Currency:        original.Currency,
			BaseCurrency:    original.BaseCurrency,
			ExchangeRate:    original.ExchangeRate,
			Status:          JournalStatusDraft,
			TotalDebit:      debit,
			TotalCredit:     credit,
			TotalBaseDebit:  baseDebit,
			TotalBaseCredit: baseCredit,
			Memo:            reversalMemo(original.Number),
			ReversesID:      &original.ID,
		}
		number, err := tx.NextJournalNumber(ctx, original.BusinessID, JournalTypeReversing)
		if err != nil {
			return err
		}
		entry.Number = number
		if err := tx.InsertJournal(ctx, &entry); err != nil {
			return err
		}
		inserted, err := tx.InsertJournalLines(ctx, entry.ID, reversed)
		if err != nil {
			return err
		}
		entry.Lines = inserted
		if err := s.postLocked(ctx, tx, &entry, actorID); err != nil {
			return err
		}
		if err := tx.MarkReversed(ctx, original.ID, entry.ID); err != nil {
			return err
		}
		reversal = entry
		return nil
	})
	if err != nil {
		return Journal{}, err
	}
	s.recordAudit(ctx, actorID, "journal.reverse", reversal, map[string]any{
		"original_id":     id,
		"reversal_number": reversal.Number,
	})
	return reversal, nil
}

// Get returns a journal with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Journal, error) {
	return s.repo.GetJournal(ctx, id)
}

// List returns journal headers for a business.
func (s *Service) List(ctx context.Context, businessID int64, filter ListFilter) ([]Journal, error) {
	return s.repo.List(ctx, businessID, filter)
}

// AccountLedger returns an account's ledger entries, voided entries
// included with their flag set.
func (s *Service) AccountLedger(ctx context.Context, accountID int64, q LedgerQuery) ([]LedgerEntry, error) {
	return s.repo.ListAccountEntries(ctx, accountID, q)
}

func (s *Service) resolveRate(ctx context.Context, from, to string, explicit *decimal.Decimal, on time.Time) decimal.Decimal {
	if explicit != nil {
		return *explicit
	}
	if from == to || s.rates == nil {
		return decimal.NewFromInt(1)
	}
	return s.rates.Resolve(ctx, from, to, on)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, j Journal, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "journal",
		EntityID: fmt.Sprintf("%d", j.ID),
		Meta:     meta,
		At:       s.now(),
	})
}

func (s *Service) recordApproval(ctx context.Context, actorID int64, action internalShared.ApprovalAction, j Journal) {
	if s.approvals == nil {
		return
	}
	_ = s.approvals.Record(ctx, internalShared.ApprovalLog{
		Module:  "ledger",
		RefID:   j.ID,
		ActorID: actorID,
		Action:  action,
		At:      s.now(),
	})
}

func reversalMemo(number string) string {
	return fmt.Sprintf("Reversal of %s", number)
}
