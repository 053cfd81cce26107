// Package ledgerhttp exposes the journal engine over a JSON API.
package ledgerhttp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlas-pm/atlas-pm/internal/ledger/accounts"
	"github.com/atlas-pm/atlas-pm/internal/ledger/autopost"
	"github.com/atlas-pm/atlas-pm/internal/ledger/journals"
	"github.com/atlas-pm/atlas-pm/internal/ledger/periods"
	"github.com/atlas-pm/atlas-pm/internal/ledger/reconcile"
	"github.com/atlas-pm/atlas-pm/internal/ledger/shared"
)

// JournalService is the journal engine surface the handler drives.
type JournalService interface {
	Create(ctx context.Context, input journals.CreateInput) (journals.Journal, error)
	Update(ctx context.Context, id int64, input journals.UpdateInput) (journals.Journal, error)
	Delete(ctx context.Context, id, actorID int64) error
	Submit(ctx context.Context, id, actorID int64) (journals.Journal, error)
	Approve(ctx context.Context, id, actorID int64) (journals.Journal, error)
	Post(ctx context.Context, id, actorID int64) (journals.Journal, error)
	Void(ctx context.Context, id, actorID int64, reason string) (journals.Journal, error)
	Reverse(ctx context.Context, id, actorID int64, reversalDate time.Time) (journals.Journal, error)
	Get(ctx context.Context, id int64) (journals.Journal, error)
	List(ctx context.Context, businessID int64, filter journals.ListFilter) ([]journals.Journal, error)
	AccountLedger(ctx context.Context, accountID int64, q journals.LedgerQuery) ([]journals.LedgerEntry, error)
}

// EventService posts domain events.
type EventService interface {
	CreateFromEvent(ctx context.Context, businessID, actorID int64, event autopost.Event) (journals.Journal, error)
}

// AccountService lists the chart of accounts.
type AccountService interface {
	List(ctx context.Context, businessID int64) ([]accounts.Account, error)
}

// PeriodService exposes the fiscal calendar.
type PeriodService interface {
	ListByYear(ctx context.Context, businessID int64, fiscalYear int) ([]periods.Period, error)
}

// ReconcileService recomputes balances from the ledger.
type ReconcileService interface {
	ReconcileBusiness(ctx context.Context, businessID int64) ([]reconcile.Drift, error)
}

// Handler serves the ledger JSON API.
type Handler struct {
	logger    *slog.Logger
	journals  JournalService
	events    EventService
	accounts  AccountService
	periods   PeriodService
	reconcile ReconcileService
	validate  *validator.Validate
}

func NewHandler(logger *slog.Logger, journalSvc JournalService, events EventService, accountSvc AccountService, periodSvc PeriodService, reconcileSvc ReconcileService) *Handler {
	return &Handler{
		logger:    logger,
		journals:  journalSvc,
		events:    events,
		accounts:  accountSvc,
		periods:   periodSvc,
		reconcile: reconcileSvc,
		validate:  validator.New(),
	}
}

type journalLineRequest struct {
	AccountID  int64  `json:"account_id" validate:"required"`
	Debit      int64  `json:"debit_cents" validate:"gte=0"`
	Credit     int64  `json:"credit_cents" validate:"gte=0"`
	TaxAmount  int64  `json:"tax_cents" validate:"gte=0"`
	PropertyID *int64 `json:"property_id"`
	UnitID     *int64 `json:"unit_id"`
	TenantID   *int64 `json:"tenant_id"`
	VendorID   *int64 `json:"vendor_id"`
	Memo       string `json:"memo"`
}

type createJournalRequest struct {
	BusinessID   int64                `json:"business_id" validate:"required"`
	Type         string               `json:"type" validate:"required"`
	Date         string               `json:"date" validate:"required"`
	SourceType   string               `json:"source_type"`
	SourceID     string               `json:"source_id"`
	Currency     string               `json:"currency" validate:"required,len=3"`
	ExchangeRate string               `json:"exchange_rate"`
	Memo         string               `json:"memo"`
	AutoPost     bool                 `json:"auto_post"`
	ActorID      int64                `json:"actor_id" validate:"required"`
	Lines        []journalLineRequest `json:"lines" validate:"required,min=2,dive"`
}

func (h *Handler) createJournal(w http.ResponseWriter, r *http.Request) {
	var req createJournalRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, ok := h.parseDate(w, req.Date)
	if !ok {
		return
	}
	input := journals.CreateInput{
		BusinessID: req.BusinessID,
		Type:       journals.JournalType(req.Type),
		Date:       date,
		SourceType: req.SourceType,
		SourceID:   req.SourceID,
		Currency:   req.Currency,
		Memo:       req.Memo,
		AutoPost:   req.AutoPost,
		ActorID:    req.ActorID,
		Lines:      toLineInputs(req.Lines),
	}
	if req.ExchangeRate != "" {
		rate, err := decimal.NewFromString(req.ExchangeRate)
		if err != nil {
			h.writeError(w, shared.New(shared.ErrValidation, "ledger: malformed exchange rate"))
			return
		}
		input.ExchangeRate = &rate
	}
	journal, err := h.journals.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toJournalResponse(journal))
}

type updateJournalRequest struct {
	Date         string               `json:"date" validate:"required"`
	Currency     string               `json:"currency" validate:"required,len=3"`
	ExchangeRate string               `json:"exchange_rate"`
	Memo         string               `json:"memo"`
	ActorID      int64                `json:"actor_id" validate:"required"`
	Lines        []journalLineRequest `json:"lines" validate:"required,min=2,dive"`
}

func (h *Handler) updateJournal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req updateJournalRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, ok := h.parseDate(w, req.Date)
	if !ok {
		return
	}
	input := journals.UpdateInput{
		Date:     date,
		Currency: req.Currency,
		Memo:     req.Memo,
		ActorID:  req.ActorID,
		Lines:    toLineInputs(req.Lines),
	}
	if req.ExchangeRate != "" {
		rate, err := decimal.NewFromString(req.ExchangeRate)
		if err != nil {
			h.writeError(w, shared.New(shared.ErrValidation, "ledger: malformed exchange rate"))
			return
		}
		input.ExchangeRate = &rate
	}
	journal, err := h.journals.Update(r.Context(), id, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toJournalResponse(journal))
}

type actorRequest struct {
	ActorID int64 `json:"actor_id" validate:"required"`
}

func (h *Handler) deleteJournal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req actorRequest
	if !h.bind(w, r, &req) {
		return
	}
	if err := h.journals.Delete(r.Context(), id, req.ActorID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) submitJournal(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.journals.Submit)
}

func (h *Handler) approveJournal(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.journals.Approve)
}

func (h *Handler) postJournal(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.journals.Post)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, int64, int64) (journals.Journal, error)) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req actorRequest
	if !h.bind(w, r, &req) {
		return
	}
	journal, err := op(r.Context(), id, req.ActorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toJournalResponse(journal))
}

type voidRequest struct {
	ActorID int64  `json:"actor_id" validate:"required"`
	Reason  string `json:"reason" validate:"required"`
}

func (h *Handler) voidJournal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req voidRequest
	if !h.bind(w, r, &req) {
		return
	}
	journal, err := h.journals.Void(r.Context(), id, req.ActorID, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toJournalResponse(journal))
}

type reverseRequest struct {
	ActorID      int64  `json:"actor_id" validate:"required"`
	ReversalDate string `json:"reversal_date" validate:"required"`
}

func (h *Handler) reverseJournal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req reverseRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, ok := h.parseDate(w, req.ReversalDate)
	if !ok {
		return
	}
	journal, err := h.journals.Reverse(r.Context(), id, req.ActorID, date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toJournalResponse(journal))
}

func (h *Handler) getJournal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	journal, err := h.journals.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toJournalResponse(journal))
}

func (h *Handler) listJournals(w http.ResponseWriter, r *http.Request) {
	businessID, err := strconv.ParseInt(r.URL.Query().Get("business_id"), 10, 64)
	if err != nil || businessID == 0 {
		h.writeError(w, shared.New(shared.ErrValidation, "ledger: business_id query parameter required"))
		return
	}
	filter := journals.ListFilter{
		Status: journals.JournalStatus(r.URL.Query().Get("status")),
		Type:   journals.JournalType(r.URL.Query().Get("type")),
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		filter.Limit, _ = strconv.Atoi(limit)
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		filter.Offset, _ = strconv.Atoi(offset)
	}
	list, err := h.journals.List(r.Context(), businessID, filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]journalResponse, 0, len(list))
	for _, j := range list {
		out = append(out, toJournalResponse(j))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"journals": out})
}

type eventRequest struct {
	BusinessID  int64  `json:"business_id" validate:"required"`
	ActorID     int64  `json:"actor_id" validate:"required"`
	EventID     string `json:"event_id" validate:"required,uuid"`
	Category    string `json:"category" validate:"required"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	TaxCents    int64  `json:"tax_cents" validate:"gte=0"`
	Currency    string `json:"currency" validate:"required,len=3"`
	Date        string `json:"date" validate:"required"`
	Tenant      string `json:"tenant"`
	Unit        string `json:"unit"`
	Vendor      string `json:"vendor"`
	Property    string `json:"property"`
	PropertyID  *int64 `json:"property_id"`
	UnitID      *int64 `json:"unit_id"`
	TenantID    *int64 `json:"tenant_id"`
	VendorID    *int64 `json:"vendor_id"`
}

func (h *Handler) createFromEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, ok := h.parseDate(w, req.Date)
	if !ok {
		return
	}
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		h.writeError(w, shared.New(shared.ErrValidation, "ledger: malformed event id"))
		return
	}
	journal, err := h.events.CreateFromEvent(r.Context(), req.BusinessID, req.ActorID, autopost.Event{
		ID:          eventID,
		Category:    autopost.EventCategory(req.Category),
		AmountCents: req.AmountCents,
		TaxCents:    req.TaxCents,
		Currency:    req.Currency,
		Date:        date,
		Tenant:      req.Tenant,
		Unit:        req.Unit,
		Vendor:      req.Vendor,
		Property:    req.Property,
		PropertyID:  req.PropertyID,
		UnitID:      req.UnitID,
		TenantID:    req.TenantID,
		VendorID:    req.VendorID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toJournalResponse(journal))
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	businessID, err := strconv.ParseInt(r.URL.Query().Get("business_id"), 10, 64)
	if err != nil || businessID == 0 {
		h.writeError(w, shared.New(shared.ErrValidation, "ledger: business_id query parameter required"))
		return
	}
	list, err := h.accounts.List(r.Context(), businessID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"accounts": toAccountResponses(list)})
}

func (h *Handler) accountLedger(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var q journals.LedgerQuery
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		date, ok := h.parseDate(w, raw)
		if !ok {
			return
		}
		q.StartDate = &date
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		date, ok := h.parseDate(w, raw)
		if !ok {
			return
		}
		q.EndDate = &date
	}
	entries, err := h.journals.AccountLedger(r.Context(), id, q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"entries": toEntryResponses(entries)})
}

func (h *Handler) listPeriods(w http.ResponseWriter, r *http.Request) {
	businessID, err := strconv.ParseInt(r.URL.Query().Get("business_id"), 10, 64)
	if err != nil || businessID == 0 {
		h.writeError(w, shared.New(shared.ErrValidation, "ledger: business_id query parameter required"))
		return
	}
	year := time.Now().UTC().Year()
	if raw := r.URL.Query().Get("fiscal_year"); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, shared.New(shared.ErrValidation, "ledger: malformed fiscal_year"))
			return
		}
	}
	list, err := h.periods.ListByYear(r.Context(), businessID, year)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"periods": toPeriodResponses(list)})
}

type reconcileRequest struct {
	BusinessID int64 `json:"business_id" validate:"required"`
}

func (h *Handler) runReconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if !h.bind(w, r, &req) {
		return
	}
	drifts, err := h.reconcile.ReconcileBusiness(r.Context(), req.BusinessID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"drifts": drifts, "clean": len(drifts) == 0})
}

func toLineInputs(lines []journalLineRequest) []journals.LineInput {
	out := make([]journals.LineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, journals.LineInput{
			AccountID:  l.AccountID,
			Debit:      l.Debit,
			Credit:     l.Credit,
			TaxAmount:  l.TaxAmount,
			PropertyID: l.PropertyID,
			UnitID:     l.UnitID,
			TenantID:   l.TenantID,
			VendorID:   l.VendorID,
			Memo:       l.Memo,
		})
	}
	return out
}

func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, shared.New(shared.ErrValidation, "ledger: malformed request body"))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeError(w, shared.New(shared.ErrValidation, "ledger: "+err.Error()))
		return false
	}
	return true
}

func (h *Handler) parseDate(w http.ResponseWriter, raw string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		h.writeError(w, shared.New(shared.ErrValidation, "ledger: dates must be YYYY-MM-DD"))
		return time.Time{}, false
	}
	return date, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, shared.New(shared.ErrValidation, "ledger: invalid "+name))
		return 0, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encode response", slog.Any("error", err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, shared.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, shared.ErrConfiguration):
		status = http.StatusUnprocessableEntity
	default:
		h.logger.Error("ledger request failed", slog.Any("error", err))
		http.Error(w, http.StatusText(status), status)
		return
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
