package ledgerhttp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/atlas-pm/atlas-pm/internal/ledger/accounts"
	"github.com/atlas-pm/atlas-pm/internal/ledger/autopost"
	"github.com/atlas-pm/atlas-pm/internal/ledger/journals"
	"github.com/atlas-pm/atlas-pm/internal/ledger/periods"
	"github.com/atlas-pm/atlas-pm/internal/ledger/reconcile"
	"github.com/atlas-pm/atlas-pm/internal/ledger/shared"
)

type stubJournals struct {
	created   *journals.CreateInput
	journal   journals.Journal
	err       error
	voidedID  int64
	voidCause string
}

func (s *stubJournals) Create(_ context.Context, input journals.CreateInput) (journals.Journal, error) {
	s.created = &input
	return s.journal, s.err
}

func (s *stubJournals) Update(context.Context, int64, journals.UpdateInput) (journals.Journal, error) {
	return s.journal, s.err
}

func (s *stubJournals) Delete(context.Context, int64, int64) error { return s.err }

func (s *stubJournals) Submit(context.Context, int64, int64) (journals.Journal, error) {
	return s.journal, s.err
}

func (s *stubJournals) Approve(context.Context, int64, int64) (journals.Journal, error) {
	return s.journal, s.err
}

func (s *stubJournals) Post(context.Context, int64, int64) (journals.Journal, error) {
	return s.journal, s.err
}

func (s *stubJournals) Void(_ context.Context, id, _ int64, reason string) (journals.Journal, error) {
	s.voidedID = id
	s.voidCause = reason
	return s.journal, s.err
}

func (s *stubJournals) Reverse(context.Context, int64, int64, time.Time) (journals.Journal, error) {
	return s.journal, s.err
}

func (s *stubJournals) Get(context.Context, int64) (journals.Journal, error) {
	return s.journal, s.err
}

func (s *stubJournals) List(context.Context, int64, journals.ListFilter) ([]journals.Journal, error) {
	return []journals.Journal{s.journal}, s.err
}

func (s *stubJournals) AccountLedger(context.Context, int64, journals.LedgerQuery) ([]journals.LedgerEntry, error) {
	return nil, s.err
}

type stubEvents struct {
	event   *autopost.Event
	journal journals.Journal
	err     error
}

func (s *stubEvents) CreateFromEvent(_ context.Context, _, _ int64, event autopost.Event) (journals.Journal, error) {
	s.event = &event
	return s.journal, s.err
}

type stubAccounts struct {
	list []accounts.Account
	err  error
}

func (s *stubAccounts) List(context.Context, int64) ([]accounts.Account, error) {
	return s.list, s.err
}

type stubPeriods struct {
	list []periods.Period
	err  error
}

func (s *stubPeriods) ListByYear(context.Context, int64, int) ([]periods.Period, error) {
	return s.list, s.err
}

type stubReconcile struct {
	drifts []reconcile.Drift
	err    error
}

func (s *stubReconcile) ReconcileBusiness(context.Context, int64) ([]reconcile.Drift, error) {
	return s.drifts, s.err
}

func newTestRouter(j *stubJournals, e *stubEvents, a *stubAccounts, rec *stubReconcile) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, j, e, a, &stubPeriods{}, rec)
	r := chi.NewRouter()
	r.Route("/api", h.MountRoutes)
	return r
}

func postedJournal() journals.Journal {
	return journals.Journal{
		ID:           7,
		BusinessID:   1,
		Number:       "GJ-000007",
		Type:         journals.JournalTypeGeneral,
		Date:         time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Currency:     "USD",
		BaseCurrency: "USD",
		ExchangeRate: decimal.NewFromInt(1),
		Status:       journals.JournalStatusPosted,
		TotalDebit:   150000,
		TotalCredit:  150000,
	}
}

func TestCreateJournalBindsInput(t *testing.T) {
	j := &stubJournals{journal: postedJournal()}
	router := newTestRouter(j, &stubEvents{}, &stubAccounts{}, &stubReconcile{})

	body := `{
		"business_id": 1,
		"type": "GENERAL",
		"date": "2026-03-10",
		"currency": "USD",
		"actor_id": 9,
		"lines": [
			{"account_id": 1, "debit_cents": 150000},
			{"account_id": 2, "credit_cents": 150000}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/journals", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, j.created)
	require.Equal(t, journals.JournalTypeGeneral, j.created.Type)
	require.Equal(t, int64(9), j.created.ActorID)
	require.Len(t, j.created.Lines, 2)

	var resp journalResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "GJ-000007", resp.Number)
	require.Equal(t, "POSTED", resp.Status)
}

func TestCreateJournalRejectsSingleLine(t *testing.T) {
	j := &stubJournals{journal: postedJournal()}
	router := newTestRouter(j, &stubEvents{}, &stubAccounts{}, &stubReconcile{})

	body := `{"business_id":1,"type":"GENERAL","date":"2026-03-10","currency":"USD","actor_id":9,"lines":[{"account_id":1,"debit_cents":100}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/journals", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Nil(t, j.created)
}

func TestErrorCategoriesMapToStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", shared.ErrJournalNotFound, http.StatusNotFound},
		{"conflict", shared.ErrSourceAlreadyPosted, http.StatusConflict},
		{"validation", shared.ErrUnbalanced, http.StatusBadRequest},
		{"configuration", shared.ErrMappingNotFound, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			j := &stubJournals{err: tc.err}
			router := newTestRouter(j, &stubEvents{}, &stubAccounts{}, &stubReconcile{})

			req := httptest.NewRequest(http.MethodGet, "/api/journals/7", nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			require.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestVoidJournalRequiresReason(t *testing.T) {
	j := &stubJournals{journal: postedJournal()}
	router := newTestRouter(j, &stubEvents{}, &stubAccounts{}, &stubReconcile{})

	req := httptest.NewRequest(http.MethodPost, "/api/journals/7/void", strings.NewReader(`{"actor_id":9}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/journals/7/void", strings.NewReader(`{"actor_id":9,"reason":"duplicate entry"}`))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, int64(7), j.voidedID)
	require.Equal(t, "duplicate entry", j.voidCause)
}

func TestCreateFromEventBindsEvent(t *testing.T) {
	e := &stubEvents{journal: postedJournal()}
	router := newTestRouter(&stubJournals{}, e, &stubAccounts{}, &stubReconcile{})

	body := `{
		"business_id": 1,
		"actor_id": 9,
		"event_id": "7f9df313-9f39-4bb0-9d3c-1a8f5f6fd1f2",
		"category": "RENT_PAYMENT",
		"amount_cents": 150000,
		"currency": "USD",
		"date": "2026-03-10",
		"tenant": "J. Lee",
		"unit": "4B"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, e.event)
	require.Equal(t, autopost.EventRentPayment, e.event.Category)
	require.Equal(t, int64(150000), e.event.AmountCents)
	require.Equal(t, "J. Lee", e.event.Tenant)
}

func TestCreateFromEventRejectsMalformedUUID(t *testing.T) {
	router := newTestRouter(&stubJournals{}, &stubEvents{}, &stubAccounts{}, &stubReconcile{})

	body := `{"business_id":1,"actor_id":9,"event_id":"not-a-uuid","category":"RENT_PAYMENT","amount_cents":100,"currency":"USD","date":"2026-03-10"}`
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListAccountsRequiresBusinessID(t *testing.T) {
	a := &stubAccounts{list: []accounts.Account{{ID: 1, Number: "1010", Name: "Operating Bank"}}}
	router := newTestRouter(&stubJournals{}, &stubEvents{}, a, &stubReconcile{})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/accounts?business_id=1", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Operating Bank")
}

func TestReconcileReportsClean(t *testing.T) {
	router := newTestRouter(&stubJournals{}, &stubEvents{}, &stubAccounts{}, &stubReconcile{})

	req := httptest.NewRequest(http.MethodPost, "/api/reconcile", strings.NewReader(`{"business_id":1}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Clean bool `json:"clean"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Clean)
}
