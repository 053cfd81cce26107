package ledgerhttp

import (
	"time"

	"github.com/atlas-pm/atlas-pm/internal/ledger/accounts"
	"github.com/atlas-pm/atlas-pm/internal/ledger/journals"
	"github.com/atlas-pm/atlas-pm/internal/ledger/periods"
)

type journalResponse struct {
	ID              int64          `json:"id"`
	BusinessID      int64          `json:"business_id"`
	Number          string         `json:"number"`
	Type            string         `json:"type"`
	Date            string         `json:"date"`
	SourceType      string         `json:"source_type,omitempty"`
	SourceID        string         `json:"source_id,omitempty"`
	Currency        string         `json:"currency"`
	BaseCurrency    string         `json:"base_currency"`
	ExchangeRate    string         `json:"exchange_rate"`
	Status          string         `json:"status"`
	TotalDebit      int64          `json:"total_debit_cents"`
	TotalCredit     int64          `json:"total_credit_cents"`
	TotalBaseDebit  int64          `json:"total_base_debit_cents"`
	TotalBaseCredit int64          `json:"total_base_credit_cents"`
	Memo            string         `json:"memo,omitempty"`
	PostedBy        *int64         `json:"posted_by,omitempty"`
	PostedAt        *time.Time     `json:"posted_at,omitempty"`
	VoidedBy        *int64         `json:"voided_by,omitempty"`
	VoidedAt        *time.Time     `json:"voided_at,omitempty"`
	VoidReason      string         `json:"void_reason,omitempty"`
	ReversedByID    *int64         `json:"reversed_by_id,omitempty"`
	ReversesID      *int64         `json:"reverses_id,omitempty"`
	Lines           []lineResponse `json:"lines,omitempty"`
}

type lineResponse struct {
	ID         int64  `json:"id"`
	AccountID  int64  `json:"account_id"`
	Debit      int64  `json:"debit_cents"`
	Credit     int64  `json:"credit_cents"`
	BaseDebit  int64  `json:"base_debit_cents"`
	BaseCredit int64  `json:"base_credit_cents"`
	TaxAmount  int64  `json:"tax_cents,omitempty"`
	PropertyID *int64 `json:"property_id,omitempty"`
	UnitID     *int64 `json:"unit_id,omitempty"`
	TenantID   *int64 `json:"tenant_id,omitempty"`
	VendorID   *int64 `json:"vendor_id,omitempty"`
	Memo       string `json:"memo,omitempty"`
}

type entryResponse struct {
	ID           int64  `json:"id"`
	JournalID    int64  `json:"journal_id"`
	AccountID    int64  `json:"account_id"`
	FiscalYear   int    `json:"fiscal_year"`
	PeriodNumber int    `json:"period_number"`
	PostingDate  string `json:"posting_date"`
	Debit        int64  `json:"debit_cents"`
	Credit       int64  `json:"credit_cents"`
	Delta        int64  `json:"delta_cents"`
	Voided       bool   `json:"voided"`
}

type accountResponse struct {
	ID             int64  `json:"id"`
	Number         string `json:"number"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	NormalBalance  string `json:"normal_balance"`
	ParentID       *int64 `json:"parent_id,omitempty"`
	IsActive       bool   `json:"is_active"`
	CurrentBalance int64  `json:"current_balance_cents"`
	YTDDebit       int64  `json:"ytd_debit_cents"`
	YTDCredit      int64  `json:"ytd_credit_cents"`
}

func toJournalResponse(j journals.Journal) journalResponse {
	resp := journalResponse{
		ID:              j.ID,
		BusinessID:      j.BusinessID,
		Number:          j.Number,
		Type:            string(j.Type),
		Date:            j.Date.Format("2006-01-02"),
		SourceType:      j.SourceType,
		SourceID:        j.SourceID,
		Currency:        j.Currency,
		BaseCurrency:    j.BaseCurrency,
		ExchangeRate:    j.ExchangeRate.String(),
		Status:          string(j.Status),
		TotalDebit:      j.TotalDebit,
		TotalCredit:     j.TotalCredit,
		TotalBaseDebit:  j.TotalBaseDebit,
		TotalBaseCredit: j.TotalBaseCredit,
		Memo:            j.Memo,
		PostedBy:        j.PostedBy,
		PostedAt:        j.PostedAt,
		VoidedBy:        j.VoidedBy,
		VoidedAt:        j.VoidedAt,
		VoidReason:      j.VoidReason,
		ReversedByID:    j.ReversedByID,
		ReversesID:      j.ReversesID,
	}
	for _, line := range j.Lines {
		resp.Lines = append(resp.Lines, lineResponse{
			ID:         line.ID,
			AccountID:  line.AccountID,
			Debit:      line.Debit,
			Credit:     line.Credit,
			BaseDebit:  line.BaseDebit,
			BaseCredit: line.BaseCredit,
			TaxAmount:  line.TaxAmount,
			PropertyID: line.PropertyID,
			UnitID:     line.UnitID,
			TenantID:   line.TenantID,
			VendorID:   line.VendorID,
			Memo:       line.Memo,
		})
	}
	return resp
}

func toEntryResponses(entries []journals.LedgerEntry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:           e.ID,
			JournalID:    e.JournalID,
			AccountID:    e.AccountID,
			FiscalYear:   e.FiscalYear,
			PeriodNumber: e.PeriodNumber,
			PostingDate:  e.PostingDate.Format("2006-01-02"),
			Debit:        e.Debit,
			Credit:       e.Credit,
			Delta:        e.Delta,
			Voided:       e.Voided,
		})
	}
	return out
}

type periodResponse struct {
	ID         int64  `json:"id"`
	FiscalYear int    `json:"fiscal_year"`
	Number     int    `json:"number"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Status     string `json:"status"`
}

func toPeriodResponses(list []periods.Period) []periodResponse {
	out := make([]periodResponse, 0, len(list))
	for _, p := range list {
		out = append(out, periodResponse{
			ID:         p.ID,
			FiscalYear: p.FiscalYear,
			Number:     p.Number,
			StartDate:  p.StartDate.Format("2006-01-02"),
			EndDate:    p.EndDate.Format("2006-01-02"),
			Status:     string(p.Status),
		})
	}
	return out
}

func toAccountResponses(list []accounts.Account) []accountResponse {
	out := make([]accountResponse, 0, len(list))
	for _, a := range list {
		out = append(out, accountResponse{
			ID:             a.ID,
			Number:         a.Number,
			Name:           a.Name,
			Type:           string(a.Type),
			NormalBalance:  string(a.NormalBalance),
			ParentID:       a.ParentID,
			IsActive:       a.IsActive,
			CurrentBalance: a.CurrentBalance,
			YTDDebit:       a.YTDDebit,
			YTDCredit:      a.YTDCredit,
		})
	}
	return out
}
