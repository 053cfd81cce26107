package journals

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// buildLines converts proposed lines into journal lines, computing each
// line's base-currency equivalent by rounding independently. Per-line
// rounding can leave the base totals off by a few minor units even when the
// transaction totals balance exactly, so the residual is pushed into the
// last line on the heavier side; the audit trail stays per-line explainable
// and the base totals balance.
func buildLines(inputs []LineInput, rate decimal.Decimal, ts time.Time) ([]JournalLine, int64) {
	lines := make([]JournalLine, 0, len(inputs))
	for _, in := range inputs {
		lines = append(lines, JournalLine{
			AccountID:  in.AccountID,
			Debit:      in.Debit,
			Credit:     in.Credit,
			BaseDebit:  convertMinorUnits(in.Debit, rate),
			BaseCredit: convertMinorUnits(in.Credit, rate),
			TaxAmount:  in.TaxAmount,
			PropertyID: in.PropertyID,
			UnitID:     in.UnitID,
			TenantID:   in.TenantID,
			VendorID:   in.VendorID,
			Memo:       in.Memo,
			CreatedAt:  ts,
			UpdatedAt:  ts,
		})
	}
	residual := absorbResidual(lines)
	return lines, residual
}

// convertMinorUnits multiplies a minor-unit amount by the rate and rounds
// half away from zero to the nearest minor unit.
func convertMinorUnits(amount int64, rate decimal.Decimal) int64 {
	if amount == 0 {
		return 0
	}
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
}

// absorbResidual rebalances the base-currency totals by adjusting the last
// line on the lighter side, returning the residual that was absorbed.
func absorbResidual(lines []JournalLine) int64 {
	var baseDebit, baseCredit int64
	for _, line := range lines {
		baseDebit += line.BaseDebit
		baseCredit += line.BaseCredit
	}
	residual := baseDebit - baseCredit
	if residual == 0 {
		return 0
	}
	if residual > 0 {
		for i := len(lines) - 1; i >= 0; i-- {
			if lines[i].Credit > 0 {
				lines[i].BaseCredit += residual
				return residual
			}
		}
	} else {
		for i := len(lines) - 1; i >= 0; i-- {
			if lines[i].Debit > 0 {
				lines[i].BaseDebit += -residual
				return residual
			}
		}
	}
	return residual
}

// totals sums both currencies across the lines.
func totals(lines []JournalLine) (debit, credit, baseDebit, baseCredit int64) {
	for _, line := range lines {
		debit += line.Debit
		credit += line.Credit
		baseDebit += line.BaseDebit
		baseCredit += line.BaseCredit
	}
	return
}

// formatNumber renders a sequential journal number, e.g. GJ-000042.
func formatNumber(t JournalType, seq int64) string {
	return fmt.Sprintf("%s-%06d", t.NumberPrefix(), seq)
}

// reverseLines swaps debit and credit per line, base equivalents included,
// so the reversal offsets the original exactly with no re-rounding.
func reverseLines(lines []JournalLine, ts time.Time) []JournalLine {
	out := make([]JournalLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, JournalLine{
			AccountID:  line.AccountID,
			Debit:      line.Credit,
			Credit:     line.Debit,
			BaseDebit:  line.BaseCredit,
			BaseCredit: line.BaseDebit,
			TaxAmount:  line.TaxAmount,
			PropertyID: line.PropertyID,
			UnitID:     line.UnitID,
			TenantID:   line.TenantID,
			VendorID:   line.VendorID,
			Memo:       line.Memo,
			CreatedAt:  ts,
			UpdatedAt:  ts,
		})
	}
	return out
}
