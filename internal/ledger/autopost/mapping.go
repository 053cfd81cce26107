package autopost

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/atlas-pm/atlas-pm/internal/ledger/journals"
)

// EventCategory enumerates the domain events the mapper can post.
type EventCategory string

const (
	EventRentPayment       EventCategory = "RENT_PAYMENT"
	EventLateFee           EventCategory = "LATE_FEE"
	EventSecurityDeposit   EventCategory = "SECURITY_DEPOSIT"
	EventDepositRefund     EventCategory = "DEPOSIT_REFUND"
	EventExpense           EventCategory = "EXPENSE"
	EventOwnerDraw         EventCategory = "OWNER_DRAW"
	EventOwnerContribution EventCategory = "OWNER_CONTRIBUTION"
)

// AllCategories lists every category the mapper must cover. ValidateMappings
// checks the table against this list at startup.
var AllCategories = []EventCategory{
	EventRentPayment,
	EventLateFee,
	EventSecurityDeposit,
	EventDepositRefund,
	EventExpense,
	EventOwnerDraw,
	EventOwnerContribution,
}

// Mapping binds an event category to the accounts and description used when
// posting it. TaxAccount is consulted only for categories that carry tax.
type Mapping struct {
	JournalType   journals.JournalType
	DebitAccount  string
	CreditAccount string
	TaxAccount    string
	Description   string
}

// DefaultMappings is the standard property-management chart wiring:
// 1010 operating bank, 1210 security deposits held (asset in trust),
// 1310 tax receivable, 2210 deposit liability, 3010 owner equity,
// 4010 rental income, 4020 late fee income, 5010 operating expenses.
func DefaultMappings() map[EventCategory]Mapping {
	return map[EventCategory]Mapping{
		EventRentPayment: {
			JournalType:   journals.JournalTypeCashReceipts,
			DebitAccount:  "1010",
			CreditAccount: "4010",
			Description:   "Rent payment - {tenant} - {unit}",
		},
		EventLateFee: {
			JournalType:   journals.JournalTypeCashReceipts,
			DebitAccount:  "1010",
			CreditAccount: "4020",
			Description:   "Late fee - {tenant} - {unit}",
		},
		EventSecurityDeposit: {
			JournalType:   journals.JournalTypeCashReceipts,
			DebitAccount:  "1210",
			CreditAccount: "2210",
			Description:   "Security deposit - {tenant} - {unit}",
		},
		EventDepositRefund: {
			JournalType:   journals.JournalTypeCashPayments,
			DebitAccount:  "2210",
			CreditAccount: "1210",
			Description:   "Deposit refund - {tenant} - {unit}",
		},
		EventExpense: {
			JournalType:   journals.JournalTypeCashPayments,
			DebitAccount:  "5010",
			CreditAccount: "1010",
			TaxAccount:    "1310",
			Description:   "Expense - {vendor} - {property}",
		},
		EventOwnerDraw: {
			JournalType:   journals.JournalTypeCashPayments,
			DebitAccount:  "3010",
			CreditAccount: "1010",
			Description:   "Owner draw - {property}",
		},
		EventOwnerContribution: {
			JournalType:   journals.JournalTypeCashReceipts,
			DebitAccount:  "1010",
			CreditAccount: "3010",
			Description:   "Owner contribution - {property}",
		},
	}
}

// ValidateMappings ensures every known category has a complete mapping.
// Run it at startup so a gap surfaces before the first event arrives.
func ValidateMappings(table map[EventCategory]Mapping) error {
	for _, cat := range AllCategories {
		m, ok := table[cat]
		if !ok {
			return fmt.Errorf("autopost: category %s has no mapping", cat)
		}
		if m.DebitAccount == "" || m.CreditAccount == "" {
			return fmt.Errorf("autopost: category %s mapping is missing an account", cat)
		}
		if m.Description == "" {
			return fmt.Errorf("autopost: category %s mapping is missing a description", cat)
		}
	}
	return nil
}

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// renderDescription substitutes named placeholders with event fields.
// Unresolved placeholders are dropped and the separators tidied, never left
// literal in the books.
func renderDescription(template string, fields map[string]string) string {
	out := placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		return fields[name]
	})
	return tidySeparators(out)
}

func tidySeparators(s string) string {
	parts := strings.Split(s, " - ")
	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.TrimSpace(strings.Join(kept, " - "))
}
