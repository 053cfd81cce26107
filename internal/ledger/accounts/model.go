package accounts

import "time"

// AccountType enumerates chart-of-accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// NormalBalance marks which side increases an account's balance.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "DEBIT"
	NormalCredit NormalBalance = "CREDIT"
)

// DefaultNormalBalance returns the conventional side for an account type.
func DefaultNormalBalance(t AccountType) NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalDebit
	default:
		return NormalCredit
	}
}

// Account models a chart of accounts node. CurrentBalance and the YTD
// accumulators hold base-currency minor units and are mutated only inside
// posting transactions; treat them as a cache over the ledger.
type Account struct {
	ID             int64
	BusinessID     int64
	Number         string
	Name           string
	Type           AccountType
	NormalBalance  NormalBalance
	ParentID       *int64
	IsActive       bool
	CurrentBalance int64
	YTDDebit       int64
	YTDCredit      int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Delta returns the signed balance effect of posting the given base-currency
// debit and credit to this account. Debits increase debit-normal accounts
// and decrease credit-normal accounts; credits do the opposite.
func (a Account) Delta(baseDebit, baseCredit int64) int64 {
	if a.NormalBalance == NormalDebit {
		return baseDebit - baseCredit
	}
	return baseCredit - baseDebit
}
