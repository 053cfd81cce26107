package periods

import "time"

// PeriodStatus enumerates fiscal period states.
type PeriodStatus string

const (
	PeriodStatusFuture  PeriodStatus = "FUTURE"
	PeriodStatusOpen    PeriodStatus = "OPEN"
	PeriodStatusClosing PeriodStatus = "CLOSING"
	PeriodStatusClosed  PeriodStatus = "CLOSED"
)

// Period is a business-scoped fiscal calendar bucket.
type Period struct {
	ID         int64
	BusinessID int64
	FiscalYear int
	Number     int
	StartDate  time.Time
	EndDate    time.Time
	Status     PeriodStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
