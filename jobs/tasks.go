package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerReconcile recomputes cached account balances from the ledger.
	TaskLedgerReconcile = "ledger:reconcile"
	// TaskRateWarmup pre-resolves exchange rates into the cache.
	TaskRateWarmup = "rates:warmup"
)

// LedgerReconcilePayload scopes a reconciliation run. A zero BusinessID
// means every business.
type LedgerReconcilePayload struct {
	BusinessID   int64     `json:"business_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLedgerReconcileTask constructs an Asynq task for balance reconciliation.
func NewLedgerReconcileTask(payload LedgerReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerReconcile, data, asynq.Queue(QueueDefault)), nil
}

// RateWarmupPayload names the currency pairs to resolve for a date.
type RateWarmupPayload struct {
	Base       string    `json:"base"`
	Currencies []string  `json:"currencies"`
	Date       time.Time `json:"date"`
}

// NewRateWarmupTask constructs an Asynq task for rate cache warmup.
func NewRateWarmupTask(payload RateWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRateWarmup, data, asynq.Queue(QueueDefault)), nil
}
