package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

// RateSource resolves an exchange rate, filling the cache as a side effect.
type RateSource interface {
	Resolve(ctx context.Context, from, to string, on time.Time) decimal.Decimal
}

// NewRateWarmupHandler returns the Asynq handler for TaskRateWarmup. It
// resolves each configured pair once so the first posting of the day hits
// a warm cache.
func NewRateWarmupHandler(rates RateSource, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload RateWarmupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.Base == "" || len(payload.Currencies) == 0 {
			return asynq.SkipRetry
		}
		on := payload.Date
		if on.IsZero() {
			on = time.Now().UTC()
		}
		for _, ccy := range payload.Currencies {
			if ccy == payload.Base {
				continue
			}
			rate := rates.Resolve(ctx, ccy, payload.Base, on)
			if logger != nil {
				logger.Debug("warmed exchange rate",
					slog.String("from", ccy),
					slog.String("to", payload.Base),
					slog.String("rate", rate.String()),
				)
			}
		}
		return nil
	}
}
