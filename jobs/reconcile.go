package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-pm/atlas-pm/internal/ledger/reconcile"
)

// ReconcileService recomputes account balances against the posted ledger.
type ReconcileService interface {
	ReconcileBusiness(ctx context.Context, businessID int64) ([]reconcile.Drift, error)
}

// BusinessSource lists the businesses a full reconciliation run covers.
type BusinessSource interface {
	ListBusinessIDs(ctx context.Context) ([]int64, error)
}

// PGBusinessSource reads business ids from Postgres.
type PGBusinessSource struct {
	pool *pgxpool.Pool
}

func NewPGBusinessSource(pool *pgxpool.Pool) *PGBusinessSource {
	return &PGBusinessSource{pool: pool}
}

func (s *PGBusinessSource) ListBusinessIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM businesses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// NewReconcileHandler returns the Asynq handler for TaskLedgerReconcile.
func NewReconcileHandler(svc ReconcileService, source BusinessSource, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload LedgerReconcilePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}

		ids := []int64{payload.BusinessID}
		if payload.BusinessID == 0 {
			var err error
			ids, err = source.ListBusinessIDs(ctx)
			if err != nil {
				return err
			}
		}

		for _, id := range ids {
			drifts, err := svc.ReconcileBusiness(ctx, id)
			if err != nil {
				return err
			}
			if logger != nil {
				logger.Info("ledger reconciliation finished",
					slog.Int64("business_id", id),
					slog.Int("drift_count", len(drifts)),
				)
			}
		}
		return nil
	}
}
