package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/atlas-pm/atlas-pm/internal/ledger/reconcile"
)

type stubReconciler struct {
	seen   []int64
	drifts map[int64][]reconcile.Drift
}

func (s *stubReconciler) ReconcileBusiness(_ context.Context, businessID int64) ([]reconcile.Drift, error) {
	s.seen = append(s.seen, businessID)
	return s.drifts[businessID], nil
}

type stubBusinesses struct {
	ids []int64
}

func (s *stubBusinesses) ListBusinessIDs(context.Context) ([]int64, error) {
	return s.ids, nil
}

func TestReconcileHandlerScopesToOneBusiness(t *testing.T) {
	svc := &stubReconciler{}
	handler := NewReconcileHandler(svc, &stubBusinesses{ids: []int64{1, 2, 3}}, nil)

	task, err := NewLedgerReconcileTask(LedgerReconcilePayload{BusinessID: 2, ScheduledFor: time.Now()})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, []int64{2}, svc.seen)
}

func TestReconcileHandlerCoversAllBusinesses(t *testing.T) {
	svc := &stubReconciler{}
	handler := NewReconcileHandler(svc, &stubBusinesses{ids: []int64{1, 2, 3}}, nil)

	task, err := NewLedgerReconcileTask(LedgerReconcilePayload{ScheduledFor: time.Now()})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, []int64{1, 2, 3}, svc.seen)
}

func TestReconcileHandlerSkipsRetryOnBadPayload(t *testing.T) {
	handler := NewReconcileHandler(&stubReconciler{}, &stubBusinesses{}, nil)
	task := asynq.NewTask(TaskLedgerReconcile, []byte("not json"))
	require.ErrorIs(t, handler(context.Background(), task), asynq.SkipRetry)
}
