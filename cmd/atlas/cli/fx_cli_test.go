package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	rates map[string]decimal.Decimal
}

func newMemStore() *memStore {
	return &memStore{rates: make(map[string]decimal.Decimal)}
}

func key(from, to string, on time.Time) string {
	return from + "/" + to + "@" + on.Format("2006-01-02")
}

func (m *memStore) Upsert(_ context.Context, from, to string, on time.Time, rate decimal.Decimal) error {
	m.rates[key(from, to, on)] = rate
	return nil
}

func (m *memStore) ListDates(_ context.Context, from, to string, start, end time.Time) ([]time.Time, error) {
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if _, ok := m.rates[key(from, to, d)]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

const sampleCSV = `date,from,to,rate
2026-03-01,EUR,USD,1.0840
2026-03-02,EUR,USD,1.0862
`

func TestImportDryRunAppliesNothing(t *testing.T) {
	store := newMemStore()
	cli := NewFXOpsCLI(store)

	var stdout, stderr bytes.Buffer
	code := cli.ImportCommand(context.Background(), FXImportOptions{
		Mode:         FXImportModeDry,
		SourceReader: strings.NewReader(sampleCSV),
		Stdout:       &stdout,
		Stderr:       &stderr,
	})
	require.Equal(t, 0, code, stderr.String())
	require.Empty(t, store.rates)
	require.Contains(t, stdout.String(), "2 candidate(s), 0 applied")
}

func TestImportApplyPersistsRates(t *testing.T) {
	store := newMemStore()
	cli := NewFXOpsCLI(store)

	var stdout, stderr bytes.Buffer
	code := cli.ImportCommand(context.Background(), FXImportOptions{
		Mode:         FXImportModeApply,
		SourceReader: strings.NewReader(sampleCSV),
		Stdout:       &stdout,
		Stderr:       &stderr,
	})
	require.Equal(t, 0, code, stderr.String())
	require.Len(t, store.rates, 2)

	on := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.True(t, store.rates[key("EUR", "USD", on)].Equal(decimal.RequireFromString("1.0840")))
}

func TestImportApplyRespectsConfirmDecline(t *testing.T) {
	store := newMemStore()
	cli := NewFXOpsCLI(store)

	var stdout, stderr bytes.Buffer
	code := cli.ImportCommand(context.Background(), FXImportOptions{
		Mode:         FXImportModeApply,
		SourceReader: strings.NewReader(sampleCSV),
		Stdout:       &stdout,
		Stderr:       &stderr,
		Confirm: func(_ io.Reader, _ io.Writer) (bool, error) {
			return false, nil
		},
	})
	require.Equal(t, 1, code)
	require.Empty(t, store.rates)
	require.Contains(t, stdout.String(), "aborted")
}

func TestImportRejectsMalformedRow(t *testing.T) {
	cli := NewFXOpsCLI(newMemStore())

	var stderr bytes.Buffer
	code := cli.ImportCommand(context.Background(), FXImportOptions{
		SourceReader: strings.NewReader("2026-03-01,EUR,USD,not-a-rate\n"),
		Stderr:       &stderr,
		Stdout:       &bytes.Buffer{},
	})
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "invalid rate")
}

func TestValidateReportsGapDates(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Upsert(context.Background(), "EUR", "USD",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), decimal.New(1, 0)))
	require.NoError(t, store.Upsert(context.Background(), "EUR", "USD",
		time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), decimal.New(1, 0)))
	cli := NewFXOpsCLI(store)

	var stdout bytes.Buffer
	code := cli.ValidateCommand(context.Background(), FXValidateOptions{
		Pair:   "EUR/USD",
		From:   "2026-03-01",
		To:     "2026-03-03",
		Stdout: &stdout,
		Stderr: &bytes.Buffer{},
	})
	require.Equal(t, 2, code)
	require.Contains(t, stdout.String(), "2026-03-02")
}

func TestValidateCleanCoverage(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Upsert(context.Background(), "EUR", "USD",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), decimal.New(1, 0)))
	cli := NewFXOpsCLI(store)

	var stdout bytes.Buffer
	code := cli.ValidateCommand(context.Background(), FXValidateOptions{
		Pair:   "EUR/USD",
		From:   "2026-03-01",
		To:     "2026-03-01",
		Stdout: &stdout,
		Stderr: &bytes.Buffer{},
	})
	require.Equal(t, 0, code)
	require.Contains(t, stdout.String(), "fully covered")
}
