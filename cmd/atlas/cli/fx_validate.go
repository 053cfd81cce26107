package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atlas-pm/atlas-pm/internal/ledger/rates"
)

// FXValidateOptions configures the coverage check.
type FXValidateOptions struct {
	Pair       string
	From       string
	To         string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// FXValidateSummary reports rate coverage for one pair over a date range.
type FXValidateSummary struct {
	Pair    string   `json:"pair"`
	From    string   `json:"from"`
	To      string   `json:"to"`
	Missing []string `json:"missing_dates"`
}

// ValidateCommand reports dates in the range with no stored rate for the
// pair. Posting still succeeds on a gap day via the resolver fallback, so
// gaps are a data-quality signal, not an outage.
func (c *FXOpsCLI) ValidateCommand(ctx context.Context, opts FXValidateOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	pair := strings.ToUpper(strings.TrimSpace(opts.Pair))
	parts := strings.Split(pair, "/")
	if len(parts) != 2 || !rates.ValidCurrency(parts[0]) || !rates.ValidCurrency(parts[1]) {
		fmt.Fprintf(opts.Stderr, "fx validate: invalid --pair %q (expected FROM/TO)\n", opts.Pair)
		return 1
	}
	start, err := time.Parse("2006-01-02", strings.TrimSpace(opts.From))
	if err != nil {
		fmt.Fprintf(opts.Stderr, "fx validate: invalid --from %q (expected YYYY-MM-DD)\n", opts.From)
		return 1
	}
	end, err := time.Parse("2006-01-02", strings.TrimSpace(opts.To))
	if err != nil {
		fmt.Fprintf(opts.Stderr, "fx validate: invalid --to %q (expected YYYY-MM-DD)\n", opts.To)
		return 1
	}
	if start.After(end) {
		fmt.Fprintln(opts.Stderr, "fx validate: --from must be earlier than --to")
		return 1
	}

	stored, err := c.store.ListDates(ctx, parts[0], parts[1], start, end)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "fx validate: %v\n", err)
		return 1
	}
	have := make(map[string]struct{}, len(stored))
	for _, d := range stored {
		have[d.Format("2006-01-02")] = struct{}{}
	}

	summary := FXValidateSummary{Pair: pair, From: opts.From, To: opts.To}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		if _, ok := have[key]; !ok {
			summary.Missing = append(summary.Missing, key)
		}
	}

	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			fmt.Fprintf(opts.Stderr, "fx validate: encode summary: %v\n", err)
			return 1
		}
	} else if len(summary.Missing) == 0 {
		fmt.Fprintf(opts.Stdout, "fx validate: %s fully covered %s..%s\n", pair, opts.From, opts.To)
	} else {
		fmt.Fprintf(opts.Stdout, "fx validate: %s missing %d date(s): %s\n",
			pair, len(summary.Missing), strings.Join(summary.Missing, ", "))
	}
	if len(summary.Missing) > 0 {
		return 2
	}
	return 0
}
