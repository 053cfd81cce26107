package cli

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-pm/atlas-pm/internal/ledger/rates"
)

// FXImportMode enumerates supported execution strategies.
type FXImportMode string

const (
	// FXImportModeDry previews the parsed rates without applying changes.
	FXImportModeDry FXImportMode = "dry"
	// FXImportModeApply persists rates after confirmation.
	FXImportModeApply FXImportMode = "apply"
)

// FXImportOptions configures the import command execution.
type FXImportOptions struct {
	Mode         FXImportMode
	Source       string
	SourceReader io.Reader
	JSONOutput   bool
	Stdout       io.Writer
	Stderr       io.Writer
	Stdin        io.Reader
	Confirm      func(io.Reader, io.Writer) (bool, error)
}

// FXImportCandidate is one parsed CSV row.
type FXImportCandidate struct {
	From string `json:"from"`
	To   string `json:"to"`
	Date string `json:"date"`
	Rate string `json:"rate"`
}

// FXImportSummary captures the structured reporting outcome.
type FXImportSummary struct {
	Mode       FXImportMode        `json:"mode"`
	Candidates []FXImportCandidate `json:"candidates"`
	Applied    int                 `json:"applied"`
}

// ImportCommand ingests rates from CSV rows of the form
// date,from_currency,to_currency,rate.
func (c *FXOpsCLI) ImportCommand(ctx context.Context, opts FXImportOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Mode == "" {
		opts.Mode = FXImportModeDry
	}
	mode := FXImportMode(strings.ToLower(string(opts.Mode)))
	switch mode {
	case FXImportModeDry, FXImportModeApply:
	default:
		fmt.Fprintf(opts.Stderr, "fx import: invalid mode %q (expected dry or apply)\n", opts.Mode)
		return 1
	}

	reader := opts.SourceReader
	if reader == nil {
		if opts.Source == "" || opts.Source == "-" {
			reader = opts.Stdin
		} else {
			f, err := os.Open(opts.Source)
			if err != nil {
				fmt.Fprintf(opts.Stderr, "fx import: %v\n", err)
				return 1
			}
			defer f.Close()
			reader = f
		}
	}

	candidates, err := parseRateCSV(reader)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "fx import: %v\n", err)
		return 1
	}
	if len(candidates) == 0 {
		fmt.Fprintln(opts.Stderr, "fx import: no rows to import")
		return 1
	}

	summary := FXImportSummary{Mode: mode, Candidates: candidates}

	if mode == FXImportModeApply {
		if opts.Confirm != nil {
			ok, err := opts.Confirm(opts.Stdin, opts.Stdout)
			if err != nil {
				fmt.Fprintf(opts.Stderr, "fx import: %v\n", err)
				return 1
			}
			if !ok {
				fmt.Fprintln(opts.Stdout, "fx import: aborted")
				return 1
			}
		}
		for _, cand := range candidates {
			on, _ := time.Parse("2006-01-02", cand.Date)
			rate, _ := decimal.NewFromString(cand.Rate)
			if err := c.store.Upsert(ctx, cand.From, cand.To, on, rate); err != nil {
				fmt.Fprintf(opts.Stderr, "fx import: upsert %s/%s %s: %v\n", cand.From, cand.To, cand.Date, err)
				return 1
			}
			summary.Applied++
		}
	}

	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			fmt.Fprintf(opts.Stderr, "fx import: encode summary: %v\n", err)
			return 1
		}
		return 0
	}
	fmt.Fprintf(opts.Stdout, "fx import: %d candidate(s), %d applied (mode=%s)\n",
		len(summary.Candidates), summary.Applied, summary.Mode)
	return 0
}

func parseRateCSV(r io.Reader) ([]FXImportCandidate, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.TrimLeadingSpace = true

	var out []FXImportCandidate
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "date") {
			continue
		}
		if len(record) != 4 {
			return nil, fmt.Errorf("row %d: expected 4 columns, got %d", line, len(record))
		}
		date := strings.TrimSpace(record[0])
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, fmt.Errorf("row %d: invalid date %q (expected YYYY-MM-DD)", line, date)
		}
		from := strings.ToUpper(strings.TrimSpace(record[1]))
		to := strings.ToUpper(strings.TrimSpace(record[2]))
		if !rates.ValidCurrency(from) || !rates.ValidCurrency(to) {
			return nil, fmt.Errorf("row %d: invalid currency pair %s/%s", line, from, to)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(record[3]))
		if err != nil || !rate.IsPositive() {
			return nil, fmt.Errorf("row %d: invalid rate %q", line, record[3])
		}
		out = append(out, FXImportCandidate{From: from, To: to, Date: date, Rate: rate.String()})
	}
	return out, nil
}
