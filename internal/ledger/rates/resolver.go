package rates

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var one = decimal.NewFromInt(1)

// Resolver answers "what is the rate from currency A to currency B on this
// date". Lookup order: direct pair, inverse of the reverse pair, then 1
// with a logged warning. A missing rate must not block recording a
// financial event, so Resolve never returns an error for a miss.
type Resolver struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
}

func NewResolver(repo Repository, cache *Cache, logger *slog.Logger) *Resolver {
	return &Resolver{repo: repo, cache: cache, logger: logger}
}

// ValidCurrency reports whether code is a well-formed ISO 4217 code.
func ValidCurrency(code string) bool {
	_, err := currency.ParseISO(code)
	return err == nil
}

// Resolve returns the conversion rate from -> to effective on the date.
func (r *Resolver) Resolve(ctx context.Context, from, to string, on time.Time) decimal.Decimal {
	if from == to {
		return one
	}
	if rate, ok := r.cache.Get(ctx, from, to, on); ok {
		return rate
	}
	rate, err := r.repo.FindLatest(ctx, from, to, on)
	if err == nil {
		r.cache.Set(ctx, from, to, on, rate)
		return rate
	}
	if !errors.Is(err, errRateMissing) {
		r.warn("exchange rate lookup failed", from, to, err)
		return one
	}
	inverse, err := r.repo.FindLatest(ctx, to, from, on)
	if err == nil && !inverse.IsZero() {
		rate = one.Div(inverse)
		r.cache.Set(ctx, from, to, on, rate)
		return rate
	}
	if err != nil && !errors.Is(err, errRateMissing) {
		r.warn("inverse exchange rate lookup failed", from, to, err)
		return one
	}
	r.warn("no exchange rate on file, defaulting to 1", from, to, nil)
	return one
}

func (r *Resolver) warn(msg, from, to string, err error) {
	if r.logger == nil {
		return
	}
	attrs := []any{slog.String("from", from), slog.String("to", to)}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	r.logger.Warn(msg, attrs...)
}
