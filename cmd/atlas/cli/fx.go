// Package cli hosts operational helpers shipped with the atlas binary.
package cli

import (
	"github.com/atlas-pm/atlas-pm/internal/ledger/rates"
)

// FXOpsCLI offers operational helpers to manage the stored exchange rates
// the posting pipeline resolves against.
type FXOpsCLI struct {
	store rates.Store
}

// NewFXOpsCLI constructs a new helper instance.
func NewFXOpsCLI(store rates.Store) *FXOpsCLI {
	return &FXOpsCLI{store: store}
}
