// Package seeders holds the demo data seeders. Each file registers its
// seeders from init(); `storefront seed` runs them in registration order.
package seeders

import (
	"fmt"
	"io"
	"slices"
	"sync"

	"gorm.io/gorm"
)

// SeederFunc is the signature for a seed function. Seeders must be safe to
// run more than once.
type SeederFunc func(db *gorm.DB) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder to the global registry.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// RunAll executes every registered seeder, stopping on the first error.
func RunAll(db *gorm.DB, out io.Writer) error {
	return Run(db, out)
}

// Run executes the named seeders, or all of them when names is empty. Each
// seeder runs in its own transaction.
func Run(db *gorm.DB, out io.Writer, names ...string) error {
	mu.Lock()
	current := make([]seederEntry, 0, len(entries))
	for _, e := range entries {
		if len(names) == 0 || slices.Contains(names, e.name) {
			current = append(current, e)
		}
	}
	mu.Unlock()

	for _, name := range names {
		if !slices.ContainsFunc(current, func(e seederEntry) bool { return e.name == name }) {
			return fmt.Errorf("unknown seeder %q", name)
		}
	}

	if len(current) == 0 {
		fmt.Fprintln(out, "No seeders registered.")
		return nil
	}

	for _, e := range current {
		fmt.Fprintf(out, "Seeding: %s\n", e.name)
		if err := db.Transaction(e.fn); err != nil {
			return fmt.Errorf("seeder %q: %w", e.name, err)
		}
	}
	fmt.Fprintf(out, "Seeded %d seeder(s).\n", len(current))
	return nil
}
