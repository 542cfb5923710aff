// Package seeders fills a fresh store with the default catalog.
//
//	func init() {
//	    seeders.Register("categories", SeedCategories)
//	}
//
// Run via CLI: hsmarket seed [--force]
package seeders

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/hsmarket/storefront/app/services"
)

// Env is what a seeder may touch. Force confirms seeding over existing data.
type Env struct {
	Catalog *services.CatalogService
	Force   bool
	Out     io.Writer
}

type SeederFunc func(ctx context.Context, env Env) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder. Call it from init().
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// RunAll executes every seeder in registration order, stopping at the
// first error.
func RunAll(ctx context.Context, env Env) error {
	mu.Lock()
	current := make([]seederEntry, len(entries))
	copy(current, entries)
	mu.Unlock()

	if env.Out == nil {
		env.Out = io.Discard
	}
	if len(current) == 0 {
		fmt.Fprintln(env.Out, "  (no seeders registered)")
		return nil
	}

	for _, e := range current {
		fmt.Fprintf(env.Out, "  • Running seeder: %s … ", e.name)
		if err := e.fn(ctx, env); err != nil {
			fmt.Fprintln(env.Out, "FAILED")
			return fmt.Errorf("seeder %q: %w", e.name, err)
		}
		fmt.Fprintln(env.Out, "done")
	}
	return nil
}
