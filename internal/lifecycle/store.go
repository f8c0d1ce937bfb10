// AngelaMos | 2026
// store.go

// Package lifecycle implements soft-delete CRUD once for any record
// type. A record is live while its tombstone column is NULL; every read
// and update issued through a Manager is scoped to live records.
package lifecycle

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/carterperez-dev/coursemarket/internal/core"
)

// Predicate is a conjunction of column = value conditions. A nil value
// matches NULL.
type Predicate map[string]any

// Patch maps columns to their new values.
type Patch map[string]any

// Store is the persistence contract the lifecycle and session layers
// consume. Implementations report missing rows with core.ErrNotFound and
// unique violations with core.ErrDuplicateKey.
type Store[T any] interface {
	Create(ctx context.Context, record *T) error
	FindUnique(ctx context.Context, where Predicate) (*T, error)
	FindMany(ctx context.Context, where Predicate) ([]T, error)
	Update(ctx context.Context, where Predicate, patch Patch) (*T, error)
}

// Table describes how a record type maps onto storage.
type Table struct {
	Name string
	// Columns lists every persisted column, matching the db tags of T.
	Columns []string
	// Mutable lists the columns a Patch may touch.
	Mutable []string
	// LiveUnique lists columns that must be unique among live records.
	LiveUnique []string
	IDColumn   string
	// TombstoneColumn holds the soft-delete timestamp.
	TombstoneColumn string
	// UpdatedColumn, when set, is stamped on every update.
	UpdatedColumn string
	// OrderColumn sorts FindMany results, newest first.
	OrderColumn string
}

func (t Table) withDefaults() Table {
	if t.IDColumn == "" {
		t.IDColumn = "id"
	}
	if t.TombstoneColumn == "" {
		t.TombstoneColumn = "deleted_at"
	}
	return t
}

func (t Table) hasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}

func (t Table) checkPredicate(where Predicate) error {
	for col := range where {
		if !t.hasColumn(col) {
			return fmt.Errorf(
				"%s: unknown column %q: %w",
				t.Name,
				col,
				core.ErrInvalidInput,
			)
		}
	}
	return nil
}

func (t Table) checkPatch(patch Patch) error {
	if len(patch) == 0 {
		return fmt.Errorf("%s: empty patch: %w", t.Name, core.ErrInvalidInput)
	}
	for col := range patch {
		if col == t.TombstoneColumn {
			continue
		}
		if !slices.Contains(t.Mutable, col) {
			return fmt.Errorf(
				"%s: column %q is not updatable: %w",
				t.Name,
				col,
				core.ErrInvalidInput,
			)
		}
	}
	return nil
}

// Live returns a copy of where that additionally requires the record
// not to be tombstoned.
func (t Table) Live(where Predicate) Predicate {
	scoped := make(Predicate, len(where)+1)
	for k, v := range where {
		scoped[k] = v
	}
	scoped[t.TombstoneColumn] = nil
	return scoped
}

func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
