// AngelaMos | 2026
// manager.go

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/coursemarket/internal/core"
)

// Manager applies soft-delete CRUD to one record type. Reads and updates
// only ever see live records; Delete stamps the tombstone instead of
// removing the row.
type Manager[T any] struct {
	store    Store[T]
	table    Table
	resource string
	validate *validator.Validate
	now      func() time.Time
}

func NewManager[T any](store Store[T], table Table, resource string) *Manager[T] {
	return &Manager[T]{
		store:    store,
		table:    table.withDefaults(),
		resource: resource,
		validate: core.NewValidator(),
		now:      time.Now,
	}
}

// Create validates record against its struct tags and persists it with
// the tombstone unset.
func (m *Manager[T]) Create(ctx context.Context, record *T) (err error) {
	ctx, span := core.StartSpan(ctx, m.resource+".create")
	defer func() {
		if err != nil {
			core.SetSpanError(ctx, err)
		}
		span.End()
	}()

	if err := m.validate.Struct(record); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return core.ValidationError(core.FormatValidationError(err))
		}
		return fmt.Errorf("validate %s: %w", m.resource, err)
	}

	if err := m.store.Create(ctx, record); err != nil {
		return fmt.Errorf("create %s: %w", m.resource, err)
	}
	return nil
}

func (m *Manager[T]) Get(ctx context.Context, id string) (*T, error) {
	record, err := m.store.FindUnique(ctx, m.table.Live(Predicate{m.table.IDColumn: id}))
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", m.resource, err)
	}
	return record, nil
}

// GetWithDeleted returns the record with the given id whether or not it
// is tombstoned.
func (m *Manager[T]) GetWithDeleted(ctx context.Context, id string) (*T, error) {
	record, err := m.store.FindUnique(ctx, Predicate{m.table.IDColumn: id})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", m.resource, err)
	}
	return record, nil
}

func (m *Manager[T]) FindOne(ctx context.Context, where Predicate) (*T, error) {
	record, err := m.store.FindUnique(ctx, m.table.Live(where))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", m.resource, err)
	}
	return record, nil
}

func (m *Manager[T]) List(ctx context.Context, where Predicate) ([]T, error) {
	records, err := m.store.FindMany(ctx, m.table.Live(where))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", m.resource, err)
	}
	return records, nil
}

// Update merges patch into the live record with the given id. Field
// values are stored as given; the tombstone cannot be set through here.
func (m *Manager[T]) Update(ctx context.Context, id string, patch Patch) (_ *T, err error) {
	ctx, span := core.StartSpan(ctx, m.resource+".update", attribute.String("id", id))
	defer func() {
		if err != nil {
			core.SetSpanError(ctx, err)
		}
		span.End()
	}()

	if _, ok := patch[m.table.TombstoneColumn]; ok {
		return nil, fmt.Errorf(
			"update %s: %s is managed by Delete: %w",
			m.resource,
			m.table.TombstoneColumn,
			core.ErrInvalidInput,
		)
	}

	record, err := m.store.Update(ctx, m.table.Live(Predicate{m.table.IDColumn: id}), patch)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", m.resource, err)
	}
	return record, nil
}

// Delete tombstones the record. It does not require the record to be
// live, so deleting twice succeeds and moves the tombstone forward.
func (m *Manager[T]) Delete(ctx context.Context, id string) (err error) {
	ctx, span := core.StartSpan(ctx, m.resource+".delete", attribute.String("id", id))
	defer func() {
		if err != nil {
			core.SetSpanError(ctx, err)
		}
		span.End()
	}()

	_, err = m.store.Update(
		ctx,
		Predicate{m.table.IDColumn: id},
		Patch{m.table.TombstoneColumn: m.now().UTC()},
	)
	if err != nil {
		return fmt.Errorf("delete %s: %w", m.resource, err)
	}

	slog.DebugContext(ctx, "record tombstoned", "resource", m.resource, "id", id)
	return nil
}
