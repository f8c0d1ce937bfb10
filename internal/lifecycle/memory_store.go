// AngelaMos | 2026
// memory_store.go

package lifecycle

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx/reflectx"

	"github.com/carterperez-dev/coursemarket/internal/core"
)

// MemoryStore keeps records in process, addressing fields through the
// same db tags the SQL store binds. It enforces Table.LiveUnique the way
// the partial unique indexes do in Postgres.
type MemoryStore[T any] struct {
	mu     sync.RWMutex
	table  Table
	mapper *reflectx.Mapper
	rows   []*T
	now    func() time.Time
}

func NewMemoryStore[T any](table Table) *MemoryStore[T] {
	return &MemoryStore[T]{
		table:  table.withDefaults(),
		mapper: reflectx.NewMapperFunc("db", strings.ToLower),
		now:    time.Now,
	}
}

func (s *MemoryStore[T]) Create(_ context.Context, record *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := s.fields(record)
	id, ok := fields[s.table.IDColumn]
	if !ok || id.IsZero() {
		return fmt.Errorf("insert %s: missing id: %w", s.table.Name, core.ErrInvalidInput)
	}

	for _, row := range s.rows {
		if equalField(s.fields(row)[s.table.IDColumn], id.Interface()) {
			return fmt.Errorf("insert %s: %s_pkey: %w", s.table.Name, s.table.Name, core.ErrDuplicateKey)
		}
	}
	if err := s.checkUnique(record, nil); err != nil {
		return fmt.Errorf("insert %s: %w", s.table.Name, err)
	}

	s.rows = append(s.rows, s.clone(record))
	return nil
}

func (s *MemoryStore[T]) FindUnique(
	_ context.Context,
	where Predicate,
) (*T, error) {
	if err := s.table.checkPredicate(where); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if s.matches(row, where) {
			return s.clone(row), nil
		}
	}

	return nil, fmt.Errorf("find %s: %w", s.table.Name, core.ErrNotFound)
}

func (s *MemoryStore[T]) FindMany(
	_ context.Context,
	where Predicate,
) ([]T, error) {
	if err := s.table.checkPredicate(where); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := []T{}
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.matches(s.rows[i], where) {
			records = append(records, *s.clone(s.rows[i]))
		}
	}

	if s.table.OrderColumn != "" {
		sort.SliceStable(records, func(i, j int) bool {
			return s.newer(&records[i], &records[j])
		})
	}

	return records, nil
}

func (s *MemoryStore[T]) Update(
	_ context.Context,
	where Predicate,
	patch Patch,
) (*T, error) {
	if err := s.table.checkPredicate(where); err != nil {
		return nil, err
	}
	if err := s.table.checkPatch(patch); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var first *T
	for i, row := range s.rows {
		if !s.matches(row, where) {
			continue
		}

		next := s.clone(row)
		if err := s.apply(next, patch); err != nil {
			return nil, fmt.Errorf("update %s: %w", s.table.Name, err)
		}
		if err := s.checkUnique(next, row); err != nil {
			return nil, fmt.Errorf("update %s: %w", s.table.Name, err)
		}

		s.rows[i] = next
		if first == nil {
			first = s.clone(next)
		}
	}

	if first == nil {
		return nil, fmt.Errorf("update %s: %w", s.table.Name, core.ErrNotFound)
	}
	return first, nil
}

// fields addresses record's columns without allocating nil pointers, so
// a NULL deleted_at stays NULL. The returned values are settable.
func (s *MemoryStore[T]) fields(record *T) map[string]reflect.Value {
	v := reflect.ValueOf(record).Elem()
	tm := s.mapper.TypeMap(v.Type())

	out := make(map[string]reflect.Value, len(tm.Names))
	for name, fi := range tm.Names {
		field := reflectx.FieldByIndexesReadOnly(v, fi.Index)
		if field.IsValid() {
			out[name] = field
		}
	}
	return out
}

func (s *MemoryStore[T]) matches(record *T, where Predicate) bool {
	fields := s.fields(record)
	for col, want := range where {
		field, ok := fields[col]
		if !ok {
			return false
		}
		if want == nil {
			if !isNull(field) {
				return false
			}
			continue
		}
		if !equalField(field, want) {
			return false
		}
	}
	return true
}

// checkUnique rejects record when another live row shares one of its
// LiveUnique values. self is the stored row being replaced, if any.
func (s *MemoryStore[T]) checkUnique(record, self *T) error {
	fields := s.fields(record)
	if !isNull(fields[s.table.TombstoneColumn]) {
		return nil
	}

	for _, col := range s.table.LiveUnique {
		field, ok := fields[col]
		if !ok || isNull(field) {
			continue
		}
		value := field.Interface()
		for _, row := range s.rows {
			if row == self {
				continue
			}
			other := s.fields(row)
			if !isNull(other[s.table.TombstoneColumn]) {
				continue
			}
			if equalField(other[col], value) {
				return fmt.Errorf("%s_%s_live_key: %w", s.table.Name, col, core.ErrDuplicateKey)
			}
		}
	}
	return nil
}

func (s *MemoryStore[T]) apply(record *T, patch Patch) error {
	fields := s.fields(record)
	for col, value := range patch {
		field, ok := fields[col]
		if !ok {
			return fmt.Errorf("column %q: %w", col, core.ErrInvalidInput)
		}
		if err := assign(field, value); err != nil {
			return fmt.Errorf("column %q: %w", col, err)
		}
	}

	if col := s.table.UpdatedColumn; col != "" {
		if _, ok := patch[col]; !ok {
			if field, ok := fields[col]; ok {
				if err := assign(field, s.now().UTC()); err != nil {
					return fmt.Errorf("column %q: %w", col, err)
				}
			}
		}
	}
	return nil
}

func (s *MemoryStore[T]) newer(a, b *T) bool {
	ta, okA := timeOf(s.fields(a)[s.table.OrderColumn])
	tb, okB := timeOf(s.fields(b)[s.table.OrderColumn])
	if !okA || !okB {
		return false
	}
	return ta.After(tb)
}

func timeOf(field reflect.Value) (time.Time, bool) {
	if !field.IsValid() || isNull(field) {
		return time.Time{}, false
	}
	if field.Kind() == reflect.Pointer {
		field = field.Elem()
	}
	t, ok := field.Interface().(time.Time)
	return t, ok
}

// clone copies record and any slice fields so callers never alias
// stored state.
func (s *MemoryStore[T]) clone(record *T) *T {
	copied := *record
	for _, field := range s.fields(&copied) {
		if field.Kind() == reflect.Slice && !field.IsNil() {
			fresh := reflect.MakeSlice(field.Type(), field.Len(), field.Len())
			reflect.Copy(fresh, field)
			field.Set(fresh)
		}
	}
	return &copied
}

func isNull(field reflect.Value) bool {
	if !field.IsValid() {
		return true
	}
	switch field.Kind() {
	case reflect.Pointer, reflect.Interface:
		return field.IsNil()
	default:
		return false
	}
}

func equalField(field reflect.Value, want any) bool {
	if !field.IsValid() {
		return false
	}
	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			return false
		}
		field = field.Elem()
	}

	w := reflect.ValueOf(want)
	if w.Kind() == reflect.Pointer {
		if w.IsNil() {
			return false
		}
		w = w.Elem()
	}
	if w.Type() != field.Type() {
		if w.Kind() != field.Kind() || !w.Type().ConvertibleTo(field.Type()) {
			return false
		}
		w = w.Convert(field.Type())
	}

	return reflect.DeepEqual(field.Interface(), w.Interface())
}

func assign(field reflect.Value, value any) error {
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(field.Type()) {
		field.Set(v)
		return nil
	}

	target := field.Type()
	if target.Kind() == reflect.Pointer {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				field.Set(reflect.Zero(target))
				return nil
			}
			v = v.Elem()
		}
		elem := target.Elem()
		converted, ok := convert(v, elem)
		if !ok {
			return fmt.Errorf("cannot assign %s to %s: %w", v.Type(), target, core.ErrInvalidInput)
		}
		ptr := reflect.New(elem)
		ptr.Elem().Set(converted)
		field.Set(ptr)
		return nil
	}

	converted, ok := convert(v, target)
	if !ok {
		return fmt.Errorf("cannot assign %s to %s: %w", v.Type(), target, core.ErrInvalidInput)
	}
	field.Set(converted)
	return nil
}

func convert(v reflect.Value, to reflect.Type) (reflect.Value, bool) {
	if v.Type().AssignableTo(to) {
		return v, true
	}
	sameFamily := v.Kind() == to.Kind() || (isNumeric(v.Kind()) && isNumeric(to.Kind()))
	if sameFamily && v.Type().ConvertibleTo(to) {
		return v.Convert(to), true
	}
	return reflect.Value{}, false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
