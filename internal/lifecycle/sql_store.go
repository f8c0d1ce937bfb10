// AngelaMos | 2026
// sql_store.go

package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/coursemarket/internal/core"
)

// SQLStore persists T in a single table through sqlx. T must carry db
// tags for every entry in Table.Columns.
type SQLStore[T any] struct {
	db         core.DBTX
	table      Table
	selectList string
}

func NewSQLStore[T any](db core.DBTX, table Table) *SQLStore[T] {
	table = table.withDefaults()
	return &SQLStore[T]{
		db:         db,
		table:      table,
		selectList: strings.Join(table.Columns, ", "),
	}
}

func (s *SQLStore[T]) Create(ctx context.Context, record *T) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (:%s) RETURNING %s`,
		s.table.Name,
		s.selectList,
		strings.Join(s.table.Columns, ", :"),
		s.selectList,
	)

	bound, args, err := s.db.BindNamed(query, record)
	if err != nil {
		return fmt.Errorf("bind insert %s: %w", s.table.Name, err)
	}

	if err := s.db.GetContext(ctx, record, bound, args...); err != nil {
		return fmt.Errorf(
			"insert %s: %w",
			s.table.Name,
			core.TranslateDBError(err),
		)
	}

	return nil
}

func (s *SQLStore[T]) FindUnique(
	ctx context.Context,
	where Predicate,
) (*T, error) {
	if err := s.table.checkPredicate(where); err != nil {
		return nil, err
	}

	clause, args := buildWhere(where, nil)
	query := s.db.Rebind(fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s LIMIT 1`,
		s.selectList,
		s.table.Name,
		clause,
	))

	var record T
	err := s.db.GetContext(ctx, &record, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find %s: %w", s.table.Name, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", s.table.Name, err)
	}

	return &record, nil
}

func (s *SQLStore[T]) FindMany(
	ctx context.Context,
	where Predicate,
) ([]T, error) {
	if err := s.table.checkPredicate(where); err != nil {
		return nil, err
	}

	clause, args := buildWhere(where, nil)
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s`,
		s.selectList,
		s.table.Name,
		clause,
	)
	if s.table.OrderColumn != "" {
		query += fmt.Sprintf(` ORDER BY %s DESC`, s.table.OrderColumn)
	}

	records := []T{}
	if err := s.db.SelectContext(ctx, &records, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table.Name, err)
	}

	return records, nil
}

func (s *SQLStore[T]) Update(
	ctx context.Context,
	where Predicate,
	patch Patch,
) (*T, error) {
	if err := s.table.checkPredicate(where); err != nil {
		return nil, err
	}
	if err := s.table.checkPatch(patch); err != nil {
		return nil, err
	}

	sets := make([]string, 0, len(patch)+1)
	args := make([]any, 0, len(patch)+len(where)+1)
	for _, col := range sortedKeys(patch) {
		sets = append(sets, col+" = ?")
		args = append(args, patch[col])
	}
	if s.table.UpdatedColumn != "" {
		if _, ok := patch[s.table.UpdatedColumn]; !ok {
			sets = append(sets, s.table.UpdatedColumn+" = ?")
			args = append(args, time.Now().UTC())
		}
	}

	clause, args := buildWhere(where, args)
	query := s.db.Rebind(fmt.Sprintf(
		`UPDATE %s SET %s WHERE %s RETURNING %s`,
		s.table.Name,
		strings.Join(sets, ", "),
		clause,
		s.selectList,
	))

	var record T
	err := s.db.GetContext(ctx, &record, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update %s: %w", s.table.Name, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf(
			"update %s: %w",
			s.table.Name,
			core.TranslateDBError(err),
		)
	}

	return &record, nil
}

// buildWhere renders where as a ?-placeholder clause, appending its
// arguments to args. Column names come from Table.Columns, never from
// callers, so they are safe to interpolate.
func buildWhere(where Predicate, args []any) (string, []any) {
	if len(where) == 0 {
		return "TRUE", args
	}

	conds := make([]string, 0, len(where))
	for _, col := range sortedKeys(where) {
		value := where[col]
		if value == nil {
			conds = append(conds, col+" IS NULL")
			continue
		}
		conds = append(conds, col+" = ?")
		args = append(args, value)
	}

	return strings.Join(conds, " AND "), args
}
