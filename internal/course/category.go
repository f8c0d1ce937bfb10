// AngelaMos | 2026
// category.go

package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/carterperez-dev/coursemarket/internal/core"
)

type Category struct {
	ID   string `db:"id"   json:"id"`
	Name string `db:"name" json:"name"`
}

type SubCategory struct {
	ID         string `db:"id"          json:"id"`
	CategoryID string `db:"category_id" json:"categoryId"`
	Name       string `db:"name"        json:"name"`
}

// CategoryResolver looks up the catalog taxonomy a course points at.
// Both methods return core.ErrNotFound for unknown ids.
type CategoryResolver interface {
	Category(ctx context.Context, id string) (*Category, error)
	SubCategory(ctx context.Context, id string) (*SubCategory, error)
}

type SQLCategories struct {
	db core.DBTX
}

func NewSQLCategories(db core.DBTX) *SQLCategories {
	return &SQLCategories{db: db}
}

func (c *SQLCategories) Category(ctx context.Context, id string) (*Category, error) {
	var cat Category
	err := c.db.GetContext(ctx, &cat,
		`SELECT id, name FROM categories WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &cat, nil
}

func (c *SQLCategories) SubCategory(ctx context.Context, id string) (*SubCategory, error) {
	var sub SubCategory
	err := c.db.GetContext(ctx, &sub,
		`SELECT id, category_id, name FROM sub_categories WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sub-category %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get sub-category: %w", err)
	}
	return &sub, nil
}

// StaticCategories is an in-process taxonomy for tests and local runs
// without a database.
type StaticCategories struct {
	mu   sync.RWMutex
	cats map[string]Category
	subs map[string]SubCategory
}

func NewStaticCategories() *StaticCategories {
	return &StaticCategories{
		cats: make(map[string]Category),
		subs: make(map[string]SubCategory),
	}
}

func (s *StaticCategories) AddCategory(c Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cats[c.ID] = c
}

func (s *StaticCategories) AddSubCategory(sc SubCategory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sc.ID] = sc
}

func (s *StaticCategories) Category(_ context.Context, id string) (*Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cats[id]
	if !ok {
		return nil, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return &c, nil
}

func (s *StaticCategories) SubCategory(_ context.Context, id string) (*SubCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.subs[id]
	if !ok {
		return nil, fmt.Errorf("sub-category %s: %w", id, core.ErrNotFound)
	}
	return &sc, nil
}
