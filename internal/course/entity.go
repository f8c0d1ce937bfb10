// AngelaMos | 2026
// entity.go

package course

import (
	"time"

	"github.com/lib/pq"

	"github.com/carterperez-dev/coursemarket/internal/core"
	"github.com/carterperez-dev/coursemarket/internal/lifecycle"
)

const (
	LevelBeginner     = "BEGINNER"
	LevelIntermediate = "INTERMEDIATE"
	LevelAdvanced     = "ADVANCED"
)

type Course struct {
	ID                string         `db:"id"`
	TeacherID         string         `db:"teacher_id"         validate:"required"`
	Title             string         `db:"title"              validate:"required,max=255"`
	Subtitle          string         `db:"subtitle"           validate:"required,max=255"`
	CategoryID        string         `db:"category_id"        validate:"required"`
	SubCategoryID     string         `db:"sub_category_id"    validate:"required"`
	Topic             string         `db:"topic"              validate:"required"`
	Language          string         `db:"language"           validate:"required"`
	SubtitleLanguages pq.StringArray `db:"subtitle_languages" validate:"required"`
	Level             string         `db:"level"              validate:"required,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Duration          int            `db:"duration"           validate:"gt=0"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
	DeletedAt         *time.Time     `db:"deleted_at"`
}

func (c *Course) IsDeleted() bool {
	return c.DeletedAt != nil
}

func (c *Course) OwnedBy(userID string) bool {
	return c.TeacherID == userID
}

var Table = lifecycle.Table{
	Name: "courses",
	Columns: []string{
		"id",
		"teacher_id",
		"title",
		"subtitle",
		"category_id",
		"sub_category_id",
		"topic",
		"language",
		"subtitle_languages",
		"level",
		"duration",
		"created_at",
		"updated_at",
		"deleted_at",
	},
	Mutable: []string{
		"title",
		"subtitle",
		"category_id",
		"sub_category_id",
		"topic",
		"language",
		"subtitle_languages",
		"level",
		"duration",
	},
	UpdatedColumn: "updated_at",
	OrderColumn:   "created_at",
}

func NewSQLStore(db core.DBTX) lifecycle.Store[Course] {
	return lifecycle.NewSQLStore[Course](db, Table)
}

func NewMemoryStore() lifecycle.Store[Course] {
	return lifecycle.NewMemoryStore[Course](Table)
}
