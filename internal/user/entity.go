// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/coursemarket/internal/core"
	"github.com/carterperez-dev/coursemarket/internal/lifecycle"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string     `db:"id"`
	FirstName    string     `db:"first_name"    validate:"required,max=100"`
	LastName     string     `db:"last_name"     validate:"required,max=100"`
	Email        string     `db:"email"         validate:"required,email,max=255"`
	PasswordHash string     `db:"password_hash" validate:"required"`
	Role         string     `db:"role"          validate:"required,oneof=user admin"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Table maps User onto the users table. Email is unique among live
// users only, matching users_email_live_key.
var Table = lifecycle.Table{
	Name: "users",
	Columns: []string{
		"id",
		"first_name",
		"last_name",
		"email",
		"password_hash",
		"role",
		"created_at",
		"updated_at",
		"deleted_at",
	},
	Mutable:       []string{"first_name", "last_name", "role", "password_hash"},
	LiveUnique:    []string{"email"},
	IDColumn:      "id",
	UpdatedColumn: "updated_at",
	OrderColumn:   "created_at",
}

func NewSQLStore(db core.DBTX) lifecycle.Store[User] {
	return lifecycle.NewSQLStore[User](db, Table)
}

func NewMemoryStore() lifecycle.Store[User] {
	return lifecycle.NewMemoryStore[User](Table)
}
