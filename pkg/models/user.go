package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
	Username     string    `bun:",nullzero" json:"username"`
	Email        string    `bun:",notnull" json:"email"`
	FirstName    string    `bun:",notnull" json:"first_name"`
	LastName     string    `bun:",notnull" json:"last_name"`
	PasswordHash string    `bun:",notnull" json:"-"` // Never expose password hash
	IsStaff      bool      `bun:",notnull" json:"-"`
	IsSuperuser  bool      `bun:",notnull" json:"-"`
	IsActive     bool      `bun:",notnull" json:"-"`
}

// HasUsablePassword reports whether the user can log in with a password at
// all. Users created through the API have no password until one is set.
func (u *User) HasUsablePassword() bool {
	return u.PasswordHash != ""
}
