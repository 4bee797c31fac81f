package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID           int        `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time  `json:"-"`
	UpdatedAt    time.Time  `json:"-"`
	Title        string     `bun:",nullzero" json:"title"`
	AuthorID     int        `bun:",nullzero" json:"author"`
	Author       *Author    `bun:"rel:belongs-to,join:author_id=id" json:"-"`
	BorrowedOn   *time.Time `bun:"type:date" json:"-"`
	BorrowedByID *int       `json:"-"`
	BorrowedBy   *User      `bun:"rel:belongs-to,join:borrowed_by_id=id" json:"-"`
}

// IsBorrowed reports whether the book is currently on loan. A loan needs both
// the date and the borrower; a book with only one of them set is not borrowed.
func (b *Book) IsBorrowed() bool {
	return b.BorrowedOn != nil && b.BorrowedByID != nil
}

// Borrow records a loan to the given user on the given day.
func (b *Book) Borrow(userID int, on time.Time) {
	day := DateOf(on)
	b.BorrowedOn = &day
	b.BorrowedByID = &userID
}

// Return clears the loan.
func (b *Book) Return() {
	b.BorrowedOn = nil
	b.BorrowedByID = nil
	b.BorrowedBy = nil
}

// DateOf drops the clock part of t, keeping its calendar day in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
