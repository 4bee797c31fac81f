package books

type ListBooksQuery struct {
	IsBorrowed *bool  `query:"is_borrowed" json:"is_borrowed,omitempty"`
	Page       string `query:"page" json:"page,omitempty"`
}

type CreateBookPayload struct {
	Title  string `json:"title" validate:"required,notblank,max=255"`
	Author int    `json:"author" validate:"required,min=1"`
}

// ReplaceBookPayload is the body of PUT, which requires every field.
type ReplaceBookPayload = CreateBookPayload

type UpdateBookPayload struct {
	Title  *string `json:"title,omitempty" validate:"omitempty,notblank,max=255"`
	Author *int    `json:"author,omitempty" validate:"omitempty,min=1"`
}

type BorrowingPayload struct {
	Action string `json:"action" validate:"required,oneof=borrow return"`
}

// BookResponse is how a book is represented in every response. The loan
// columns are only exposed through IsBorrowed.
type BookResponse struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Author     int    `json:"author"`
	IsBorrowed bool   `json:"is_borrowed"`
}
