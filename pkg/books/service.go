package books

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/lending/pkg/errcodes"
	"github.com/shishobooks/lending/pkg/models"
	"github.com/uptrace/bun"
)

const msgTitleTaken = "book with this title already exists."

type ListBooksOptions struct {
	IsBorrowed *bool
	Limit      *int
	Offset     *int
}

type UpdateBookOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateBook(ctx context.Context, book *models.Book) error {
	if err := svc.validateReferences(ctx, book, []string{"title", "author_id"}); err != nil {
		return err
	}

	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(book).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveBook(ctx context.Context, id int) (*models.Book, error) {
	book := &models.Book{}

	err := svc.db.
		NewSelect().
		Model(book).
		Where("b.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

// ListBooksWithTotal returns a page of books along with the number of books
// matching the filters across all pages.
func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}

	q := svc.db.
		NewSelect().
		Model(&books).
		Order("b.id ASC")

	if opts.IsBorrowed != nil {
		if *opts.IsBorrowed {
			q = q.Where("b.borrowed_on IS NOT NULL AND b.borrowed_by_id IS NOT NULL")
		} else {
			q = q.Where("b.borrowed_on IS NULL AND b.borrowed_by_id IS NULL")
		}
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return books, total, nil
}

func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	if err := svc.validateReferences(ctx, book, opts.Columns); err != nil {
		return err
	}

	book.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(book).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// SaveLoan writes the loan columns of the book and nothing else.
func (svc *Service) SaveLoan(ctx context.Context, book *models.Book) error {
	return svc.UpdateBook(ctx, book, UpdateBookOptions{
		Columns: []string{"borrowed_on", "borrowed_by_id"},
	})
}

func (svc *Service) DeleteBook(ctx context.Context, id int) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.Book)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Book")
	}
	return nil
}

// validateReferences checks the unique title and the author reference for the
// columns being written, collecting both problems into one set of field
// errors.
func (svc *Service) validateReferences(ctx context.Context, book *models.Book, columns []string) error {
	fe := errcodes.FieldErrors{}

	for _, col := range columns {
		switch col {
		case "title":
			taken, err := svc.db.
				NewSelect().
				Model((*models.Book)(nil)).
				Where("b.title = ?", book.Title).
				Where("b.id != ?", book.ID).
				Exists(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			if taken {
				fe.Add("title", msgTitleTaken)
			}
		case "author_id":
			exists, err := svc.db.
				NewSelect().
				Model((*models.Author)(nil)).
				Where("a.id = ?", book.AuthorID).
				Exists(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			if !exists {
				fe.Add("author", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", book.AuthorID))
			}
		}
	}

	if len(fe) > 0 {
		return fe
	}
	return nil
}
