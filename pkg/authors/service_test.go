package authors

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shishobooks/lending/pkg/errcodes"
	"github.com/shishobooks/lending/pkg/migrations"
	"github.com/shishobooks/lending/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is its own database.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestCreateAuthor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(newTestDB(t))

	author := &models.Author{Name: "Charles Dickens"}
	require.NoError(t, svc.CreateAuthor(ctx, author))
	assert.NotZero(t, author.ID)

	got, err := svc.RetrieveAuthor(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "Charles Dickens", got.Name)
}

func TestCreateAuthor_DuplicateName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(newTestDB(t))

	require.NoError(t, svc.CreateAuthor(ctx, &models.Author{Name: "Charles Dickens"}))

	err := svc.CreateAuthor(ctx, &models.Author{Name: "Charles Dickens"})
	require.Error(t, err)
	var fe errcodes.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, errcodes.FieldErrors{"name": {"author with this name already exists."}}, fe)
}

func TestRetrieveAuthor_NotFound(t *testing.T) {
	t.Parallel()
	svc := NewService(newTestDB(t))

	_, err := svc.RetrieveAuthor(context.Background(), 42)
	assert.ErrorIs(t, err, errcodes.NotFound("Author"))
}

func TestListAuthors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(newTestDB(t))

	authors, err := svc.ListAuthors(ctx)
	require.NoError(t, err)
	assert.NotNil(t, authors)
	assert.Empty(t, authors)

	require.NoError(t, svc.CreateAuthor(ctx, &models.Author{Name: "Charles Dickens"}))
	require.NoError(t, svc.CreateAuthor(ctx, &models.Author{Name: "Jane Austen"}))

	authors, err = svc.ListAuthors(ctx)
	require.NoError(t, err)
	require.Len(t, authors, 2)
	assert.Equal(t, "Charles Dickens", authors[0].Name)
	assert.Equal(t, "Jane Austen", authors[1].Name)
}

func TestUpdateAuthor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(newTestDB(t))

	author := &models.Author{Name: "Charles Dickens"}
	require.NoError(t, svc.CreateAuthor(ctx, author))
	require.NoError(t, svc.CreateAuthor(ctx, &models.Author{Name: "Jane Austen"}))

	author.Name = "Boz"
	require.NoError(t, svc.UpdateAuthor(ctx, author, UpdateAuthorOptions{Columns: []string{"name"}}))

	got, err := svc.RetrieveAuthor(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "Boz", got.Name)

	// Keeping your own name isn't a conflict, taking someone else's is.
	require.NoError(t, svc.UpdateAuthor(ctx, got, UpdateAuthorOptions{Columns: []string{"name"}}))
	got.Name = "Jane Austen"
	err = svc.UpdateAuthor(ctx, got, UpdateAuthorOptions{Columns: []string{"name"}})
	var fe errcodes.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe["name"], "author with this name already exists.")
}

func TestDeleteAuthor_DeletesTheirBooks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewService(db)

	dickens := &models.Author{Name: "Charles Dickens"}
	austen := &models.Author{Name: "Jane Austen"}
	require.NoError(t, svc.CreateAuthor(ctx, dickens))
	require.NoError(t, svc.CreateAuthor(ctx, austen))

	books := []*models.Book{
		{Title: "A Tale of Two Cities", AuthorID: dickens.ID},
		{Title: "Great Expectations", AuthorID: dickens.ID},
		{Title: "Emma", AuthorID: austen.ID},
	}
	_, err := db.NewInsert().Model(&books).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAuthor(ctx, dickens.ID))

	_, err = svc.RetrieveAuthor(ctx, dickens.ID)
	assert.ErrorIs(t, err, errcodes.NotFound("Author"))

	var remaining []*models.Book
	require.NoError(t, db.NewSelect().Model(&remaining).Scan(ctx))
	require.Len(t, remaining, 1)
	assert.Equal(t, "Emma", remaining[0].Title)
}

func TestDeleteAuthor_NotFound(t *testing.T) {
	t.Parallel()
	svc := NewService(newTestDB(t))

	err := svc.DeleteAuthor(context.Background(), 42)
	assert.ErrorIs(t, err, errcodes.NotFound("Author"))
}
