package storage

import (
	"context"

	"github.com/iudanet/bookshelf/internal/models"
)

// BookStorage defines interface for book persistence.
// Every lookup and write is scoped by owner: a book owned by another
// user behaves exactly like a missing one (ErrBookNotFound).
type BookStorage interface {
	// CreateBook inserts a new book and sets its ID
	CreateBook(ctx context.Context, book *models.Book) error

	// GetBook retrieves book by ID owned by ownerID
	// Returns ErrBookNotFound if book doesn't exist or is owned by someone else
	GetBook(ctx context.Context, id int64, ownerID string) (*models.Book, error)

	// ListBooks retrieves all books owned by ownerID in insertion order
	// Returns empty slice if no books found
	ListBooks(ctx context.Context, ownerID string) ([]*models.Book, error)

	// UpdateBook overwrites book fields, matching on (ID, CreatedBy)
	// Returns ErrBookNotFound if no such book
	UpdateBook(ctx context.Context, book *models.Book) error

	// DeleteBook deletes book by ID owned by ownerID
	// Returns ErrBookNotFound if no such book
	DeleteBook(ctx context.Context, id int64, ownerID string) error
}
