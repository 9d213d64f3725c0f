package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iudanet/bookshelf/internal/models"
	"github.com/iudanet/bookshelf/internal/server/storage"
)

const bookColumns = `id, book_name, author_name, publication_name, published_date, price, created_by, created_at, updated_at`

// CreateBook inserts a new book and sets its ID
func (s *Storage) CreateBook(ctx context.Context, book *models.Book) error {
	query := `
		INSERT INTO books (
			book_name, author_name, publication_name, published_date,
			price, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		book.BookName,
		book.AuthorName,
		book.PublicationName,
		book.PublishedDate.Format(models.DateLayout),
		book.Price.StringFixed(2),
		book.CreatedBy,
		book.CreatedAt.Unix(),
		book.UpdatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	book.ID = id

	return nil
}

// GetBook retrieves book by ID owned by ownerID
func (s *Storage) GetBook(ctx context.Context, id int64, ownerID string) (*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ? AND created_by = ?`

	book, err := scanBook(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	return book, nil
}

// ListBooks retrieves all books owned by ownerID in insertion order
func (s *Storage) ListBooks(ctx context.Context, ownerID string) ([]*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE created_by = ? ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	books := make([]*models.Book, 0)

	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return books, nil
}

// UpdateBook overwrites book fields, matching on (ID, CreatedBy)
func (s *Storage) UpdateBook(ctx context.Context, book *models.Book) error {
	query := `
		UPDATE books
		SET book_name = ?, author_name = ?, publication_name = ?,
		    published_date = ?, price = ?, updated_at = ?
		WHERE id = ? AND created_by = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		book.BookName,
		book.AuthorName,
		book.PublicationName,
		book.PublishedDate.Format(models.DateLayout),
		book.Price.StringFixed(2),
		book.UpdatedAt.Unix(),
		book.ID,
		book.CreatedBy,
	)

	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrBookNotFound
	}

	return nil
}

// DeleteBook deletes book by ID owned by ownerID
func (s *Storage) DeleteBook(ctx context.Context, id int64, ownerID string) error {
	query := `DELETE FROM books WHERE id = ? AND created_by = ?`

	result, err := s.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrBookNotFound
	}

	return nil
}

// rowScanner общий интерфейс для *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*models.Book, error) {
	book := &models.Book{}
	var publishedDate, price string
	var createdAt, updatedAt int64

	if err := row.Scan(
		&book.ID,
		&book.BookName,
		&book.AuthorName,
		&book.PublicationName,
		&publishedDate,
		&price,
		&book.CreatedBy,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	date, err := time.Parse(models.DateLayout, publishedDate)
	if err != nil {
		return nil, fmt.Errorf("invalid published_date %q: %w", publishedDate, err)
	}
	book.PublishedDate = date

	book.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", price, err)
	}

	book.CreatedAt = time.Unix(createdAt, 0).UTC()
	book.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return book, nil
}
