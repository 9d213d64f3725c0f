package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/bookshelf/internal/models"
	"github.com/iudanet/bookshelf/internal/server/storage"
	"github.com/iudanet/bookshelf/internal/validation"
)

// BookService определяет операции с книгами от имени пользователя.
// Все операции ограничены книгами этого пользователя: чужая книга
// неотличима от несуществующей (storage.ErrBookNotFound).
type BookService interface {
	List(ctx context.Context, user *models.User) ([]*models.Book, error)
	Get(ctx context.Context, user *models.User, id int64) (*models.Book, error)
	Create(ctx context.Context, user *models.User, input validation.BookInput) (*models.Book, error)
	Update(ctx context.Context, user *models.User, id int64, input validation.BookInput) (*models.Book, error)
	Delete(ctx context.Context, user *models.User, id int64) error
}

// bookService реализует BookService поверх BookStorage
type bookService struct {
	books storage.BookStorage
	now   func() time.Time
}

// Option настраивает bookService
type Option func(*bookService)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(s *bookService) {
		s.now = now
	}
}

// NewBookService creates a new book service
func NewBookService(books storage.BookStorage, opts ...Option) BookService {
	s := &bookService{
		books: books,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all books of the user in insertion order
func (s *bookService) List(ctx context.Context, user *models.User) ([]*models.Book, error) {
	books, err := s.books.ListBooks(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// Get returns a single book of the user
func (s *bookService) Get(ctx context.Context, user *models.User, id int64) (*models.Book, error) {
	return s.ownedBook(ctx, user, id)
}

// ownedBook загружает книгу пользователя.
// Книга с другим CreatedBy считается ненайденной.
func (s *bookService) ownedBook(ctx context.Context, user *models.User, id int64) (*models.Book, error) {
	book, err := s.books.GetBook(ctx, id, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	if !book.IsOwnedBy(user.ID) {
		return nil, fmt.Errorf("failed to get book: %w", storage.ErrBookNotFound)
	}
	return book, nil
}

// Create validates input and stores a new book owned by the user
func (s *bookService) Create(ctx context.Context, user *models.User, input validation.BookInput) (*models.Book, error) {
	fields, err := input.Validate()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	book := &models.Book{
		BookName:        fields.BookName,
		AuthorName:      fields.AuthorName,
		PublicationName: fields.PublicationName,
		PublishedDate:   fields.PublishedDate,
		Price:           fields.Price,
		CreatedBy:       user.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.books.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	return book, nil
}

// Update overwrites all editable fields of the user's book.
// Ownership is checked before validation, so a foreign or missing
// book is reported as not found even when the input is invalid.
func (s *bookService) Update(ctx context.Context, user *models.User, id int64, input validation.BookInput) (*models.Book, error) {
	book, err := s.ownedBook(ctx, user, id)
	if err != nil {
		return nil, err
	}

	fields, err := input.Validate()
	if err != nil {
		return nil, err
	}

	book.BookName = fields.BookName
	book.AuthorName = fields.AuthorName
	book.PublicationName = fields.PublicationName
	book.PublishedDate = fields.PublishedDate
	book.Price = fields.Price
	book.CreatedBy = user.ID
	book.UpdatedAt = s.now().UTC()

	if err := s.books.UpdateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	return book, nil
}

// Delete removes the user's book
func (s *bookService) Delete(ctx context.Context, user *models.User, id int64) error {
	if err := s.books.DeleteBook(ctx, id, user.ID); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return nil
}
