package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/iudanet/bookshelf/internal/client/auth"
	"github.com/iudanet/bookshelf/internal/client/iocli"
	"github.com/iudanet/bookshelf/internal/client/storage"
	"github.com/iudanet/bookshelf/pkg/api"
)

// Session управление сессией пользователя (реализует auth.Service)
type Session interface {
	Register(ctx context.Context, name, email, password string) (*api.RegisterResponse, error)
	Login(ctx context.Context, email, password string) (*storage.AuthData, error)
	Logout(ctx context.Context) error
	Status(ctx context.Context) (*storage.AuthData, error)
	AccessToken(ctx context.Context) (string, error)
}

// BooksAPI операции с книгами на сервере (реализует api.Client)
type BooksAPI interface {
	ListBooks(ctx context.Context, accessToken string) ([]api.Book, error)
	GetBook(ctx context.Context, accessToken string, id int64) (*api.Book, error)
	CreateBook(ctx context.Context, accessToken string, req api.BookRequest) (*api.Book, error)
	UpdateBook(ctx context.Context, accessToken string, id int64, req api.BookRequest) (*api.Book, error)
	DeleteBook(ctx context.Context, accessToken string, id int64) error
}

type Cli struct {
	io    iocli.IO
	auth  Session
	books BooksAPI
	now   func() time.Time
}

func New(io iocli.IO, session Session, books BooksAPI) *Cli {
	return &Cli{
		io:    io,
		auth:  session,
		books: books,
		now:   time.Now,
	}
}

// accessToken возвращает действующий access token или понятную пользователю ошибку
func (c *Cli) accessToken(ctx context.Context) (string, error) {
	token, err := c.auth.AccessToken(ctx)
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		return "", fmt.Errorf("%w. Please run 'bookshelf login' first", err)
	case errors.Is(err, auth.ErrSessionExpired):
		return "", fmt.Errorf("%w. Please run 'bookshelf login' again", err)
	case err != nil:
		return "", err
	}
	return token, nil
}

// parseBookID разбирает ID книги из аргументов команды
func parseBookID(args []string, usage string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("missing book id. %s", usage)
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid book id %q. %s", args[0], usage)
	}

	return id, nil
}

func PrintUsage(w io.Writer) {
	_, _ = fmt.Fprint(w, `Bookshelf Client

Usage:
  bookshelf [OPTIONS] COMMAND [ARGS]

Options:
  -version          Show version information
  -server URL       Server URL (default: http://localhost:8000, env BOOKSHELF_SERVER)
  -db PATH          Path to local session database (default: bookshelf-client.db)

Commands:
  register          Register new user
  login             Login to server
  logout            Logout and revoke the session
  status            Show authentication status
  list              List your books
  get <id>          Show book details
  add               Add a new book
  update <id>       Update a book (empty input keeps the current value)
  delete [-y] <id>  Delete a book

Examples:
  bookshelf register
  bookshelf login
  bookshelf add
  bookshelf list
  bookshelf get 1
  bookshelf -server https://books.example.com delete -y 1
`)
}
