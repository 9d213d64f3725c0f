package cli

import (
	"context"
	"errors"
	"fmt"

	clientapi "github.com/iudanet/bookshelf/internal/client/api"
	"github.com/iudanet/bookshelf/internal/validation"
	"github.com/iudanet/bookshelf/pkg/api"
)

const updateUsage = "Usage: bookshelf update <id>"

func (c *Cli) runAdd(ctx context.Context) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	c.io.Println("=== Add Book ===")
	c.io.Println()

	req, err := c.readBook(nil)
	if err != nil {
		return err
	}

	book, err := c.books.CreateBook(ctx, token, req)
	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}

	c.io.Println()
	c.io.Printf("✓ Book added (ID: %d)\n", book.ID)

	return nil
}

func (c *Cli) runUpdate(ctx context.Context, args []string) error {
	id, err := parseBookID(args, updateUsage)
	if err != nil {
		return err
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	current, err := c.books.GetBook(ctx, token, id)
	if err != nil {
		if errors.Is(err, clientapi.ErrNotFound) {
			return fmt.Errorf("book %d not found", id)
		}
		return fmt.Errorf("failed to get book: %w", err)
	}

	c.io.Printf("=== Update Book %d ===\n", id)
	c.io.Println("Press Enter to keep the current value.")
	c.io.Println()

	req, err := c.readBook(current)
	if err != nil {
		return err
	}

	book, err := c.books.UpdateBook(ctx, token, id, req)
	if err != nil {
		if errors.Is(err, clientapi.ErrNotFound) {
			return fmt.Errorf("book %d not found", id)
		}
		return fmt.Errorf("failed to update book: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Book updated")

	return c.printBook(book)
}

// readBook запрашивает поля книги; для current пустой ввод оставляет текущее значение.
// Поля проверяются до отправки на сервер.
func (c *Cli) readBook(current *api.Book) (api.BookRequest, error) {
	var defaults api.Book
	if current != nil {
		defaults = *current
	}

	var input validation.BookInput
	fields := []struct {
		dst    *string
		prompt string
		def    string
	}{
		{dst: &input.BookName, prompt: "Title", def: defaults.BookName},
		{dst: &input.AuthorName, prompt: "Author", def: defaults.AuthorName},
		{dst: &input.PublicationName, prompt: "Publisher", def: defaults.PublicationName},
		{dst: &input.PublishedDate, prompt: "Published date (YYYY-MM-DD)", def: defaults.PublishedDate},
		{dst: &input.Price, prompt: "Price", def: defaults.Price},
	}

	for _, f := range fields {
		prompt := f.prompt + ": "
		if f.def != "" {
			prompt = fmt.Sprintf("%s [%s]: ", f.prompt, f.def)
		}

		value, err := c.io.ReadInput(prompt)
		if err != nil {
			return api.BookRequest{}, fmt.Errorf("failed to read %s: %w", f.prompt, err)
		}
		if value == "" {
			value = f.def
		}
		*f.dst = value
	}

	if _, err := input.Validate(); err != nil {
		return api.BookRequest{}, err
	}

	return api.BookRequest{
		BookName:        input.BookName,
		AuthorName:      input.AuthorName,
		PublicationName: input.PublicationName,
		PublishedDate:   input.PublishedDate,
		Price:           input.Price,
	}, nil
}
