package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/bookshelf/internal/client/api"
)

const getUsage = "Usage: bookshelf get <id>"

func (c *Cli) runGet(ctx context.Context, args []string) error {
	id, err := parseBookID(args, getUsage)
	if err != nil {
		return err
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	book, err := c.books.GetBook(ctx, token, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("book %d not found", id)
		}
		return fmt.Errorf("failed to get book: %w", err)
	}

	return c.printBook(book)
}
