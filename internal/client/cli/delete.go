package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/iudanet/bookshelf/internal/client/api"
)

const deleteUsage = "Usage: bookshelf delete [-y] <id>"

func (c *Cli) runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	yes := fs.Bool("y", false, "Delete without confirmation")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w. %s", err, deleteUsage)
	}

	id, err := parseBookID(fs.Args(), deleteUsage)
	if err != nil {
		return err
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	if !*yes {
		book, err := c.books.GetBook(ctx, token, id)
		if err != nil {
			if errors.Is(err, api.ErrNotFound) {
				return fmt.Errorf("book %d not found", id)
			}
			return fmt.Errorf("failed to get book: %w", err)
		}

		answer, err := c.io.ReadInput(fmt.Sprintf("Delete %q by %s? [y/N]: ", book.BookName, book.AuthorName))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if a := strings.ToLower(answer); a != "y" && a != "yes" {
			c.io.Println("Cancelled.")
			return nil
		}
	}

	if err := c.books.DeleteBook(ctx, token, id); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("book %d not found", id)
		}
		return fmt.Errorf("failed to delete book: %w", err)
	}

	c.io.Printf("✓ Book %d deleted\n", id)

	return nil
}
