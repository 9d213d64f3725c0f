package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runList(ctx context.Context) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	books, err := c.books.ListBooks(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}

	c.io.Println("=== Your Books ===")
	c.io.Println()

	if len(books) == 0 {
		c.io.Println("No books found.")
		c.io.Println()
		c.io.Println("Use 'bookshelf add' to add your first book.")
		return nil
	}

	c.io.Printf("Found %d book(s):\n", len(books))
	c.io.Println()

	for _, book := range books {
		c.io.Printf("[%d] %s\n", book.ID, book.BookName)
		c.io.Printf("     Author:    %s\n", book.AuthorName)
		c.io.Printf("     Published: %s, %s\n", book.PublicationName, book.PublishedDate)
		c.io.Printf("     Price:     %s\n", book.Price)
		c.io.Println()
	}

	return nil
}
