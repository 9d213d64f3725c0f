package cli

import (
	"fmt"
	"text/template"

	"github.com/iudanet/bookshelf/pkg/api"
)

const bookTemplate = `
=== Book Details ===

ID:          {{.ID}}
Title:       {{.BookName}}
Author:      {{.AuthorName}}
Publisher:   {{.PublicationName}}
Published:   {{.PublishedDate}}
Price:       {{.Price}}
`

var bookTmpl = template.Must(template.New("book").Parse(bookTemplate))

// printBook выводит карточку книги
func (c *Cli) printBook(book *api.Book) error {
	if err := bookTmpl.Execute(c.io, book); err != nil {
		return fmt.Errorf("failed to render book: %w", err)
	}
	return nil
}
