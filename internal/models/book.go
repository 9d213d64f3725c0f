package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout формат published_date (ISO 8601, только дата)
const DateLayout = "2006-01-02"

// Book представляет книгу в каталоге пользователя.
// Книга всегда принадлежит ровно одному пользователю (CreatedBy).
type Book struct {
	PublishedDate   time.Time       `json:"published_date"`   // дата публикации (без времени)
	CreatedAt       time.Time       `json:"created_at"`       // время создания записи
	UpdatedAt       time.Time       `json:"updated_at"`       // время последнего изменения
	Price           decimal.Decimal `json:"price"`            // цена, decimal(10,2)
	BookName        string          `json:"book_name"`        // название книги
	AuthorName      string          `json:"author_name"`      // автор
	PublicationName string          `json:"publication_name"` // издательство
	CreatedBy       string          `json:"created_by"`       // ID владельца
	ID              int64           `json:"id"`               // автоинкрементный ID
}

// IsOwnedBy проверяет, принадлежит ли книга пользователю
func (b *Book) IsOwnedBy(userID string) bool {
	return b.CreatedBy == userID
}
