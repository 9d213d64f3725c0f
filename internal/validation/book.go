package validation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iudanet/bookshelf/internal/models"
)

// BookInput поля книги, приходящие от клиента.
// Владелец сюда не входит: он всегда берется из аутентифицированного пользователя.
type BookInput struct {
	BookName        string `json:"book_name" validate:"required,max=255"`
	AuthorName      string `json:"author_name" validate:"required,max=255"`
	PublicationName string `json:"publication_name" validate:"required,max=255"`
	PublishedDate   string `json:"published_date" validate:"required,datetime=2006-01-02"`
	Price           string `json:"price" validate:"required,decimal,nonnegative,decimal_places=2,max_digits=10,whole_digits=8"`
}

// BookFields провалидированные и разобранные поля книги
type BookFields struct {
	PublishedDate   time.Time
	Price           decimal.Decimal
	BookName        string
	AuthorName      string
	PublicationName string
}

// Validate проверяет поля и возвращает разобранные значения.
// Возвращает Errors, если хотя бы одно поле невалидно.
func (in BookInput) Validate() (*BookFields, error) {
	if err := Struct(in); err != nil {
		return nil, err
	}

	date, err := time.Parse(models.DateLayout, in.PublishedDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse published_date: %w", err)
	}

	price, err := decimal.NewFromString(in.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}

	return &BookFields{
		BookName:        in.BookName,
		AuthorName:      in.AuthorName,
		PublicationName: in.PublicationName,
		PublishedDate:   date,
		Price:           price,
	}, nil
}
