package api

// Book представляет книгу в ответах API
type Book struct {
	BookName        string `json:"book_name"`
	AuthorName      string `json:"author_name"`
	PublicationName string `json:"publication_name"`
	PublishedDate   string `json:"published_date"` // YYYY-MM-DD
	Price           string `json:"price"`          // фиксированная точка, 2 знака: "9.99"
	CreatedBy       string `json:"created_by"`     // UUID владельца
	ID              int64  `json:"id"`
}

// BookRequest представляет тело запроса на создание или обновление книги.
// Price принимается строкой или числом JSON.
// created_by в запросе игнорируется: владельцем всегда становится текущий пользователь.
type BookRequest struct {
	Price           any    `json:"price"`
	BookName        string `json:"book_name"`
	AuthorName      string `json:"author_name"`
	PublicationName string `json:"publication_name"`
	PublishedDate   string `json:"published_date"`
}
