package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/iudanet/bookshelf/internal/models"
	"github.com/iudanet/bookshelf/internal/server/service"
	"github.com/iudanet/bookshelf/internal/server/storage"
	"github.com/iudanet/bookshelf/internal/validation"
	"github.com/iudanet/bookshelf/pkg/api"
)

// BooksHandler обрабатывает CRUD запросы к книгам текущего пользователя.
// Все маршруты требуют AuthMiddleware.
type BooksHandler struct {
	logger *slog.Logger
	books  service.BookService
}

// NewBooksHandler создает новый handler для книг
func NewBooksHandler(logger *slog.Logger, books service.BookService) *BooksHandler {
	return &BooksHandler{
		logger: logger,
		books:  books,
	}
}

// List обрабатывает GET /books/
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	h.list(w, r, user)
}

// ListByUser обрабатывает GET /books/user/{user_id}/
// Разрешено смотреть только собственный список
func (h *BooksHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if r.PathValue("user_id") != user.ID {
		h.logger.WarnContext(r.Context(), "attempt to list foreign books",
			slog.String("user_id", user.ID),
			slog.String("requested_user_id", r.PathValue("user_id")))
		SendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	h.list(w, r, user)
}

func (h *BooksHandler) list(w http.ResponseWriter, r *http.Request, user *models.User) {
	books, err := h.books.List(r.Context(), user)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list books", slog.Any("error", err))
		SendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]api.Book, 0, len(books))
	for _, book := range books {
		resp = append(resp, toAPIBook(book))
	}

	SendJSON(w, h.logger, resp, http.StatusOK)
}

// Get обрабатывает GET /books/{id}/
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	id, ok := h.bookID(w, r)
	if !ok {
		return
	}

	book, err := h.books.Get(r.Context(), user, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	SendJSON(w, h.logger, toAPIBook(book), http.StatusOK)
}

// Create обрабатывает POST /books/
func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	input, ok := h.decodeBook(w, r)
	if !ok {
		return
	}

	book, err := h.books.Create(r.Context(), user, input)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "book created",
		slog.String("user_id", user.ID),
		slog.Int64("book_id", book.ID))

	SendJSON(w, h.logger, toAPIBook(book), http.StatusCreated)
}

// Update обрабатывает PUT /books/{id}/update/
func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	id, ok := h.bookID(w, r)
	if !ok {
		return
	}

	input, ok := h.decodeBook(w, r)
	if !ok {
		return
	}

	book, err := h.books.Update(r.Context(), user, id, input)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "book updated",
		slog.String("user_id", user.ID),
		slog.Int64("book_id", book.ID))

	SendJSON(w, h.logger, toAPIBook(book), http.StatusOK)
}

// Delete обрабатывает DELETE /books/{id}/delete/
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	id, ok := h.bookID(w, r)
	if !ok {
		return
	}

	if err := h.books.Delete(r.Context(), user, id); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "book deleted",
		slog.String("user_id", user.ID),
		slog.Int64("book_id", id))

	SendJSON(w, h.logger, api.MessageResponse{Message: "Book deleted successfully"}, http.StatusOK)
}

func (h *BooksHandler) requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "user not found in context")
		SendError(w, h.logger, "authentication required", http.StatusUnauthorized)
		return nil, false
	}
	return user, true
}

// bookID разбирает {id} из пути. Нечисловой id неотличим от несуществующей книги.
func (h *BooksHandler) bookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		SendError(w, h.logger, "book not found", http.StatusNotFound)
		return 0, false
	}
	return id, true
}

// decodeBook разбирает тело запроса в BookInput.
// Цена принимается строкой или числом JSON без потери точности.
func (h *BooksHandler) decodeBook(w http.ResponseWriter, r *http.Request) (validation.BookInput, bool) {
	var req api.BookRequest

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&req); err != nil {
		h.logger.WarnContext(r.Context(), "failed to decode book request", slog.Any("error", err))
		sendDecodeError(w, h.logger, err)
		return validation.BookInput{}, false
	}

	return validation.BookInput{
		BookName:        strings.TrimSpace(req.BookName),
		AuthorName:      strings.TrimSpace(req.AuthorName),
		PublicationName: strings.TrimSpace(req.PublicationName),
		PublishedDate:   strings.TrimSpace(req.PublishedDate),
		Price:           priceString(req.Price),
	}, true
}

func priceString(v any) string {
	switch p := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(p)
	case json.Number:
		return p.String()
	default:
		// bool, объект или массив: заведомо невалидное значение
		return fmt.Sprint(p)
	}
}

func (h *BooksHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		h.logger.WarnContext(r.Context(), "book validation failed", slog.Any("error", err))
		sendValidationError(w, h.logger, verrs)
	case errors.Is(err, storage.ErrBookNotFound):
		SendError(w, h.logger, "book not found", http.StatusNotFound)
	default:
		h.logger.ErrorContext(r.Context(), "book operation failed", slog.Any("error", err))
		SendError(w, h.logger, "internal server error", http.StatusInternalServerError)
	}
}

func toAPIBook(book *models.Book) api.Book {
	return api.Book{
		ID:              book.ID,
		BookName:        book.BookName,
		AuthorName:      book.AuthorName,
		PublicationName: book.PublicationName,
		PublishedDate:   book.PublishedDate.Format(models.DateLayout),
		Price:           book.Price.StringFixed(2),
		CreatedBy:       book.CreatedBy,
	}
}
