package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/iudanet/bookshelf/internal/validation"
	"github.com/iudanet/bookshelf/pkg/api"
)

// SendJSON отправляет JSON ответ
func SendJSON(w http.ResponseWriter, logger *slog.Logger, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// SendError отправляет JSON ответ с ошибкой
func SendError(w http.ResponseWriter, logger *slog.Logger, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	SendJSON(w, logger, resp, statusCode)
}

// sendValidationError отправляет 400 с ошибками по полям
func sendValidationError(w http.ResponseWriter, logger *slog.Logger, errs validation.Errors) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(http.StatusBadRequest),
		Message: "validation failed",
		Fields:  errs,
	}
	SendJSON(w, logger, resp, http.StatusBadRequest)
}

// sendDecodeError отвечает на ошибку разбора JSON тела.
// Значение неверного типа привязывается к полю, остальное - общий 400.
func sendDecodeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		sendValidationError(w, logger, validation.Errors{
			typeErr.Field: {fmt.Sprintf("Not a valid %s.", typeErr.Type.Kind())},
		})
		return
	}
	SendError(w, logger, "invalid request body", http.StatusBadRequest)
}
