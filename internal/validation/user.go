package validation

import "strings"

const (
	// MinPasswordLen минимальная длина пароля
	MinPasswordLen = 8
	// MaxPasswordLen bcrypt учитывает только первые 72 байта
	MaxPasswordLen = 72
)

// RegisterInput данные для регистрации пользователя
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max_bytes=72"`
}

// Validate проверяет поля регистрации
func (in RegisterInput) Validate() error {
	return Struct(in)
}

// LoginInput данные для входа
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Validate проверяет поля входа
func (in LoginInput) Validate() error {
	return Struct(in)
}

// NormalizeEmail убирает пробелы и приводит доменную часть к нижнему регистру.
// Локальная часть сохраняется как есть.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}

	return email[:at+1] + strings.ToLower(email[at+1:])
}
