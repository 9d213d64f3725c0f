package models

import "time"

// User представляет пользователя в системе
type User struct {
	CreatedAt    time.Time  `json:"created_at"`           // время регистрации
	LastLogin    *time.Time `json:"last_login,omitempty"` // время последнего входа
	ID           string     `json:"id"`                   // UUID пользователя
	Name         string     `json:"name"`                 // отображаемое имя
	Email        string     `json:"email"`                // уникальный email
	PasswordHash string     `json:"-"`                    // bcrypt хеш пароля
}

// OutstandingToken представляет выданный refresh token
type OutstandingToken struct {
	CreatedAt time.Time `json:"created_at"` // время выдачи
	ExpiresAt time.Time `json:"expires_at"` // время истечения
	JTI       string    `json:"jti"`        // UUID токена (claim jti)
	UserID    string    `json:"user_id"`    // ID владельца
	Token     string    `json:"-"`          // подписанный токен целиком
}
