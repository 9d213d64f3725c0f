package api

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Name     string `json:"name"`     // отображаемое имя
	Email    string `json:"email"`    // email, используется как логин
	Password string `json:"password"` // пароль в открытом виде (только по TLS)
}

// RegisterResponse представляет ответ на успешную регистрацию
type RegisterResponse struct {
	UserID  string `json:"user_id"` // UUID пользователя
	Message string `json:"message"` // сообщение об успешной регистрации
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse представляет ответ с парой токенов
type TokenResponse struct {
	Access  string `json:"access"`  // JWT access token
	Refresh string `json:"refresh"` // JWT refresh token
}

// RefreshRequest представляет запрос на обновление access token
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// AccessResponse представляет ответ с новым access token
type AccessResponse struct {
	Access string `json:"access"`
}

// LogoutRequest представляет запрос на выход (отзыв refresh token)
type LogoutRequest struct {
	Refresh string `json:"refresh"`
}

// MessageResponse представляет ответ с текстовым сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Fields  map[string][]string `json:"fields,omitempty"`  // ошибки валидации по полям
	Error   string              `json:"error"`             // описание ошибки
	Message string              `json:"message,omitempty"` // дополнительное сообщение
}
