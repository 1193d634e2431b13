package api

import (
	"encoding/json"
	"strings"
)

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email"`    // email пользователя
	Password string `json:"password"` // пароль в открытом виде (только по TLS)
}

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// TokenResponse представляет ответ с токенами доступа
type TokenResponse struct {
	AccessToken  string `json:"access_token"`         // JWT access token
	RefreshToken string `json:"refresh_token"`        // JWT refresh token
	TokenType    string `json:"token_type,omitempty"` // обычно "bearer"
}

// User представляет профиль пользователя, который возвращает GET /auth/me
type User struct {
	CreatedAt      Timestamp  `json:"created_at"`
	LastLogin      *Timestamp `json:"last_login,omitempty"`
	UpdatedAt      *Timestamp `json:"updated_at,omitempty"`
	OrganizationID *string    `json:"organization_id,omitempty"`
	AvatarURL      *string    `json:"avatar_url,omitempty"`
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Role           string     `json:"role"`
	IsActive       bool       `json:"is_active"`
}

// ErrorResponse представляет тело ответа с ошибкой.
// Backend кладет человекочитаемое описание в поле detail.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ValidationIssue — элемент detail при ошибке валидации (422)
type ValidationIssue struct {
	Msg  string `json:"msg"`
	Type string `json:"type"`
	Loc  []any  `json:"loc"`
}

// UnmarshalJSON accepts detail both as a string and as a list of
// validation issues; the latter is flattened into "msg; msg".
func (e *ErrorResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Detail) == 0 || string(raw.Detail) == "null" {
		e.Detail = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(raw.Detail, &s); err == nil {
		e.Detail = s
		return nil
	}

	var issues []ValidationIssue
	if err := json.Unmarshal(raw.Detail, &issues); err != nil {
		return err
	}
	msgs := make([]string, 0, len(issues))
	for _, is := range issues {
		if is.Msg != "" {
			msgs = append(msgs, is.Msg)
		}
	}
	e.Detail = strings.Join(msgs, "; ")
	return nil
}

// MessageResponse is a plain acknowledgement body, e.g. from POST /auth/logout.
type MessageResponse struct {
	Message string `json:"message"`
}
