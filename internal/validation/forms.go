// Package validation проверяет пользовательский ввод форм до отправки на backend.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput matches every *Error via errors.Is
var ErrInvalidInput = errors.New("invalid input")

// Error перечисляет все нарушения в форме
type Error struct {
	Issues []string
}

func (e *Error) Error() string {
	return ErrInvalidInput.Error() + ": " + strings.Join(e.Issues, "; ")
}

// Is makes errors.Is(err, ErrInvalidInput) true
func (e *Error) Is(target error) bool {
	return target == ErrInvalidInput
}

const (
	// MinPasswordLen минимальная длина пароля, как на backend
	MinPasswordLen = 8
	// MaxPasswordLen is bcrypt's input limit
	MaxPasswordLen = 72
)

// LoginForm — поля формы входа
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterForm — поля формы регистрации
type RegisterForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=100"`
}

// validate is safe for concurrent use and caches struct metadata
var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// В сообщениях используем имена из json тегов
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})
	return v
}

// ValidateLogin проверяет email и пароль формы входа
func ValidateLogin(email, password string) error {
	return Struct(LoginForm{Email: strings.TrimSpace(email), Password: password})
}

// ValidateRegister проверяет поля формы регистрации
func ValidateRegister(email, password, name string) error {
	return Struct(RegisterForm{
		Email:    strings.TrimSpace(email),
		Password: password,
		Name:     strings.TrimSpace(name),
	})
}

// Struct validates any struct carrying validate tags
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	return &Error{Issues: formatValidationErrors(validationErrs)}
}

func formatValidationErrors(errs validator.ValidationErrors) []string {
	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		var message string
		field := err.Field()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", field, err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, err.Param())
		default:
			message = fmt.Sprintf("%s failed validation for %s", field, err.Tag())
		}
		messages = append(messages, message)
	}
	return messages
}
