// Package apperror описывает прикладные ошибки и их представление на HTTP-границе.
package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mmeshcher/shopnest/internal/validation"
)

// Kind задаёт категорию ошибки.
type Kind string

const (
	KindNotFound         Kind = "NotFound"
	KindValidationFailed Kind = "ValidationFailed"
	KindConflict         Kind = "Conflict"
	KindUnauthorized     Kind = "Unauthorized"
	KindForbidden        Kind = "Forbidden"
	KindInternal         Kind = "Internal"
)

// Error описывает структурированную ошибку с категорией, сообщением для клиента и HTTP-статусом.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Fields  []validation.FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound создаёт ошибку 404.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message, Status: http.StatusNotFound}
}

// Validation создаёт ошибку 400 с сообщением.
func Validation(message string) *Error {
	return &Error{Kind: KindValidationFailed, Message: message, Status: http.StatusBadRequest}
}

// FromValidation превращает ошибку валидации в ошибку 400 с перечнем полей.
func FromValidation(err *validation.Error) *Error {
	return &Error{
		Kind:    KindValidationFailed,
		Message: err.Error(),
		Status:  http.StatusBadRequest,
		Fields:  err.Fields,
		Err:     err,
	}
}

// Conflict создаёт ошибку конфликта состояния. Статус 400 совпадает с контрактом HTTP API.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message, Status: http.StatusBadRequest}
}

// StaleWrite создаёт ошибку 409 для исчерпанных попыток оптимистичной записи.
func StaleWrite(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Status: http.StatusConflict, Err: err}
}

// Unauthorized создаёт ошибку 401.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message, Status: http.StatusUnauthorized}
}

// Forbidden создаёт ошибку 403.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message, Status: http.StatusForbidden}
}

// Internal создаёт ошибку 500. Сообщение уходит клиенту, err остаётся только в логах.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Status: http.StatusInternalServerError, Err: err}
}

// Is сообщает, является ли err прикладной ошибкой указанной категории.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Status возвращает HTTP-статус для ошибки.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

type failureResponse struct {
	Success bool                    `json:"success"`
	Kind    Kind                    `json:"kind"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

// Write отправляет клиенту ошибку в формате {"success": false, "kind", "message"}.
// Ошибки, не являющиеся *Error, отдаются как 500 без подробностей.
func Write(w http.ResponseWriter, err error) {
	resp := failureResponse{
		Kind:    KindInternal,
		Message: http.StatusText(http.StatusInternalServerError),
	}
	status := http.StatusInternalServerError

	var e *Error
	if errors.As(err, &e) {
		resp.Kind = e.Kind
		resp.Message = e.Message
		resp.Fields = e.Fields
		status = e.Status
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
