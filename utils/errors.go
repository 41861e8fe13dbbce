package utils

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}

var (
	ErrNoPermission = &CustomError{"You don't have permission to perform this action"}
	ErrNotFound     = &CustomError{"Resource not found"}
)

// AppError carries the HTTP status and the recovery flags a client uses to
// pick its next step (silent refresh, re-login, re-scan, PIN prompt).
type AppError struct {
	Code  int
	Err   error
	Flags gin.H
}

func (e *AppError) Error() string {
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code int, message string) *AppError {
	return &AppError{Code: code, Err: &CustomError{message}}
}

// WithFlag returns a copy of e with k=v added to its flags.
func (e *AppError) WithFlag(k string, v interface{}) *AppError {
	flags := gin.H{}
	for fk, fv := range e.Flags {
		flags[fk] = fv
	}
	flags[k] = v
	return &AppError{Code: e.Code, Err: e.Err, Flags: flags}
}

func BadRequest(message string) *AppError   { return NewAppError(http.StatusBadRequest, message) }
func NotFound(message string) *AppError     { return NewAppError(http.StatusNotFound, message) }
func Forbidden(message string) *AppError    { return NewAppError(http.StatusForbidden, message) }
func Unauthorized(message string) *AppError { return NewAppError(http.StatusUnauthorized, message) }

// Internal wraps a storage or infrastructure failure as a 500.
func Internal(err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Err: err}
}

// StatusOf reports the HTTP status carried by err, 500 when it has none.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// IsDuplicateKey detects unique index violations on both MySQL and SQLite.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
