package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"avocare/api/client"
)

var (
	// ErrAuthRequired - действие требует входа; запрос не отправлялся
	ErrAuthRequired = errors.New("authentication required")
	// ErrInFlight - по этой сущности уже выполняется запрос
	ErrInFlight = errors.New("operation already in progress")
	// ErrMissingCommentID - сервер прислал комментарий без id, адресовать его нельзя
	ErrMissingCommentID = errors.New("comment has no stable id")
	ErrNeedsVerification = errors.New("email address is not verified")
	ErrChatTimeout       = errors.New("request timed out")
	ErrRateLimited       = errors.New("too many requests")
	// ErrForbidden - клиентская проверка владельца не пройдена
	ErrForbidden = errors.New("action not allowed for current user")
	ErrNotFound  = errors.New("not found")

	// ErrConnection - см. client.ErrConnection
	ErrConnection = client.ErrConnection
)

// ValidationError - ошибки полей формы, показываются рядом с полями
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Field(field string) []string {
	return e.Fields[field]
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil возвращает nil, если ошибок нет (чтобы не получить non-nil error с nil-указателем)
func (e *ValidationError) OrNil() error {
	if e == nil || !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

const (
	msgConnection   = "Connection error: please check your network and try again."
	msgGeneric      = "Something went wrong. Please try again."
	msgAuthRequired = "Please log in to continue."
	msgSessionEnded = "Your session has expired. Please log in again."
)

// UserMessage переводит ошибку в текст для пользователя
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	var apiErr *client.APIError
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.Is(err, ErrAuthRequired):
		return msgAuthRequired
	case errors.Is(err, ErrChatTimeout):
		return "Request timed out. Please try again."
	case errors.Is(err, ErrRateLimited):
		return "You are sending messages too quickly. Please wait a moment."
	case errors.Is(err, ErrNeedsVerification):
		return "Please verify your email before logging in. Check your inbox for the verification link."
	case errors.Is(err, ErrInFlight):
		return "Please wait for the previous action to finish."
	case errors.Is(err, ErrForbidden):
		return "You can only change your own posts and comments."
	case errors.Is(err, ErrMissingCommentID):
		return "This comment can't be changed right now. Please refresh and try again."
	case errors.Is(err, ErrConnection):
		return msgConnection
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if apiErr.Status == http.StatusUnauthorized {
			return msgSessionEnded
		}
		return msgGeneric
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	}
	return msgGeneric
}
