package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrConnection - запрос не дошел до сервера (сеть, DNS, таймаут транспорта)
var ErrConnection = errors.New("connection error")

type connectionError struct {
	err error
}

func (e *connectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.err)
}

// Unwrap позволяет проверять как ErrConnection, так и исходную причину (context.DeadlineExceeded и т.п.)
func (e *connectionError) Unwrap() []error {
	return []error{ErrConnection, e.err}
}

// APIError - сервер ответил статусом не из 2xx
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// parseAPIError достает сообщение из {"error": ...} или {"message": ...}
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Body: body}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != "":
			apiErr.Message = payload.Error
		case payload.Message != "":
			apiErr.Message = payload.Message
		}
	}
	apiErr.Message = strings.TrimSpace(apiErr.Message)
	return apiErr
}
