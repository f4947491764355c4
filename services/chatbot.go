package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"avocare/api/client"
	"avocare/models"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultChatTimeout - ответ модели может идти долго, но не бесконечно
const DefaultChatTimeout = 30 * time.Second

type ChatAPI interface {
	Chat(ctx context.Context, message string) (*models.ChatResponse, error)
	ChatSuggestions(ctx context.Context) ([]models.Suggestion, error)
}

// Chatbot - ассистент по выращиванию авокадо
type Chatbot struct {
	api     ChatAPI
	timeout time.Duration
	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

// NewChatbot: ratePerMin <= 0 отключает ограничение частоты
func NewChatbot(api ChatAPI, timeout time.Duration, ratePerMin int, log *zap.SugaredLogger) *Chatbot {
	if timeout <= 0 {
		timeout = DefaultChatTimeout
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if ratePerMin > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMin)), ratePerMin)
	}
	return &Chatbot{api: api, timeout: timeout, limiter: limiter, log: log}
}

// Send отправляет сообщение и возвращает ответ ассистента
func (b *Chatbot) Send(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		verr := &ValidationError{}
		verr.Add(FieldMessage, "Message cannot be empty")
		return "", verr
	}
	if !b.limiter.Allow() {
		return "", ErrRateLimited
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.api.Chat(ctx, message)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			b.log.Warnw("chat request timed out", "timeout", b.timeout)
			return "", fmt.Errorf("chat: %w", ErrChatTimeout)
		}
		return "", fmt.Errorf("chat: %w", err)
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "Failed to get response"
		}
		return "", &client.APIError{Status: 200, Message: msg}
	}
	return resp.Response, nil
}

func (b *Chatbot) Suggestions(ctx context.Context) ([]models.Suggestion, error) {
	s, err := b.api.ChatSuggestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("chat suggestions: %w", err)
	}
	return s, nil
}
