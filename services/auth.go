package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"avocare/api/client"
	"avocare/models"

	"go.uber.org/zap"
)

// AuthAPI - эндпоинты /api/users
type AuthAPI interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.StatusResponse, error)
	ResendVerification(ctx context.Context, email string) (*models.StatusResponse, error)
}

type AuthService struct {
	api      AuthAPI
	sessions *SessionStore
	log      *zap.SugaredLogger
}

func NewAuthService(api AuthAPI, sessions *SessionStore, log *zap.SugaredLogger) *AuthService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &AuthService{api: api, sessions: sessions, log: log}
}

// Login входит по email и паролю и сохраняет сессию
func (a *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if err := ValidateCredentials(email, password); err != nil {
		return nil, err
	}

	resp, err := a.api.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		if needsVerification(err) {
			return nil, fmt.Errorf("login %s: %w", email, ErrNeedsVerification)
		}
		a.log.Warnw("login failed", "email", email, "error", err)
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.NeedsVerification {
		return nil, fmt.Errorf("login %s: %w", email, ErrNeedsVerification)
	}
	if !resp.Success || resp.Token == "" {
		return nil, &client.APIError{Status: http.StatusOK, Message: resp.Message}
	}

	if err := a.sessions.Login(ctx, resp.Token, resp.User); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	a.log.Infow("logged in", "user_id", resp.User.ID)
	return resp.User, nil
}

// needsVerification - сервер отвечает 403 с флагом needs_verification
func needsVerification(err error) bool {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		return false
	}
	var body struct {
		NeedsVerification bool `json:"needs_verification"`
	}
	if json.Unmarshal(apiErr.Body, &body) != nil {
		return false
	}
	return body.NeedsVerification
}

// Register создает учетную запись; вход выполняется отдельно после подтверждения почты
func (a *AuthService) Register(ctx context.Context, name, email, password string) (string, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if err := ValidateRegistration(name, email, password); err != nil {
		return "", err
	}
	resp, err := a.api.Register(ctx, models.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	return resp.Message, nil
}

func (a *AuthService) ResendVerification(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	verr := &ValidationError{}
	validateEmail(verr, email)
	if err := verr.OrNil(); err != nil {
		return "", err
	}
	resp, err := a.api.ResendVerification(ctx, email)
	if err != nil {
		return "", fmt.Errorf("resend verification: %w", err)
	}
	return resp.Message, nil
}

func (a *AuthService) Logout(ctx context.Context) error {
	return a.sessions.Logout(ctx)
}
