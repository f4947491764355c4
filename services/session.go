package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"avocare/models"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Session - снимок текущей сессии
type Session struct {
	Token     string
	UserID    string
	Username  string
	User      *models.User
	ExpiresAt time.Time // нулевое значение - срок неизвестен
}

// Expired - токен с известным сроком действия, который уже истек
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// LoggedIn: есть токен, есть userId и токен не истек
func (s Session) LoggedIn(now time.Time) bool {
	return s.Token != "" && s.UserID != "" && !s.Expired(now)
}

func (s Session) IsAdmin() bool {
	return s.User != nil && s.User.Role == models.RoleAdmin
}

// Owns - пользователь сессии автор сущности
func (s Session) Owns(authorID string) bool {
	return s.UserID != "" && s.UserID == authorID
}

// SessionStore - единственный владелец состояния входа.
// Жизненный цикл: Hydrate при старте и на каждом фокусе, Login, Logout, истечение токена.
type SessionStore struct {
	kv  KVStore
	log *zap.SugaredLogger
	now func() time.Time

	mu      sync.RWMutex
	current Session
	subs    map[int]func(Session)
	nextSub int
}

func NewSessionStore(kv KVStore, log *zap.SugaredLogger) *SessionStore {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SessionStore{
		kv:   kv,
		log:  log,
		now:  time.Now,
		subs: make(map[int]func(Session)),
	}
}

// Current возвращает текущий снимок без обращения к хранилищу
func (s *SessionStore) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token реализует client.TokenSource
func (s *SessionStore) Token() string {
	return s.Current().Token
}

func (s *SessionStore) LoggedIn() bool {
	return s.Current().LoggedIn(s.now())
}

// Subscribe регистрирует обработчик изменений сессии; возвращает функцию отписки
func (s *SessionStore) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Hydrate перечитывает сессию из хранилища. Выход, сделанный в другом процессе,
// становится виден здесь.
func (s *SessionStore) Hydrate(ctx context.Context) error {
	token, err := getOptional(ctx, s.kv, KeyToken)
	if err != nil {
		return fmt.Errorf("read %s: %w", KeyToken, err)
	}
	if token == "" {
		if token, err = getOptional(ctx, s.kv, KeyLegacyToken); err != nil {
			return fmt.Errorf("read %s: %w", KeyLegacyToken, err)
		}
	}
	userID, err := getOptional(ctx, s.kv, KeyUserID)
	if err != nil {
		return fmt.Errorf("read %s: %w", KeyUserID, err)
	}
	username, err := getOptional(ctx, s.kv, KeyUsername)
	if err != nil {
		return fmt.Errorf("read %s: %w", KeyUsername, err)
	}
	rawUser, err := getOptional(ctx, s.kv, KeyUser)
	if err != nil {
		return fmt.Errorf("read %s: %w", KeyUser, err)
	}

	next := Session{Token: token, UserID: userID, Username: username}
	if rawUser != "" {
		var user models.User
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			s.log.Warnw("stored user profile is not valid JSON", "error", err)
		} else {
			next.User = &user
			if next.UserID == "" {
				next.UserID = user.ID
			}
			if next.Username == "" {
				next.Username = user.Name
			}
		}
	}
	if token != "" {
		next.ExpiresAt = tokenExpiry(token, s.log)
	}

	s.replace(next)
	return nil
}

// Login сохраняет новую сессию
func (s *SessionStore) Login(ctx context.Context, token string, user *models.User) error {
	if token == "" {
		return errors.New("empty token")
	}
	if user == nil || user.ID == "" {
		return errors.New("login response has no user id")
	}

	rawUser, err := json.Marshal(user)
	if err != nil {
		return err
	}
	values := [][2]string{
		{KeyToken, token},
		{KeyUser, string(rawUser)},
		{KeyUserID, user.ID},
		{KeyUsername, user.Name},
	}
	for _, kv := range values {
		if err := s.kv.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("persist %s: %w", kv[0], err)
		}
	}
	// старый ключ от прошлых версий не должен пережить новый вход
	if err := s.kv.Delete(ctx, KeyLegacyToken); err != nil {
		s.log.Warnw("failed to drop legacy token key", "error", err)
	}

	s.replace(Session{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Name,
		User:      user,
		ExpiresAt: tokenExpiry(token, s.log),
	})
	return nil
}

// Logout удаляет все ключи сессии
func (s *SessionStore) Logout(ctx context.Context) error {
	err := s.kv.Delete(ctx, SessionKeys...)
	s.replace(Session{})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// expire вызывается гейтом при обнаружении истекшего токена
func (s *SessionStore) expire(ctx context.Context) {
	s.log.Infow("session token expired, clearing session")
	if err := s.Logout(ctx); err != nil {
		s.log.Warnw("failed to clear expired session", "error", err)
	}
}

func (s *SessionStore) replace(next Session) {
	s.mu.Lock()
	prev := s.current
	s.current = next
	subs := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if sameSession(prev, next) {
		return
	}
	for _, fn := range subs {
		fn(next)
	}
}

func sameSession(a, b Session) bool {
	return a.Token == b.Token && a.UserID == b.UserID && a.Username == b.Username
}

// tokenExpiry читает claim exp без проверки подписи: подпись проверяет сервер,
// клиенту нужен только срок действия. Непарсящийся токен считается бессрочным.
func tokenExpiry(token string, log *zap.SugaredLogger) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		log.Debugw("token is not a JWT, expiry unknown", "error", err)
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Gate - проверка сессии перед любым изменяющим действием.
// Без сессии запрос не отправляется, пользователю показывается приглашение войти.
type Gate struct {
	sessions *SessionStore
	notifier Notifier
}

func NewGate(sessions *SessionStore, notifier Notifier) *Gate {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Gate{sessions: sessions, notifier: notifier}
}

func (g *Gate) Require(ctx context.Context, action string) (Session, error) {
	sess := g.sessions.Current()
	now := g.sessions.now()
	if sess.LoggedIn(now) {
		return sess, nil
	}
	if sess.Token != "" && sess.Expired(now) {
		g.sessions.expire(ctx)
	}
	g.notifier.PromptLogin(action)
	return Session{}, fmt.Errorf("%s: %w", action, ErrAuthRequired)
}
