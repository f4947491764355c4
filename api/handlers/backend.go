package handlers

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"avocare/api/middleware"
	"avocare/models"
	"avocare/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "avocare-stub"

// DefaultTokenTTL - срок действия токенов, которые выдает тестовый бэкенд
const DefaultTokenTTL = 24 * time.Hour

type fault struct {
	status  int
	message string
}

// Backend - тестовый бэкенд AvoCare в памяти. Повторяет поведение настоящего сервера
// в том, что видит клиент: цензура, проверка авторства, переключение лайков.
type Backend struct {
	secret   []byte
	tokenTTL time.Duration
	filter   *services.ProfanityFilter
	log      *zap.SugaredLogger
	now      func() time.Time

	// ChatDelay - задержка ответа чат-бота
	ChatDelay time.Duration

	mu      sync.Mutex
	users   map[string]*account
	byEmail map[string]string
	posts   []*models.Post // новые первыми

	requests atomic.Int64
	faultMu  sync.Mutex
	faults   []fault
}

type Option func(*Backend)

func WithTokenTTL(ttl time.Duration) Option {
	return func(b *Backend) { b.tokenTTL = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(b *Backend) { b.log = log }
}

func NewBackend(secret string, opts ...Option) *Backend {
	b := &Backend{
		secret:   []byte(secret),
		tokenTTL: DefaultTokenTTL,
		filter:   services.DefaultProfanityFilter,
		log:      zap.NewNop().Sugar(),
		now:      time.Now,
		users:    make(map[string]*account),
		byEmail:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Secret() []byte {
	return b.secret
}

// Requests - число запросов к /api с момента создания
func (b *Backend) Requests() int64 {
	return b.requests.Load()
}

// FailNext заставляет следующий запрос к /api завершиться с указанным статусом
func (b *Backend) FailNext(status int, message string) {
	b.faultMu.Lock()
	b.faults = append(b.faults, fault{status: status, message: message})
	b.faultMu.Unlock()
}

// CountRequests - счетчик запросов и внедрение отказов
func (b *Backend) CountRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		b.requests.Add(1)

		b.faultMu.Lock()
		var f *fault
		if len(b.faults) > 0 {
			f = &b.faults[0]
			b.faults = b.faults[1:]
		}
		b.faultMu.Unlock()

		if f != nil {
			b.log.Debugw("injected fault", "path", c.Request.URL.Path, "status", f.status)
			c.JSON(f.status, gin.H{"error": f.message})
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

func respondError(c *gin.Context, op string, status int, message string) {
	outcome := "rejected"
	switch status {
	case http.StatusNotFound:
		outcome = "not_found"
	case http.StatusForbidden:
		outcome = "forbidden"
	}
	middleware.RecordForumOperation(op, outcome, serviceName)
	c.JSON(status, gin.H{"error": message})
}
