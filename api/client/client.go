package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"avocare/api/middleware"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TokenSource отдает текущий bearer-токен; пустая строка - запрос без авторизации
type TokenSource interface {
	Token() string
}

type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	// Timeout применяется ко всем запросам; ноль - без клиентского таймаута
	Timeout   time.Duration
	RateLimit float64
	Tokens    TokenSource
	Logger    *zap.SugaredLogger
}

// Client - REST клиент AvoCare API
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     *zap.SugaredLogger
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	wrapped := *httpClient
	wrapped.Transport = middleware.Chain(httpClient.Transport,
		middleware.RequestID(),
		middleware.AccessLog(log),
		middleware.Prometheus(),
		middleware.RateLimit(limiter),
	)
	if opts.Timeout > 0 {
		wrapped.Timeout = opts.Timeout
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    &wrapped,
		tokens:  opts.Tokens,
		log:     log,
	}
}

// SetTokenSource нужен, когда хранилище сессии создается после клиента
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method      string
	route       string
	path        string
	body        io.Reader
	contentType string
}

// do выполняет запрос и декодирует JSON-ответ в out (если out != nil)
func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(middleware.WithRoute(ctx, req.route), req.method, c.baseURL+req.path, req.body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &connectionError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &connectionError{err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", req.method, req.route, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, route, path string, in, out interface{}) error {
	req := request{method: method, route: route, path: path}
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		req.body = bytes.NewReader(data)
		req.contentType = "application/json"
	}
	return c.do(ctx, req, out)
}
