package evidence

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Defaults for HTTPSource.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultAccept       = "application/vnd.github+json"
	DefaultUserAgent    = "cii-best-practices-badge-detective"
	DefaultMaxBodyBytes = 4 << 20
)

// HTTPSource fetches evidence with HTTP GET. Each fetch is bounded by its
// own timeout. Failures of any kind yield an empty body.
type HTTPSource struct {
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
	token      string
	userAgent  string
	accept     string
	limiter    *rate.Limiter
	maxBody    int64
}

// Option configures the HTTPSource during construction.
type Option func(*sourceConfig) error

type sourceConfig struct {
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
	token      string
	userAgent  string
	accept     string
	limiter    *rate.Limiter
	maxBody    int64
}

// NewHTTPSource creates an HTTP evidence source.
func NewHTTPSource(opts ...Option) (*HTTPSource, error) {
	cfg := &sourceConfig{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		accept:    DefaultAccept,
		maxBody:   DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &HTTPSource{
		httpClient: httpClient,
		logger:     logger,
		timeout:    cfg.timeout,
		token:      cfg.token,
		userAgent:  cfg.userAgent,
		accept:     cfg.accept,
		limiter:    cfg.limiter,
		maxBody:    cfg.maxBody,
	}, nil
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *sourceConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *sourceConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(cfg *sourceConfig) error {
		if d <= 0 {
			return fmt.Errorf("evidence: timeout must be positive, got %s", d)
		}
		cfg.timeout = d
		return nil
	}
}

// WithToken sends token as a bearer Authorization header.
func WithToken(token string) Option {
	return func(cfg *sourceConfig) error {
		cfg.token = token
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cfg *sourceConfig) error {
		if ua != "" {
			cfg.userAgent = ua
		}
		return nil
	}
}

// WithAccept overrides the Accept header.
func WithAccept(accept string) Option {
	return func(cfg *sourceConfig) error {
		if accept != "" {
			cfg.accept = accept
		}
		return nil
	}
}

// WithRateLimit makes every fetch wait for l first.
func WithRateLimit(l *rate.Limiter) Option {
	return func(cfg *sourceConfig) error {
		cfg.limiter = l
		return nil
	}
}

// WithMaxBodyBytes caps the accepted body size. Larger bodies are treated
// as no data.
func WithMaxBodyBytes(n int64) Option {
	return func(cfg *sourceConfig) error {
		if n <= 0 {
			return fmt.Errorf("evidence: max body must be positive, got %d", n)
		}
		cfg.maxBody = n
		return nil
	}
}

// Get fetches url and returns its body, or "" on any failure.
func (s *HTTPSource) Get(ctx context.Context, url string) string {
	body, err := s.fetch(ctx, url)
	if err != nil {
		s.logger.DebugContext(ctx, "evidence unavailable", "url", url, "error", err)
		return ""
	}
	return body
}

func (s *HTTPSource) fetch(ctx context.Context, url string) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", s.accept)
	req.Header.Set("User-Agent", s.userAgent)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	s.logger.DebugContext(ctx, "evidence response", "url", url, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, s.maxBody))
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(b)) > s.maxBody {
		return "", fmt.Errorf("body exceeds %d bytes", s.maxBody)
	}
	return string(b), nil
}
