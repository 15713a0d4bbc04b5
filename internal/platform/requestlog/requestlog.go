// Package requestlog keeps a capped, newest-first trail of API calls in Redis.
package requestlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
)

const (
	DefaultKey        = "hms:request_log"
	DefaultMaxEntries = 10000

	writeTimeout = 500 * time.Millisecond
)

type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Route     string    `json:"route,omitempty"`
	Status    int       `json:"status"`
	LatencyMS float64   `json:"latency_ms"`
	Caller    string    `json:"caller,omitempty"`
	Roles     []string  `json:"roles,omitempty"`
}

type Store struct {
	rdb        *redis.Client
	key        string
	maxEntries int64
}

// NewStore returns a Store keeping at most maxEntries entries under key.
// Non-positive maxEntries falls back to DefaultMaxEntries.
func NewStore(rdb *redis.Client, key string, maxEntries int) *Store {
	if key == "" {
		key = DefaultKey
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{rdb: rdb, key: key, maxEntries: int64(maxEntries)}
}

func (s *Store) Append(ctx context.Context, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, s.key, b)
	pipe.LTrim(ctx, s.key, 0, s.maxEntries-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append request log: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}
	raw, err := s.rdb.LRange(ctx, s.key, 0, int64(n)-1).Result()
	if errors.Is(err, redis.Nil) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read request log: %w", err)
	}
	out := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) Len(ctx context.Context) (int64, error) {
	return s.rdb.LLen(ctx, s.key).Result()
}

// Middleware records every request. Store failures are logged and never
// change the response.
func Middleware(store *Store, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			rid, _ := c.Get("request_id").(string)
			entry := Entry{
				Timestamp: start.UTC(),
				RequestID: rid,
				Method:    req.Method,
				Path:      req.URL.Path,
				Route:     c.Path(),
				Status:    statusOf(c, err),
				LatencyMS: float64(time.Since(start).Microseconds()) / 1000,
				Caller:    auth.UserIDFromContext(req.Context()),
				Roles:     auth.RolesFromContext(req.Context()),
			}

			ctx, cancel := context.WithTimeout(context.WithoutCancel(req.Context()), writeTimeout)
			defer cancel()
			if werr := store.Append(ctx, entry); werr != nil {
				logger.Warn().Err(werr).Str("request_id", rid).Msg("request log write failed")
			}
			return err
		}
	}
}

func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/logs", h.Recent, auth.RequireRole(auth.RoleAdmin))
}

// Recent handles GET /logs?limit=n (default 100, max 1000).
func (h *Handler) Recent(c echo.Context) error {
	n := 100
	if v := c.QueryParam("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		n = min(parsed, 1000)
	}
	entries, err := h.store.Recent(c.Request().Context(), n)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request log unavailable")
	}
	return c.JSON(http.StatusOK, entries)
}
