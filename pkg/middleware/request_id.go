package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	apperrors "inventory-tracker/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader     = "X-Request-ID"
	RequestIDContextKey = "request_id"

	// clientRequestIDKey is set when the id came from the client rather than
	// being generated here. Only client ids take part in replay.
	clientRequestIDKey = "request_id_from_client"
)

type requestIDCtxKey struct{}

// RequestIDStore keeps responses of processed mutating requests.
type RequestIDStore interface {
	Store(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Get returns an error for unknown or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)
	// Reserve stores marker only if key is absent or expired, atomically,
	// and reports whether it did.
	Reserve(ctx context.Context, key string, marker []byte, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// InMemoryRequestIDStore is a RequestIDStore with a background sweep of expired entries.
type InMemoryRequestIDStore struct {
	mu      sync.Mutex
	entries map[string]requestIDEntry
	ticker  *time.Ticker
	done    chan struct{}
	once    sync.Once
}

type requestIDEntry struct {
	response  []byte
	expiresAt time.Time
}

func NewInMemoryRequestIDStore() *InMemoryRequestIDStore {
	s := &InMemoryRequestIDStore{
		entries: make(map[string]requestIDEntry),
		ticker:  time.NewTicker(time.Minute),
		done:    make(chan struct{}),
	}
	go s.sweep()
	return s
}

func (s *InMemoryRequestIDStore) Store(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = requestIDEntry{
		response:  response,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *InMemoryRequestIDStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrRequestIDNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, ErrRequestIDNotFound
	}
	return entry.response, nil
}

func (s *InMemoryRequestIDStore) Reserve(ctx context.Context, key string, marker []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok && !time.Now().After(entry.expiresAt) {
		return false, nil
	}
	s.entries[key] = requestIDEntry{
		response:  marker,
		expiresAt: time.Now().Add(ttl),
	}
	return true, nil
}

func (s *InMemoryRequestIDStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Close stops the sweeper.
func (s *InMemoryRequestIDStore) Close() {
	s.once.Do(func() {
		s.ticker.Stop()
		close(s.done)
	})
}

func (s *InMemoryRequestIDStore) sweep() {
	for {
		select {
		case <-s.done:
			return
		case now := <-s.ticker.C:
			s.mu.Lock()
			for key, entry := range s.entries {
				if now.After(entry.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

var ErrRequestIDNotFound = &RequestIDError{Message: "request ID not found"}

type RequestIDError struct {
	Message string
}

func (e *RequestIDError) Error() string {
	return e.Message
}

// RequestIDMiddleware reads X-Request-ID or generates one, and echoes it back.
func RequestIDMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		} else {
			c.Set(clientRequestIDKey, true)
			logger.Debug("Using provided request ID",
				zap.String("request_id", requestID),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
		}

		c.Set(RequestIDContextKey, requestID)
		c.Request = c.Request.WithContext(ContextWithRequestID(c.Request.Context(), requestID))
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDContextKey)
}

// ContextWithRequestID carries id to code that only sees a context.Context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey{}, id)
}

// RequestIDFromContext returns the request id stored by RequestIDMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey{}).(string)
	return id
}

func isReadOnly(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// replayKey scopes a client request id to one route so an id reused on a
// different endpoint is not answered with the wrong body.
func replayKey(c *gin.Context) (string, bool) {
	if isReadOnly(c.Request.Method) || !c.GetBool(clientRequestIDKey) {
		return "", false
	}
	return GetRequestID(c) + ":" + c.Request.Method + ":" + c.Request.URL.Path, true
}

// storedResponse is what the idempotency store holds for one key. A pending
// record marks a request that is still running.
type storedResponse struct {
	Pending     bool   `json:"pending,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

var pendingMarker, _ = json.Marshal(storedResponse{Pending: true})

// IdempotencyMiddleware answers a repeated mutating request with the stored
// response of its first successful execution, status code included.
//
// The key is reserved before the handler runs, so a retry that arrives while
// the first attempt is in flight gets 409 instead of running again. The
// reservation is dropped when the handler does not succeed.
func IdempotencyMiddleware(store RequestIDStore, logger *zap.Logger, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := replayKey(c)
		if !ok {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		if replayStored(c, store, key, logger) {
			return
		}

		reserved, err := store.Reserve(ctx, key, pendingMarker, ttl)
		if err != nil {
			logger.Error("Failed to reserve request ID",
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
			)
			_ = c.Error(apperrors.NewServiceUnavailable("Request could not be deduplicated, retry later"))
			c.Abort()
			return
		}
		if !reserved {
			// Claimed by another request between Get and Reserve
			if !replayStored(c, store, key, logger) {
				abortInProgress(c)
			}
			return
		}

		writer := &responseWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		// Outlive a cancelled client request so the reservation is always settled
		settleCtx := context.WithoutCancel(ctx)
		keep := false
		defer func() {
			if keep {
				return
			}
			if err := store.Release(settleCtx, key); err != nil {
				logger.Warn("Failed to release request ID",
					zap.String("request_id", GetRequestID(c)),
					zap.Error(err),
				)
			}
		}()

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 || len(writer.body) == 0 {
			return
		}
		// The change is applied. From here on the key stays taken even if
		// storing the response fails, so a retry cannot apply it again.
		keep = true

		record, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        writer.body,
		})
		if err == nil {
			err = store.Store(settleCtx, key, record, ttl)
		}
		if err != nil {
			logger.Warn("Failed to store response for idempotency",
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
			)
		}
	}
}

// replayStored answers from the store and reports whether it did.
func replayStored(c *gin.Context, store RequestIDStore, key string, logger *zap.Logger) bool {
	raw, err := store.Get(c.Request.Context(), key)
	if err != nil || len(raw) == 0 {
		return false
	}

	var record storedResponse
	if err := json.Unmarshal(raw, &record); err != nil {
		logger.Warn("Discarding unreadable stored response",
			zap.String("request_id", GetRequestID(c)),
			zap.Error(err),
		)
		return false
	}
	if record.Pending {
		abortInProgress(c)
		return true
	}

	logger.Info("Duplicate request detected, returning cached response",
		zap.String("request_id", GetRequestID(c)),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Int("status", record.Status),
	)
	contentType := record.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Data(record.Status, contentType, record.Body)
	c.Abort()
	return true
}

func abortInProgress(c *gin.Context) {
	_ = c.Error(apperrors.NewRequestInProgress(GetRequestID(c)))
	c.Abort()
}

// responseWriter captures the response body
type responseWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body = append(w.body, s...)
	return w.ResponseWriter.WriteString(s)
}
