package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newIdempotentRouter(store RequestIDStore, calls *int32) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	router := gin.New()
	router.Use(RequestIDMiddleware(logger))
	router.Use(ErrorHandler(logger))
	router.Use(IdempotencyMiddleware(store, logger, 5*time.Minute))
	router.POST("/sales", func(c *gin.Context) {
		n := atomic.AddInt32(calls, 1)
		c.JSON(http.StatusCreated, gin.H{"success": true, "call": n})
	})
	router.POST("/slow", func(c *gin.Context) {
		n := atomic.AddInt32(calls, 1)
		time.Sleep(50 * time.Millisecond)
		c.JSON(http.StatusCreated, gin.H{"success": true, "call": n})
	})
	router.POST("/fail", func(c *gin.Context) {
		atomic.AddInt32(calls, 1)
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
	})
	router.POST("/panic", func(c *gin.Context) {
		atomic.AddInt32(calls, 1)
		panic("boom")
	})
	return router
}

func post(router *gin.Engine, path, requestID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if requestID != "" {
		req.Header.Set(RequestIDHeader, requestID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequestIDMiddleware_GenerateID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware(zap.NewNop()))
	router.GET("/test", func(c *gin.Context) {
		assert.Equal(t, GetRequestID(c), RequestIDFromContext(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestRequestIDMiddleware_UseProvidedID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware(zap.NewNop()))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	providedID := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, providedID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, providedID, w.Header().Get(RequestIDHeader))
}

func TestIdempotencyMiddleware_ReplaysSuccessfulResponse(t *testing.T) {
	store := NewInMemoryRequestIDStore()
	defer store.Close()
	var calls int32
	router := newIdempotentRouter(store, &calls)

	id := uuid.New().String()
	first := post(router, "/sales", id)
	second := post(router, "/sales", id)

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", second.Header().Get("Content-Type"))
	assert.Equal(t, int32(1), calls)
}

func TestIdempotencyMiddleware_DoesNotReplayFailures(t *testing.T) {
	store := NewInMemoryRequestIDStore()
	defer store.Close()
	var calls int32
	router := newIdempotentRouter(store, &calls)

	id := uuid.New().String()
	post(router, "/fail", id)
	post(router, "/fail", id)

	assert.Equal(t, int32(2), calls)
}

func TestIdempotencyMiddleware_GeneratedIDsNeverReplay(t *testing.T) {
	store := NewInMemoryRequestIDStore()
	defer store.Close()
	var calls int32
	router := newIdempotentRouter(store, &calls)

	post(router, "/sales", "")
	post(router, "/sales", "")

	assert.Equal(t, int32(2), calls)
}

func TestIdempotencyMiddleware_ScopedToRoute(t *testing.T) {
	store := NewInMemoryRequestIDStore()
	defer store.Close()
	var calls int32
	router := newIdempotentRouter(store, &calls)

	id := uuid.New().String()
	post(router, "/sales", id)
	w := post(router, "/fail", id)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int32(2), calls)
}

func TestIdempotencyMiddleware_ConcurrentRetryRunsOnce(t *testing.T) {
	store := NewInMemoryRequestIDStore()
	defer store.Close()
	var calls int32
	router := newIdempotentRouter(store, &calls)

	responses := make([]*httptest.ResponseRecorder, 2)
	var wg sync.WaitGroup
	for i := range responses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i] = post(router, "/slow", "retry-1")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	codes := []int{responses[0].Code, responses[1].Code}
	assert.Contains(t, codes, http.StatusCreated)
	for _, w := range responses {
		if w.Code != http.StatusCreated {
			assert.Equal(t, http.StatusConflict, w.Code)
			assert.Contains(t, w.Body.String(), "RequestInProgress")
		}
	}

	// Once the first attempt finished, a retry gets its response
	w := post(router, "/slow", "retry-1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIdempotencyMiddleware_ReleasesAfterPanic(t *testing.T) {
	store := NewInMemoryRequestIDStore()
	defer store.Close()
	var calls int32
	router := newIdempotentRouter(store, &calls)

	id := uuid.New().String()
	assert.Panics(t, func() { post(router, "/panic", id) })

	_, err := store.Get(context.Background(), id+":POST:/panic")
	assert.ErrorIs(t, err, ErrRequestIDNotFound)
}

func TestIdempotencyMiddleware_StoreUnavailable(t *testing.T) {
	var calls int32
	router := newIdempotentRouter(failingStore{}, &calls)

	w := post(router, "/sales", uuid.New().String())

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "ServiceUnavailable")
	assert.Equal(t, int32(0), calls)
}

type failingStore struct{}

func (failingStore) Store(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return errors.New("redis down")
}

func (failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("redis down")
}

func (failingStore) Reserve(ctx context.Context, key string, marker []byte, ttl time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func (failingStore) Release(ctx context.Context, key string) error {
	return errors.New("redis down")
}

func TestInMemoryRequestIDStore_Reserve(t *testing.T) {
	store := NewInMemoryRequestIDStore()
	defer store.Close()
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "k", []byte("pending"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, "k", []byte("pending"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Release(ctx, "k"))
	ok, err = store.Reserve(ctx, "k", []byte("pending"), -time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// An expired reservation can be claimed again
	ok, err = store.Reserve(ctx, "k", []byte("pending"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryRequestIDStore_Expiration(t *testing.T) {
	store := NewInMemoryRequestIDStore()
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "k", []byte(`{}`), 50*time.Millisecond))
	_, err := store.Get(ctx, "k")
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrRequestIDNotFound)
}
