package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dope-network/dope-go/internal/infra/config"
	apperrors "github.com/dope-network/dope-go/pkg/errors"
)

func newTestClient(t *testing.T, baseURL string, cfg config.APIConfig, opts ...Option) *Client {
	t.Helper()
	cfg.BaseURL = baseURL
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}
	client, err := New(cfg, newTestLogger(), opts...)
	require.NoError(t, err)
	return client
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRetriesServerErrorsThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, config.APIConfig{Retries: 3})
	resp, err := client.Get(context.Background(), "/v1/posts", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, int32(3), attempts.Load())
}

func TestClientErrorsAreTerminal(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"post not found"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, config.APIConfig{Retries: 5})
	_, err := client.Get(context.Background(), "/v1/posts/nope", nil)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "HTTP_404"))
	require.Equal(t, 404, apperrors.StatusOf(err))
	require.Contains(t, err.Error(), "post not found")
	require.Equal(t, int32(1), attempts.Load())
}

func TestExhaustedRetriesSurfaceLastError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, config.APIConfig{Retries: 2})
	_, err := client.Get(context.Background(), "/v1/feed", nil)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "HTTP_502"))
	require.Equal(t, int32(2), attempts.Load())
}

func TestNetworkFailureIsRetriedAndCoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	client := newTestClient(t, srv.URL, config.APIConfig{Retries: 2})
	_, err := client.Get(context.Background(), "/v1/feed", nil)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNetwork))
}

func TestPerCallTimeoutIsRetryable(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, config.APIConfig{Retries: 2})
	_, err := client.Do(context.Background(), Request{
		Method:  http.MethodGet,
		Path:    "/v1/slow",
		Timeout: 10 * time.Millisecond,
	})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNetwork))
	require.Equal(t, int32(2), attempts.Load())
}

func TestBearerTokenAndRequestID(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, config.APIConfig{}, WithTokenSource(func() string { return "T" }))
	_, err := client.Get(context.Background(), "/v1/auth/me", nil)
	require.NoError(t, err)
	require.Equal(t, "Bearer T", gotAuth)
	require.NotEmpty(t, gotRequestID)

	_, err = client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/v1/open", NoAuth: true})
	require.NoError(t, err)
	require.Empty(t, gotAuth)
}

func TestUnauthorizedCallbackFiresOnAuthenticatedCallsOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"session expired"}`))
	}))
	defer srv.Close()

	var fired atomic.Int32
	client := newTestClient(t, srv.URL, config.APIConfig{Retries: 3}, WithTokenSource(func() string { return "T" }))
	client.OnUnauthorized(func() { fired.Add(1) })

	_, err := client.Get(context.Background(), "/v1/notifications", nil)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "HTTP_401"))
	require.Equal(t, int32(1), fired.Load())

	_, err = client.Do(context.Background(), Request{Method: http.MethodPost, Path: "/v1/auth/login", NoAuth: true})
	require.Error(t, err)
	require.Equal(t, int32(1), fired.Load())
}

func TestDecodeAndErrorDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"post":{"id":"p1"}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, config.APIConfig{})
	resp, err := client.Post(context.Background(), "/v1/posts", map[string]string{"content": "hi"})
	require.NoError(t, err)

	var out struct {
		Post struct {
			ID string `json:"id"`
		} `json:"post"`
	}
	require.NoError(t, resp.Decode(&out))
	require.Equal(t, "p1", out.Post.ID)
}

func TestUnsupportedMethodRejectedLocally(t *testing.T) {
	client := newTestClient(t, "http://localhost:1", config.APIConfig{})
	_, err := client.Do(context.Background(), Request{Method: "TRACE", Path: "/v1/x"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeRequest))
}
