package dope_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dope-network/dope-go"
	"github.com/dope-network/dope-go/internal/devserver"
	"github.com/dope-network/dope-go/internal/domain/feed"
	"github.com/dope-network/dope-go/internal/domain/session"
	"github.com/dope-network/dope-go/internal/domain/social"
	"github.com/dope-network/dope-go/internal/infra/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startBackend(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.DevServerConfig{
		Address:      ":0",
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		TokenSecret:  "e2e-secret",
		TokenTTL:     time.Hour,
	}
	srv := devserver.NewServer(cfg,
		devserver.NewMemoryAccountRepository(),
		devserver.NewContentStore(),
		devserver.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL),
		testLogger(),
	)
	ts := httptest.NewServer(srv.NewRouter())
	t.Cleanup(ts.Close)
	return ts
}

func clientConfig(baseURL, secretsPath string) *config.Config {
	return &config.Config{
		API: config.APIConfig{
			BaseURL:    baseURL,
			Timeout:    5 * time.Second,
			Retries:    1,
			RetryDelay: time.Millisecond,
		},
		Session: config.SessionConfig{
			TokenKey:      "dope.session.token",
			TokenTTL:      time.Hour,
			LogoutTimeout: time.Second,
		},
		Secrets: config.SecretsConfig{
			Backend:       "file",
			Path:          secretsPath,
			EncryptionKey: "0123456789abcdef0123456789abcdef",
		},
	}
}

func TestClientEndToEnd(t *testing.T) {
	ctx := context.Background()
	backend := startBackend(t)
	secretsPath := filepath.Join(t.TempDir(), "secrets.json")

	client, err := dope.New(clientConfig(backend.URL, secretsPath), testLogger())
	require.NoError(t, err)
	require.NoError(t, client.Sessions.WaitForInitialization(ctx))

	user, err := client.Sessions.Register(ctx, session.RegisterRequest{
		Email:    "ada@example.com",
		Username: "ada",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.True(t, client.Sessions.IsAuthenticated())

	post, err := client.Posts.Create(ctx, feed.CreatePostRequest{Content: "hello #golang"})
	require.NoError(t, err)
	require.Equal(t, user.UID, post.Author.UID)

	top, err := client.Comments.Create(ctx, post.ID, feed.CreateCommentRequest{Content: "first"})
	require.NoError(t, err)
	_, err = client.Comments.Create(ctx, post.ID, feed.CreateCommentRequest{Content: "reply", ParentID: top.ID})
	require.NoError(t, err)

	thread, err := client.Comments.Thread(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	require.Len(t, thread[0].Replies, 1)
	require.Equal(t, 1, thread[0].Replies[0].Depth)

	results, err := client.Search.Search(ctx, social.SearchParams{Query: "#golang", Types: []string{"tags"}})
	require.NoError(t, err)
	require.NotEmpty(t, results.Tags)
}

func TestClientRestoresSessionFromDisk(t *testing.T) {
	ctx := context.Background()
	backend := startBackend(t)
	secretsPath := filepath.Join(t.TempDir(), "secrets.json")
	cfg := clientConfig(backend.URL, secretsPath)

	first, err := dope.New(cfg, testLogger())
	require.NoError(t, err)
	require.NoError(t, first.Sessions.WaitForInitialization(ctx))
	_, err = first.Sessions.Register(ctx, session.RegisterRequest{
		Email:    "grace@example.com",
		Username: "grace",
		Password: "hopper1906",
	})
	require.NoError(t, err)

	second, err := dope.New(cfg, testLogger())
	require.NoError(t, err)
	require.NoError(t, second.Sessions.WaitForInitialization(ctx))
	require.True(t, second.Sessions.IsAuthenticated())

	user, err := second.Sessions.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "grace", user.Username)
}
