package devserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dope-network/dope-go/internal/infra/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(
		config.DevServerConfig{TokenSecret: "test-secret", TokenTTL: time.Hour},
		NewMemoryAccountRepository(),
		NewContentStore(),
		NewTokenIssuer("test-secret", time.Hour),
		logger,
	)
	ts := httptest.NewServer(srv.NewRouter())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	decoded := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp, decoded
}

func registerUser(t *testing.T, ts *httptest.Server, email, username string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/auth/register", "", map[string]string{
		"email":    email,
		"username": username,
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterLoginAndMe(t *testing.T) {
	ts := newTestServer(t)

	token := registerUser(t, ts, "a@b.com", "bob")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/auth/login", "", map[string]string{
		"email":    "a@b.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["success"])
	user := body["user"].(map[string]any)
	require.Equal(t, "bob", user["username"])

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "bob", body["user"].(map[string]any)["username"])
}

func TestLoginRejectsBadPassword(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "a@b.com", "bob")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/auth/login", "", map[string]string{
		"email":    "a@b.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "invalid email or password", body["message"])
}

func TestAuthenticatedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/v1/posts/feed", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "unauthorized", body["code"])

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/v1/posts/feed", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterConflictAndAvailability(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "a@b.com", "bob")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/auth/register", "", map[string]string{
		"email":    "a@b.com",
		"username": "other",
		"password": "secret1",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "conflict", body["code"])

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/v1/auth/check-username", "", map[string]string{"username": "bob"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, false, body["available"])

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/v1/auth/check-username", "", map[string]string{"username": "free"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["available"])
}

func TestPostCommentNotificationFlow(t *testing.T) {
	ts := newTestServer(t)
	bob := registerUser(t, ts, "bob@b.com", "bob")
	ada := registerUser(t, ts, "ada@b.com", "ada")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/posts", bob, map[string]any{
		"content": "hello #gophers",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	post := body["post"].(map[string]any)
	postID := post["id"].(string)
	require.NotEmpty(t, postID)

	// ada likes and replies
	resp, body = doJSON(t, http.MethodPost, ts.URL+"/v1/posts/"+postID+"/like", ada, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(1), body["likes"])

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/v1/posts/"+postID+"/comments", ada, map[string]string{
		"content": "nice one",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	comment := body["comment"].(map[string]any)
	require.Equal(t, "nice one", comment["content"])

	// bob sees both notifications, then clears them
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/notifications/unread-count", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(2), body["unread"])

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/v1/notifications/read-all", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/notifications/unread-count", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(0), body["unread"])

	// the comment appears on the post
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/posts/"+postID+"/comments", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	comments := body["comments"].([]any)
	require.Len(t, comments, 1)
}

func TestFeedPaginatesNewestFirst(t *testing.T) {
	ts := newTestServer(t)
	bob := registerUser(t, ts, "bob@b.com", "bob")

	for _, content := range []string{"first", "second", "third"} {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/posts", bob, map[string]string{"content": content})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		time.Sleep(2 * time.Millisecond)
	}

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/v1/posts/feed?limit=2", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	posts := body["posts"].([]any)
	require.Len(t, posts, 2)
	require.Equal(t, "third", posts[0].(map[string]any)["content"])
	next, _ := body["nextCursor"].(string)
	require.NotEmpty(t, next)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/posts/feed?limit=2&cursor="+next, bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	posts = body["posts"].([]any)
	require.Len(t, posts, 1)
	require.Equal(t, "first", posts[0].(map[string]any)["content"])
}

func TestFollowAndSearch(t *testing.T) {
	ts := newTestServer(t)
	bob := registerUser(t, ts, "bob@b.com", "bob")
	ada := registerUser(t, ts, "ada@b.com", "ada")

	resp, lookup := doJSON(t, http.MethodGet, ts.URL+"/v1/users/lookup?username=ada", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	adaUID := lookup["user"].(map[string]any)["uid"].(string)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/users/"+adaUID+"/follow", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["following"])
	require.Equal(t, float64(1), body["followers"])

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/users/"+adaUID+"/followers", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	users := body["users"].([]any)
	require.Len(t, users, 1)
	require.Equal(t, "bob", users[0].(map[string]any)["username"])

	_, _ = doJSON(t, http.MethodPost, ts.URL+"/v1/posts", ada, map[string]string{"content": "go #gophers unite"})

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/search?q=gophers&types=posts,tags", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := body["results"].(map[string]any)
	require.Len(t, results["posts"].([]any), 1)
	tags := results["tags"].([]any)
	require.Len(t, tags, 1)
	require.Equal(t, "gophers", tags[0].(map[string]any)["tag"])
}

func TestPasswordResetFlow(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "a@b.com", "bob")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/auth/forgot-password", "", map[string]string{"email": "a@b.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// invalid token is rejected
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/auth/reset-password", "", map[string]string{
		"token":    "bogus",
		"password": "newsecret",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid_request", body["code"])
}

func TestBusinessProfileRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	bob := registerUser(t, ts, "bob@b.com", "bob")

	resp, body := doJSON(t, http.MethodPut, ts.URL+"/v1/business", bob, map[string]string{
		"name":     "Dope Coffee",
		"category": "cafe",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	business := body["business"].(map[string]any)
	uid := business["uid"].(string)
	require.NotEmpty(t, uid)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/business/"+uid, bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Dope Coffee", body["business"].(map[string]any)["name"])
}

func TestOAuthExchangeCreatesStableAccount(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/oauth/exchange", "", map[string]string{"idToken": "provider-token"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := body["user"].(map[string]any)["uid"].(string)
	require.NotEmpty(t, first)
	require.NotEmpty(t, body["token"])

	// the same provider token maps to the same account
	resp, body = doJSON(t, http.MethodPost, ts.URL+"/v1/oauth/exchange", "", map[string]string{"idToken": "provider-token"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, first, body["user"].(map[string]any)["uid"])
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	token, err := issuer.Issue("u1")
	require.NoError(t, err)

	uid, err := issuer.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "u1", uid)

	// expired tokens are rejected
	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = issuer.Validate(token)
	require.Error(t, err)
}
