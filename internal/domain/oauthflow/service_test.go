package oauthflow

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dope-network/dope-go/internal/domain/session"
	"github.com/dope-network/dope-go/internal/infra/config"
	"github.com/dope-network/dope-go/internal/transport"
	apperrors "github.com/dope-network/dope-go/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewOAuthStateShape(t *testing.T) {
	state, verifier, challenge, err := NewOAuthState()
	require.NoError(t, err)
	require.NotEmpty(t, state)
	require.NotEmpty(t, verifier)
	require.NotEqual(t, state, verifier)

	// challenge is the unpadded base64url S256 digest of the verifier
	hash := sha256.Sum256([]byte(verifier))
	require.Equal(t, base64.RawURLEncoding.EncodeToString(hash[:]), challenge)
	require.NotContains(t, challenge, "=")

	// consecutive flows never share material
	state2, verifier2, _, err := NewOAuthState()
	require.NoError(t, err)
	require.NotEqual(t, state, state2)
	require.NotEqual(t, verifier, verifier2)
}

func TestBeginRequiresConfiguration(t *testing.T) {
	svc := NewService(config.OAuthConfig{}, nil, nil, newTestLogger())
	_, err := svc.Begin(context.Background())
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestCompleteRejectsMissingCode(t *testing.T) {
	svc := NewService(config.OAuthConfig{ClientID: "id", RedirectURL: "http://cb", IssuerURL: "http://issuer"}, nil, nil, newTestLogger())
	_, err := svc.Complete(context.Background(), FlowState{CodeVerifier: "v"}, "  ")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

type fakeAdopter struct {
	token string
	user  session.User
}

func (f *fakeAdopter) AdoptSession(_ context.Context, token string, user session.User) error {
	f.token = token
	f.user = user
	return nil
}

// newProviderAndAPI serves OIDC discovery, the token endpoint and the
// platform exchange endpoint from one mux.
func newProviderAndAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/authorize",
			"token_endpoint":         srv.URL + "/token",
			"jwks_uri":               srv.URL + "/keys",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "good-code", r.Form.Get("code"))
		require.NotEmpty(t, r.Form.Get("code_verifier"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "provider-access",
			"token_type":   "bearer",
			"id_token":     "raw-id-token",
		})
	})
	mux.HandleFunc("POST /v1/oauth/exchange", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "raw-id-token", body["idToken"])
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "dope-token",
			"user":  map[string]any{"uid": "u1", "username": "bob"},
		})
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCompleteExchangesIdentityForSession(t *testing.T) {
	srv := newProviderAndAPI(t)

	api, err := transport.New(config.APIConfig{
		BaseURL:    srv.URL,
		Retries:    1,
		RetryDelay: time.Millisecond,
	}, newTestLogger())
	require.NoError(t, err)

	adopter := &fakeAdopter{}
	svc := NewService(config.OAuthConfig{
		ClientID:    "client",
		RedirectURL: "http://localhost/callback",
		IssuerURL:   srv.URL,
	}, api, adopter, newTestLogger()).(*service)
	// skip signature verification; the stub provider issues an opaque token
	svc.verify = func(context.Context, string) (string, error) { return "subject-1", nil }

	flow, err := svc.Begin(context.Background())
	require.NoError(t, err)
	require.Contains(t, flow.AuthURL, "code_challenge="+flow.CodeChallenge)
	require.Contains(t, flow.AuthURL, "code_challenge_method=S256")

	user, err := svc.Complete(context.Background(), flow, "good-code")
	require.NoError(t, err)
	require.Equal(t, "u1", user.UID)
	require.Equal(t, "dope-token", adopter.token)
	require.Equal(t, "bob", adopter.user.Username)
}
