// Package oauthflow implements provider sign-in for the client: PKCE state,
// authorization URL construction, code exchange, ID-token verification, and
// the final exchange of the provider identity for a platform session.
package oauthflow

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/dope-network/dope-go/internal/domain/session"
	"github.com/dope-network/dope-go/internal/infra/config"
	"github.com/dope-network/dope-go/internal/transport"
	apperrors "github.com/dope-network/dope-go/pkg/errors"
)

// FlowState carries the PKCE material for one sign-in round trip. The caller
// holds it between Begin and Complete; the verifier never leaves the client.
type FlowState struct {
	State         string
	CodeVerifier  string
	CodeChallenge string
	AuthURL       string
}

// SessionAdopter installs an exchanged credential. Implemented by the session
// manager.
type SessionAdopter interface {
	AdoptSession(ctx context.Context, token string, user session.User) error
}

// Service drives the provider sign-in flow end to end.
type Service interface {
	Begin(ctx context.Context) (FlowState, error)
	Complete(ctx context.Context, flow FlowState, code string) (session.User, error)
}

// verifyFunc checks a raw ID token and returns its subject claim. Split out
// so tests can bypass the network-backed OIDC discovery.
type verifyFunc func(ctx context.Context, rawIDToken string) (string, error)

type service struct {
	cfg      config.OAuthConfig
	api      *transport.Client
	sessions SessionAdopter
	logger   *slog.Logger
	verify   verifyFunc
}

// NewService builds the sign-in flow against the configured provider.
func NewService(cfg config.OAuthConfig, api *transport.Client, sessions SessionAdopter, logger *slog.Logger) Service {
	s := &service{
		cfg:      cfg,
		api:      api,
		sessions: sessions,
		logger:   logger.With("component", "oauthflow"),
	}
	s.verify = s.verifyIDToken
	return s
}

type exchangeEnvelope struct {
	Token string        `json:"token"`
	User  *session.User `json:"user"`
}

func (s *service) Begin(ctx context.Context) (FlowState, error) {
	cfg, err := s.oauthConfig(ctx)
	if err != nil {
		return FlowState{}, err
	}
	state, verifier, challenge, err := NewOAuthState()
	if err != nil {
		return FlowState{}, apperrors.Wrap(apperrors.CodeGeneric, "failed to generate oauth state", err)
	}
	url := cfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
	return FlowState{
		State:         state,
		CodeVerifier:  verifier,
		CodeChallenge: challenge,
		AuthURL:       url,
	}, nil
}

func (s *service) Complete(ctx context.Context, flow FlowState, code string) (session.User, error) {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(flow.CodeVerifier) == "" {
		return session.User{}, apperrors.Wrap(apperrors.CodeInvalidInput, "missing oauth code or verifier", nil)
	}
	cfg, err := s.oauthConfig(ctx)
	if err != nil {
		return session.User{}, err
	}
	token, err := cfg.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", flow.CodeVerifier))
	if err != nil {
		return session.User{}, apperrors.Wrap(apperrors.CodeInvalidCredentials, "oauth code exchange failed", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return session.User{}, apperrors.Wrap(apperrors.CodeInvalidResponse, "missing id_token in oauth response", nil)
	}
	subject, err := s.verify(ctx, rawIDToken)
	if err != nil {
		return session.User{}, err
	}
	s.logger.Info("provider identity verified", "subject", subject)

	resp, err := s.api.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/v1/oauth/exchange",
		Body:   map[string]string{"idToken": rawIDToken},
		NoAuth: true,
	})
	if err != nil {
		return session.User{}, apperrors.Categorize("oauth session exchange failed", err)
	}
	var env exchangeEnvelope
	if err := resp.Decode(&env); err != nil {
		return session.User{}, apperrors.Categorize("oauth session exchange failed", err)
	}
	if env.Token == "" || env.User == nil {
		return session.User{}, apperrors.Wrap(apperrors.CodeInvalidResponse, "exchange response missing token or user", nil)
	}
	if err := s.sessions.AdoptSession(ctx, env.Token, *env.User); err != nil {
		return session.User{}, err
	}
	return *env.User, nil
}

func (s *service) oauthConfig(ctx context.Context) (*oauth2.Config, error) {
	if strings.TrimSpace(s.cfg.ClientID) == "" || strings.TrimSpace(s.cfg.RedirectURL) == "" || strings.TrimSpace(s.cfg.IssuerURL) == "" {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "oauth provider is not configured", nil)
	}
	provider, err := oidc.NewProvider(ctx, s.cfg.IssuerURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNetworkError, "failed to discover oidc provider", err)
	}
	return &oauth2.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		RedirectURL:  s.cfg.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		Endpoint:     provider.Endpoint(),
	}, nil
}

func (s *service) verifyIDToken(ctx context.Context, rawIDToken string) (string, error) {
	provider, err := oidc.NewProvider(ctx, s.cfg.IssuerURL)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeNetworkError, "failed to discover oidc provider", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: s.cfg.ClientID})
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInvalidCredentials, "id token rejected", err)
	}
	if idToken.Subject == "" {
		return "", apperrors.Wrap(apperrors.CodeInvalidResponse, "id token missing subject", nil)
	}
	return idToken.Subject, nil
}

// NewOAuthState returns a state, code verifier, and S256 code challenge for
// one PKCE round trip.
func NewOAuthState() (state, codeVerifier, codeChallenge string, err error) {
	state, err = randomString(32)
	if err != nil {
		return "", "", "", err
	}
	codeVerifier, err = randomString(32)
	if err != nil {
		return "", "", "", err
	}
	codeChallenge = CodeChallengeFromVerifier(codeVerifier)
	return state, codeVerifier, codeChallenge, nil
}

// CodeChallengeFromVerifier computes the PKCE S256 challenge for a verifier.
func CodeChallengeFromVerifier(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

func randomString(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

var _ Service = (*service)(nil)
