// Package session owns the authentication credential and the cached user
// snapshot. The manager is constructed once by the application's composition
// root and passed by reference; there are no package-level singletons.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dope-network/dope-go/internal/infra/config"
	"github.com/dope-network/dope-go/internal/secrets"
	"github.com/dope-network/dope-go/internal/transport"
	apperrors "github.com/dope-network/dope-go/pkg/errors"
)

// Manager is the sole owner of the (token, user) pair. The two fields are
// always set and cleared together: IsAuthenticated ⇔ token set ∧ user set.
//
// Unlike the transport layer, all state transitions here are serialized with
// an explicit mutex, so concurrent Login/Logout calls are fenced.
type Manager struct {
	cfg    config.SessionConfig
	api    *transport.Client
	store  secrets.Store
	logger *slog.Logger

	mu    sync.Mutex
	state State
	token string
	user  *User

	// notifyMu serializes listener delivery and guards the listener set.
	// Listeners are invoked synchronously and must not call back into
	// mutating Manager methods.
	notifyMu     sync.Mutex
	listeners    map[int]func(*User)
	nextListener int

	restored chan struct{}
}

// NewManager wires the manager into the transport client (credential source
// and 401 observer) and starts the one-time session restoration.
func NewManager(cfg config.SessionConfig, api *transport.Client, store secrets.Store, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:       cfg,
		api:       api,
		store:     store,
		logger:    logger.With("component", "session"),
		state:     StateUninitialized,
		listeners: make(map[int]func(*User)),
		restored:  make(chan struct{}),
	}
	api.SetTokenSource(m.currentToken)
	api.OnUnauthorized(m.invalidate)
	go m.restore()
	return m
}

// WaitForInitialization blocks until the startup restoration attempt has
// completed, successfully or not.
func (m *Manager) WaitForInitialization(ctx context.Context) error {
	select {
	case <-m.restored:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// restore runs exactly once per Manager. Every failure branch deletes the
// stored record and clears memory so a stale credential cannot linger.
func (m *Manager) restore() {
	defer close(m.restored)

	m.mu.Lock()
	m.state = StateRestoring
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	value, ok, err := m.store.Get(ctx, m.cfg.TokenKey, secrets.GetOptions{Encrypt: true})
	if err != nil || !ok || value == "" {
		if err != nil {
			m.logger.Warn("stored session unreadable, discarding", "error", err)
			_ = m.store.Delete(ctx, m.cfg.TokenKey)
		}
		m.becomeUnauthenticated()
		return
	}

	m.mu.Lock()
	m.token = value
	m.mu.Unlock()

	user, err := m.fetchMe(ctx)
	if err != nil {
		m.logger.Info("stored session rejected, discarding", "error", err)
		_ = m.store.Delete(ctx, m.cfg.TokenKey)
		m.mu.Lock()
		m.token = ""
		m.mu.Unlock()
		m.becomeUnauthenticated()
		return
	}

	m.logger.Info("session restored", "uid", user.UID)
	m.mu.Lock()
	m.user = &user
	m.state = StateAuthenticated
	m.mu.Unlock()
	m.notify(&user)
}

func (m *Manager) becomeUnauthenticated() {
	m.mu.Lock()
	m.state = StateUnauthenticated
	m.mu.Unlock()
}

// Login authenticates with email and password, persisting the credential
// encrypted on success. A failed login leaves any existing session untouched.
func (m *Manager) Login(ctx context.Context, req LoginRequest) (User, error) {
	if err := m.WaitForInitialization(ctx); err != nil {
		return User{}, apperrors.Wrap(apperrors.CodeGeneric, "session not ready", err)
	}
	resp, err := m.api.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/v1/auth/login",
		Body:   req,
		NoAuth: true,
	})
	if err != nil {
		return User{}, apperrors.Categorize("login failed", err)
	}
	env, err := decodeAuthEnvelope(resp)
	if err != nil {
		return User{}, apperrors.Categorize("login failed", err)
	}
	m.persistToken(ctx, env.Token)
	m.setAuthenticated(env.Token, *env.User)
	return *env.User, nil
}

// Register creates an account. When the service answers with a token the new
// account is signed in immediately, matching the login path.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (User, error) {
	if err := m.WaitForInitialization(ctx); err != nil {
		return User{}, apperrors.Wrap(apperrors.CodeGeneric, "session not ready", err)
	}
	resp, err := m.api.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/v1/auth/register",
		Body:   req,
		NoAuth: true,
	})
	if err != nil {
		return User{}, apperrors.Categorize("registration failed", err)
	}
	env, err := decodeAuthEnvelope(resp)
	if err != nil {
		return User{}, apperrors.Categorize("registration failed", err)
	}
	m.persistToken(ctx, env.Token)
	m.setAuthenticated(env.Token, *env.User)
	return *env.User, nil
}

// AdoptSession installs a credential obtained outside the password flow,
// such as a provider sign-in exchange. The token is persisted encrypted and
// listeners are notified, exactly as after Login.
func (m *Manager) AdoptSession(ctx context.Context, token string, user User) error {
	if token == "" {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "cannot adopt empty credential", nil)
	}
	if err := m.WaitForInitialization(ctx); err != nil {
		return apperrors.Wrap(apperrors.CodeGeneric, "session not ready", err)
	}
	m.persistToken(ctx, token)
	m.setAuthenticated(token, user)
	return nil
}

// Logout invalidates the remote session best-effort and always clears local
// state. From the caller's perspective logout cannot fail.
func (m *Manager) Logout(ctx context.Context) error {
	_ = m.WaitForInitialization(ctx)

	if m.currentToken() != "" {
		one := 1
		_, err := m.api.Do(ctx, transport.Request{
			Method:  http.MethodPost,
			Path:    "/v1/auth/logout",
			Timeout: m.cfg.LogoutTimeout,
			Retries: &one,
		})
		if err != nil {
			m.logger.Debug("remote logout failed, clearing locally anyway", "error", err)
		}
	}

	cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.Delete(cleanupCtx, m.cfg.TokenKey); err != nil {
		m.logger.Warn("failed to delete stored session", "error", err)
	}

	m.mu.Lock()
	wasAuthenticated := m.state == StateAuthenticated
	m.token = ""
	m.user = nil
	m.state = StateUnauthenticated
	m.mu.Unlock()
	if wasAuthenticated {
		m.notify(nil)
	}
	return nil
}

// CurrentUser returns the cached snapshot when present, otherwise fetches it.
func (m *Manager) CurrentUser(ctx context.Context) (User, error) {
	if err := m.WaitForInitialization(ctx); err != nil {
		return User{}, apperrors.Wrap(apperrors.CodeGeneric, "session not ready", err)
	}
	m.mu.Lock()
	cached := m.user
	token := m.token
	m.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}
	if token == "" {
		return User{}, apperrors.Wrap(apperrors.CodeNotAuthenticated, "not authenticated", nil)
	}
	return m.refreshUser(ctx)
}

// RefreshUser re-fetches the profile snapshot, bypassing the cache.
func (m *Manager) RefreshUser(ctx context.Context) (User, error) {
	if err := m.WaitForInitialization(ctx); err != nil {
		return User{}, apperrors.Wrap(apperrors.CodeGeneric, "session not ready", err)
	}
	if m.currentToken() == "" {
		return User{}, apperrors.Wrap(apperrors.CodeNotAuthenticated, "not authenticated", nil)
	}
	return m.refreshUser(ctx)
}

func (m *Manager) refreshUser(ctx context.Context) (User, error) {
	user, err := m.fetchMe(ctx)
	if err != nil {
		return User{}, apperrors.Categorize("fetch current user", err)
	}
	m.mu.Lock()
	if m.token != "" {
		m.user = &user
	}
	m.mu.Unlock()
	return user, nil
}

// ValidateSession probes the remote service; a rejected credential tears the
// local session down.
func (m *Manager) ValidateSession(ctx context.Context) error {
	if err := m.WaitForInitialization(ctx); err != nil {
		return apperrors.Wrap(apperrors.CodeGeneric, "session not ready", err)
	}
	if m.currentToken() == "" {
		return apperrors.Wrap(apperrors.CodeNotAuthenticated, "not authenticated", nil)
	}
	if _, err := m.fetchMe(ctx); err != nil {
		// 401 already invalidated through the transport observer; any
		// other rejection invalidates here.
		if apperrors.StatusOf(err) != http.StatusUnauthorized {
			m.invalidate()
		}
		return apperrors.Categorize("session validation failed", err)
	}
	return nil
}

// ForgotPassword requests a password reset email.
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	_, err := m.api.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/v1/auth/forgot-password",
		Body:   map[string]string{"email": email},
		NoAuth: true,
	})
	return apperrors.Categorize("forgot password request failed", err)
}

// ResetPassword completes a password reset with the emailed token.
func (m *Manager) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	_, err := m.api.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/v1/auth/reset-password",
		Body:   map[string]string{"token": resetToken, "password": newPassword},
		NoAuth: true,
	})
	return apperrors.Categorize("password reset failed", err)
}

// CheckUsernameAvailability probes the username. Failures read as unavailable.
func (m *Manager) CheckUsernameAvailability(ctx context.Context, username string) Availability {
	return m.checkAvailability(ctx, "/v1/auth/check-username", map[string]string{"username": username})
}

// CheckEmailAvailability probes the email address. Failures read as unavailable.
func (m *Manager) CheckEmailAvailability(ctx context.Context, email string) Availability {
	return m.checkAvailability(ctx, "/v1/auth/check-email", map[string]string{"email": email})
}

func (m *Manager) checkAvailability(ctx context.Context, path string, body map[string]string) Availability {
	resp, err := m.api.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
		NoAuth: true,
	})
	if err != nil {
		return Availability{Available: false, Err: apperrors.Categorize("availability check failed", err)}
	}
	var env availabilityEnvelope
	if err := resp.Decode(&env); err != nil {
		return Availability{Available: false, Err: apperrors.Categorize("availability check failed", err)}
	}
	return Availability{Available: env.Available}
}

// IsAuthenticated reports whether a full session is held right now.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateAuthenticated
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnAuthStateChanged subscribes to session transitions. The listener is
// invoked immediately with the current user (nil when signed out) and again,
// exactly once, on every later transition. The returned function removes the
// subscription.
func (m *Manager) OnAuthStateChanged(fn func(*User)) func() {
	m.notifyMu.Lock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = fn
	fn(m.userSnapshot())
	m.notifyMu.Unlock()

	return func() {
		m.notifyMu.Lock()
		delete(m.listeners, id)
		m.notifyMu.Unlock()
	}
}

func (m *Manager) userSnapshot() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	copied := *m.user
	return &copied
}

func (m *Manager) currentToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *Manager) setAuthenticated(token string, user User) {
	m.mu.Lock()
	m.token = token
	m.user = &user
	m.state = StateAuthenticated
	m.mu.Unlock()
	m.notify(&user)
}

// invalidate tears the session down after the remote side rejected the
// credential. Listeners are told exactly once.
func (m *Manager) invalidate() {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return
	}
	m.token = ""
	m.user = nil
	m.state = StateUnauthenticated
	m.mu.Unlock()

	cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.Delete(cleanupCtx, m.cfg.TokenKey); err != nil {
		m.logger.Warn("failed to delete stored session", "error", err)
	}
	m.logger.Info("session invalidated by remote")
	m.notify(nil)
}

func (m *Manager) notify(user *User) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	for _, fn := range m.listeners {
		var copied *User
		if user != nil {
			c := *user
			copied = &c
		}
		fn(copied)
	}
}

func (m *Manager) fetchMe(ctx context.Context) (User, error) {
	resp, err := m.api.Get(ctx, "/v1/auth/me", nil)
	if err != nil {
		return User{}, err
	}
	var env meEnvelope
	if err := resp.Decode(&env); err != nil {
		return User{}, err
	}
	if env.User == nil {
		return User{}, apperrors.Wrap(apperrors.CodeInvalidResponse, "me response missing user", nil)
	}
	return *env.User, nil
}

func (m *Manager) persistToken(ctx context.Context, token string) {
	expiry := tokenExpiry(token)
	if expiry.IsZero() {
		expiry = time.Now().Add(m.cfg.TokenTTL)
	}
	err := m.store.Save(ctx, m.cfg.TokenKey, token, secrets.SaveOptions{
		Encrypt:   true,
		ExpiresAt: expiry,
	})
	if err != nil {
		// The in-memory session still works; only restore-after-restart
		// is lost.
		m.logger.Warn("failed to persist session token", "error", err)
	}
}

func decodeAuthEnvelope(resp *transport.Response) (authEnvelope, error) {
	var env authEnvelope
	if err := resp.Decode(&env); err != nil {
		return authEnvelope{}, err
	}
	if env.Token == "" || env.User == nil {
		return authEnvelope{}, apperrors.Wrap(apperrors.CodeInvalidResponse, "auth response missing token or user", nil)
	}
	return env, nil
}

// tokenExpiry extracts the exp claim from a JWT credential without verifying
// it; the server remains the authority, this only sizes the local record.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
