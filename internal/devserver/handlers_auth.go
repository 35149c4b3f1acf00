package devserver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dope-network/dope-go/internal/domain/session"
)

func accountUser(acct Account) session.User {
	return session.User{
		UID:         acct.UID,
		Username:    acct.Username,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
		AvatarURL:   acct.AvatarURL,
		Bio:         acct.Bio,
		Verified:    acct.Verified,
		CreatedAt:   acct.CreatedAt,
	}
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		TFACode  string `json:"tfaCode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "malformed login payload", err))
		return
	}
	acct, found, err := s.accounts.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "storage_error", "failed to load account", err))
		return
	}
	if !found || bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password)) != nil {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "invalid_credentials", "invalid email or password", nil))
		return
	}
	s.respondSession(c, http.StatusOK, acct)
}

func (s *Server) handleRegister(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "malformed registration payload", err))
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" || len(req.Password) < 6 {
		abortWithError(c, NewHTTPError(http.StatusUnprocessableEntity, "invalid_input", "email, username and a password of at least 6 characters are required", nil))
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "internal_error", "failed to hash password", err))
		return
	}
	acct := Account{
		UID:          uuid.NewString(),
		Username:     req.Username,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.accounts.Create(c.Request.Context(), acct); err != nil {
		if err == ErrTaken {
			abortWithError(c, NewHTTPError(http.StatusConflict, "conflict", "username or email already registered", err))
			return
		}
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "storage_error", "failed to create account", err))
		return
	}
	s.logger.Info("account registered", "uid", acct.UID, "username", acct.Username)
	s.respondSession(c, http.StatusCreated, acct)
}

func (s *Server) respondSession(c *gin.Context, status int, acct Account) {
	token, err := s.tokens.Issue(acct.UID)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "internal_error", "failed to issue token", err))
		return
	}
	c.JSON(status, gin.H{
		"success": true,
		"token":   token,
		"user":    accountUser(acct),
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	// tokens are stateless; the client discards its copy
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleMe(c *gin.Context) {
	acct, found, err := s.accounts.GetByUID(c.Request.Context(), currentUID(c))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "storage_error", "failed to load account", err))
		return
	}
	if !found {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "account no longer exists", nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": accountUser(acct)})
}

func (s *Server) handleCheckUsername(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "username is required", err))
		return
	}
	_, found, err := s.accounts.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "storage_error", "failed to check username", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": !found})
}

func (s *Server) handleCheckEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "email is required", err))
		return
	}
	_, found, err := s.accounts.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "storage_error", "failed to check email", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": !found})
}

func (s *Server) handleForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "email is required", err))
		return
	}
	acct, found, err := s.accounts.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "storage_error", "failed to load account", err))
		return
	}
	if found {
		token := uuid.NewString()
		s.resetMu.Lock()
		s.resetTokens[token] = resetEntry{uid: acct.UID, expiresAt: time.Now().Add(15 * time.Minute)}
		s.resetMu.Unlock()
		// a real backend emails this; the stub logs it for manual testing
		s.logger.Info("password reset token issued", "uid", acct.UID, "token", token)
	}
	// do not leak whether the email exists
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Password) < 6 {
		abortWithError(c, NewHTTPError(http.StatusUnprocessableEntity, "invalid_input", "a reset token and a password of at least 6 characters are required", err))
		return
	}
	s.resetMu.Lock()
	entry, ok := s.resetTokens[req.Token]
	if ok {
		delete(s.resetTokens, req.Token)
	}
	s.resetMu.Unlock()
	if !ok || time.Now().After(entry.expiresAt) {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "reset token is invalid or expired", nil))
		return
	}
	acct, found, err := s.accounts.GetByUID(c.Request.Context(), entry.uid)
	if err != nil || !found {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "storage_error", "failed to load account", err))
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "internal_error", "failed to hash password", err))
		return
	}
	acct.PasswordHash = string(hash)
	if err := s.accounts.Update(c.Request.Context(), acct); err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "storage_error", "failed to update password", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleOAuthExchange accepts any non-empty ID token and maps it to a stable
// stub account, so provider sign-in can be exercised without a live IdP.
func (s *Server) handleOAuthExchange(c *gin.Context) {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.IDToken) == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "idToken is required", err))
		return
	}
	digest := sha256.Sum256([]byte(req.IDToken))
	suffix := hex.EncodeToString(digest[:4])
	email := fmt.Sprintf("oauth-%s@dev.local", suffix)

	acct, found, err := s.accounts.GetByEmail(c.Request.Context(), email)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "storage_error", "failed to load account", err))
		return
	}
	if !found {
		acct = Account{
			UID:       uuid.NewString(),
			Username:  "oauth_" + suffix,
			Email:     email,
			Verified:  true,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.accounts.Create(c.Request.Context(), acct); err != nil {
			abortWithError(c, NewHTTPError(http.StatusInternalServerError, "storage_error", "failed to create account", err))
			return
		}
	}
	s.respondSession(c, http.StatusOK, acct)
}
