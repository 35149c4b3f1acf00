package devserver

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dope-network/dope-go/internal/infra/config"
)

// Server bundles the stub's state and handlers.
type Server struct {
	cfg      config.DevServerConfig
	accounts AccountRepository
	content  *ContentStore
	tokens   *TokenIssuer
	logger   *slog.Logger

	resetMu     sync.Mutex
	resetTokens map[string]resetEntry
}

type resetEntry struct {
	uid       string
	expiresAt time.Time
}

// NewServer wires the stub together.
func NewServer(cfg config.DevServerConfig, accounts AccountRepository, content *ContentStore, tokens *TokenIssuer, logger *slog.Logger) *Server {
	return &Server{
		cfg:         cfg,
		accounts:    accounts,
		content:     content,
		tokens:      tokens,
		logger:      logger.With("component", "devserver"),
		resetTokens: make(map[string]resetEntry),
	}
}

// NewRouter builds the gin engine with all /v1 routes.
func (s *Server) NewRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(s.logger),
		errorHandlingMiddleware(s.logger),
	)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", s.handleLogin)
			auth.POST("/register", s.handleRegister)
			auth.POST("/logout", s.handleLogout)
			auth.POST("/check-username", s.handleCheckUsername)
			auth.POST("/check-email", s.handleCheckEmail)
			auth.POST("/forgot-password", s.handleForgotPassword)
			auth.POST("/reset-password", s.handleResetPassword)
			auth.GET("/me", s.authMiddleware(), s.handleMe)
		}
		v1.POST("/oauth/exchange", s.handleOAuthExchange)

		authed := v1.Group("", s.authMiddleware())
		{
			authed.GET("/posts/feed", s.handleFeed)
			authed.POST("/posts", s.handleCreatePost)
			authed.GET("/posts/:id", s.handleGetPost)
			authed.PUT("/posts/:id", s.handleUpdatePost)
			authed.DELETE("/posts/:id", s.handleDeletePost)
			authed.POST("/posts/:id/like", s.handleLikePost)
			authed.DELETE("/posts/:id/like", s.handleUnlikePost)
			authed.GET("/posts/:id/comments", s.handleListComments)
			authed.POST("/posts/:id/comments", s.handleCreateComment)
			authed.DELETE("/comments/:id", s.handleDeleteComment)
			authed.POST("/comments/:id/like", s.handleLikeComment)

			authed.GET("/notifications", s.handleNotifications)
			authed.POST("/notifications/read-all", s.handleMarkAllRead)
			authed.POST("/notifications/:id/read", s.handleMarkRead)
			authed.GET("/notifications/unread-count", s.handleUnreadCount)

			authed.GET("/search", s.handleSearch)

			authed.GET("/users/lookup", s.handleLookupUser)
			authed.GET("/users/:uid", s.handleGetUser)
			authed.PATCH("/users/me", s.handleUpdateProfile)
			authed.POST("/users/:uid/follow", s.handleFollow)
			authed.DELETE("/users/:uid/follow", s.handleUnfollow)
			authed.GET("/users/:uid/followers", s.handleFollowers)
			authed.GET("/users/:uid/following", s.handleFollowing)

			authed.GET("/business/:uid", s.handleGetBusiness)
			authed.PUT("/business", s.handleUpsertBusiness)
		}
	}
	return router
}

// NewHTTPServer wraps the router in an http.Server with the configured
// timeouts.
func (s *Server) NewHTTPServer() *http.Server {
	return &http.Server{
		Addr:           s.cfg.Address,
		Handler:        s.NewRouter(),
		ReadTimeout:    s.cfg.ReadTimeout,
		WriteTimeout:   s.cfg.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
