package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dope-network/dope-go/internal/devserver"
	"github.com/dope-network/dope-go/internal/infra/config"
)

func provideDevServerConfig(cfg *config.Config) config.DevServerConfig {
	return cfg.DevServer
}

// provideAccountRepository prefers Postgres when a DSN is configured and
// falls back to the in-memory repository otherwise.
func provideAccountRepository(cfg config.DevServerConfig, logger *slog.Logger) devserver.AccountRepository {
	fallback := devserver.NewMemoryAccountRepository()
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("dev server postgres dsn not set, using memory accounts")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory accounts", "error", err)
		return fallback
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory accounts", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory accounts", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("dev server postgres accounts enabled")
	return devserver.NewPostgresAccountRepository(pool)
}

func provideContentStore() *devserver.ContentStore {
	return devserver.NewContentStore()
}

func provideTokenIssuer(cfg config.DevServerConfig) *devserver.TokenIssuer {
	return devserver.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
}

func provideServer(cfg config.DevServerConfig, accounts devserver.AccountRepository, content *devserver.ContentStore, tokens *devserver.TokenIssuer, logger *slog.Logger) *devserver.Server {
	return devserver.NewServer(cfg, accounts, content, tokens, logger)
}

func provideHTTPServer(srv *devserver.Server) *http.Server {
	return srv.NewHTTPServer()
}
