package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const drainTimeout = 10 * time.Second

// App ties an http.Server to a context so cancellation drains in-flight
// requests before the process exits.
type App struct {
	logger *slog.Logger
	server *http.Server
}

func NewApp(logger *slog.Logger, server *http.Server) *App {
	return &App{logger: logger.With("component", "bootstrap"), server: server}
}

// Run serves until ctx is cancelled, then shuts down gracefully. A clean
// shutdown returns nil.
func (a *App) Run(ctx context.Context) error {
	served := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			a.logger.Info("draining connections before exit")
			drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			defer cancel()
			if err := a.server.Shutdown(drainCtx); err != nil {
				a.logger.Error("drain deadline exceeded, closing", "error", err)
				_ = a.server.Close()
			}
		case <-served:
		}
	}()

	a.logger.Info("listening", "address", a.server.Addr)
	err := a.server.ListenAndServe()
	close(served)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
