//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/dope-network/dope-go/internal/bootstrap"
	"github.com/dope-network/dope-go/internal/infra/config"
	"github.com/dope-network/dope-go/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideDevServerConfig,
		provideAccountRepository,
		provideContentStore,
		provideTokenIssuer,
		provideServer,
		provideHTTPServer,
		bootstrap.NewApp,
	)
	return nil, nil
}
