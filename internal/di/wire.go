//go:build wireinject
// +build wireinject

package di

import (
	"BarPull/internal/usecase"
	"BarPull/pkg/config"
	"BarPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up the API process.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,

		// Infrastructure
		ProvideStore,
		ProvideSink,
		ProvideCache,

		// HTTP surface
		ProvideBarsHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeIngestor wires up the ingestion CLI.
func InitializeIngestor(cfg *config.Config) (*usecase.Ingestor, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideStore,
		ProvideFetcher,
		ProvideSink,

		// Use case
		ProvideIngestor,
	)
	return &usecase.Ingestor{}, nil
}
