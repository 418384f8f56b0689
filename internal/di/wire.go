//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/lmring/lmring/internal/app"
	"github.com/lmring/lmring/internal/repository"
	"github.com/lmring/lmring/internal/service"
)

// InitializeApp returns a cleanup that closes Redis, the database and the
// telemetry exporters, in that order.
func InitializeApp() (*app.App, func(), error) {
	panic(wire.Build(
		ConfigSet,
		ObservabilitySet,
		AuthSet,
		RuntimeInfraSet,
		RepositorySet,
		SecuritySet,
		ServiceSet,
		HTTPSet,
		AppSet,
	))
}

func InitializeMigrationRunner() (*MigrationRunner, error) {
	panic(wire.Build(
		ConfigSet,
		provideToolLogger,
		provideOpenDB,
		repository.NewSessionRepository,
		repository.NewConversationRepository,
		repository.NewVoteRepository,
		repository.NewRankingRepository,
		service.NewVoteService,
		NewMigrationRunner,
	))
}
