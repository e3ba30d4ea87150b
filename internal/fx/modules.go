package fx

import (
	"championship-ledger/internal/config"
	"championship-ledger/internal/database"
	"championship-ledger/internal/ledger"
	"championship-ledger/internal/logger"
	"championship-ledger/internal/repository"
	"championship-ledger/internal/server"
	"championship-ledger/internal/service"

	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"
)

func ProvideClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

func ProvideStore(repo *repository.SnapshotRepository) service.Store {
	return repo
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(ProvideClock),
	// storage
	fx.Provide(repository.NewSnapshotRepository),
	fx.Provide(ProvideStore),
	// engine + svc
	fx.Provide(ledger.NewEngine),
	fx.Provide(service.NewNotifier),
	fx.Provide(service.NewLedgerService),
	// server
	fx.Provide(server.NewLedgerServer),
	fx.Provide(server.NewChangeFeed),
)
