// Package di contains dependency injection tokens for the execution context.
package di

import (
	"github.com/mvaldes/flashcycle/business/execution/app"
	"github.com/mvaldes/flashcycle/internal/di"
)

// Public service tokens - exposed to other modules
var (
	StrategyBuilder      = di.NewToken[*app.StrategyBuilder]("execution.StrategyBuilder")
	ExecutionCoordinator = di.NewToken[*app.ExecutionCoordinator]("execution.ExecutionCoordinator")
)

// Private dependency tokens - internal to execution module
var (
	PriceOracle = di.NewToken[app.PriceOracle]("execution:priceOracle")
	Dispatcher  = di.NewToken[app.ProtocolDispatcher]("execution:dispatcher")
	Submitter   = di.NewToken[app.TxSubmitter]("execution:submitter")
)

// Helper functions for type-safe access
func GetStrategyBuilder(c di.ServiceRegistry) *app.StrategyBuilder {
	return di.GetToken(c, StrategyBuilder)
}

func GetExecutionCoordinator(c di.ServiceRegistry) *app.ExecutionCoordinator {
	return di.GetToken(c, ExecutionCoordinator)
}

func GetPriceOracle(c di.ServiceRegistry) app.PriceOracle {
	return di.GetToken(c, PriceOracle)
}

func GetDispatcher(c di.ServiceRegistry) app.ProtocolDispatcher {
	return di.GetToken(c, Dispatcher)
}

func GetSubmitter(c di.ServiceRegistry) app.TxSubmitter {
	return di.GetToken(c, Submitter)
}
