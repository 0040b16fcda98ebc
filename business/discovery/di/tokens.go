// Package di contains dependency injection tokens for the discovery context.
package di

import (
	"github.com/mvaldes/flashcycle/business/discovery/app"
	"github.com/mvaldes/flashcycle/internal/di"
)

// Public service tokens - exposed to other modules
var (
	CycleGenerator  = di.NewToken[*app.CycleGenerator]("discovery.CycleGenerator")
	ProfitEvaluator = di.NewToken[*app.ProfitEvaluator]("discovery.ProfitEvaluator")
)

// Helper functions for type-safe access
func GetCycleGenerator(c di.ServiceRegistry) *app.CycleGenerator {
	return di.GetToken(c, CycleGenerator)
}

func GetProfitEvaluator(c di.ServiceRegistry) *app.ProfitEvaluator {
	return di.GetToken(c, ProfitEvaluator)
}
