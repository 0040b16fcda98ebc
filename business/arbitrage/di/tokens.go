// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/mvaldes/flashcycle/business/arbitrage/app"
	"github.com/mvaldes/flashcycle/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Detector        = di.NewToken[*app.Detector]("arbitrage.Detector")
	ScoringFeedback = di.NewToken[*app.ScoringFeedback]("arbitrage.ScoringFeedback")
)

// Helper functions for type-safe access
func GetDetector(c di.ServiceRegistry) *app.Detector {
	return di.GetToken(c, Detector)
}

func GetScoringFeedback(c di.ServiceRegistry) *app.ScoringFeedback {
	return di.GetToken(c, ScoringFeedback)
}
