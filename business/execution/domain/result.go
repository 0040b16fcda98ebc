package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Result is the outcome of one execution attempt.
type Result struct {
	ID       uuid.UUID
	Strategy *Strategy
	State    State
	TxHash   common.Hash

	// RealizedProfit is decoded from the execution event on success,
	// nil when unknown.
	RealizedProfit *big.Int

	GasUsed  uint64
	Err      error
	Duration time.Duration
}

// Succeeded reports whether the execution confirmed profitably.
func (r *Result) Succeeded() bool {
	return r.State == StateConfirmed
}

// Ambiguous reports whether the outcome is unknown. Ambiguous
// results must not feed scoring penalties.
func (r *Result) Ambiguous() bool {
	return r.State == StateTimedOut
}
