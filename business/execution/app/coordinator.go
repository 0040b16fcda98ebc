package app

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	blockchain "github.com/mvaldes/flashcycle/business/blockchain/app"
	chaindomain "github.com/mvaldes/flashcycle/business/blockchain/domain"
	"github.com/mvaldes/flashcycle/business/execution/domain"
	"github.com/mvaldes/flashcycle/internal/apperror"
	"github.com/mvaldes/flashcycle/internal/logger"
)

const meterName = "github.com/mvaldes/flashcycle/business/execution/app"

// CoordinatorConfig holds configuration for the execution coordinator.
type CoordinatorConfig struct {
	GasBase             uint64        // base gas limit before per-hop increments
	GasPerHop           uint64        // gas limit increment per swap
	GasLowGwei          float64       // congestion reference floor
	GasHighGwei         float64       // congestion reference ceiling
	MaxGasPriceGwei     float64       // hard cap on the scaled gas price
	CongestionSurcharge float64       // max proportional price bump at full congestion
	ConfirmationTimeout time.Duration // bounded receipt wait
}

// DefaultCoordinatorConfig returns sensible defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		GasBase:             400_000,
		GasPerHop:           150_000,
		GasLowGwei:          10,
		GasHighGwei:         100,
		MaxGasPriceGwei:     200,
		CongestionSurcharge: 0.5,
		ConfirmationTimeout: 60 * time.Second,
	}
}

type coordinatorMetrics struct {
	executions metric.Int64Counter
	timeouts   metric.Int64Counter
}

// ExecutionCoordinator drives one strategy at a time through
// validation, submission and confirmation. A single-flight guard
// rejects concurrent executions; detection passes check InFlight and
// skip while an execution is pending.
type ExecutionCoordinator struct {
	config     CoordinatorConfig
	feeOracle  blockchain.FeeOracle
	dispatcher ProtocolDispatcher
	submitter  TxSubmitter
	logger     logger.LoggerInterface

	guard    sync.Mutex
	inFlight atomic.Bool

	tracer  trace.Tracer
	metrics *coordinatorMetrics
}

// NewExecutionCoordinator creates a coordinator over the given ports.
func NewExecutionCoordinator(cfg CoordinatorConfig, feeOracle blockchain.FeeOracle, dispatcher ProtocolDispatcher, submitter TxSubmitter, log logger.LoggerInterface) (*ExecutionCoordinator, error) {
	c := &ExecutionCoordinator{
		config:     cfg,
		feeOracle:  feeOracle,
		dispatcher: dispatcher,
		submitter:  submitter,
		logger:     log,
		tracer:     otel.Tracer(meterName),
	}
	if err := c.initMetrics(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ExecutionCoordinator) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &coordinatorMetrics{}

	c.metrics.executions, err = meter.Int64Counter(
		"execution_attempts_total",
		metric.WithDescription("Strategy executions by terminal state"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return err
	}

	c.metrics.timeouts, err = meter.Int64Counter(
		"execution_confirmation_timeouts_total",
		metric.WithDescription("Confirmation waits that expired"),
		metric.WithUnit("{timeout}"),
	)
	return err
}

// InFlight reports whether an execution is currently pending.
func (c *ExecutionCoordinator) InFlight() bool {
	return c.inFlight.Load()
}

// Execute runs a strategy to a terminal state. Only one execution
// may run at a time; a second call while one is pending returns
// CodeExecutionInFlight immediately.
func (c *ExecutionCoordinator) Execute(ctx context.Context, strategy *domain.Strategy) (*domain.Result, error) {
	if !c.guard.TryLock() {
		return nil, apperror.New(apperror.CodeExecutionInFlight,
			apperror.WithContext("another strategy is pending confirmation"))
	}
	defer c.guard.Unlock()

	c.inFlight.Store(true)
	defer c.inFlight.Store(false)

	ctx, span := c.tracer.Start(ctx, "execution.execute")
	defer span.End()
	span.SetAttributes(attribute.String("strategy_id", strategy.ID.String()))

	start := time.Now()
	result := c.run(ctx, strategy)
	result.Duration = time.Since(start)

	c.metrics.executions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("state", string(result.State))))

	c.logger.Info(ctx, "execution finished",
		"strategy", strategy.ID,
		"state", result.State,
		"tx", result.TxHash.Hex(),
		"duration", result.Duration)

	return result, nil
}

func (c *ExecutionCoordinator) run(ctx context.Context, strategy *domain.Strategy) *domain.Result {
	result := &domain.Result{
		ID:       uuid.New(),
		Strategy: strategy,
		State:    domain.StateValidating,
	}

	if err := c.validate(strategy); err != nil {
		result.State = domain.StateFailed
		result.Err = err
		return result
	}

	gasPrice, err := c.gasPrice(ctx)
	if err != nil {
		result.State = domain.StateFailed
		result.Err = err
		return result
	}
	gasLimit := c.config.GasBase + c.config.GasPerHop*uint64(strategy.TotalHops())

	to, data, err := c.dispatcher.Encode(strategy)
	if err != nil {
		result.State = domain.StateFailed
		result.Err = apperror.New(apperror.CodeValidationError,
			apperror.WithCause(err),
			apperror.WithContext("strategy encoding failed"))
		return result
	}

	result.State = domain.StateSubmitting
	txHash, err := c.submitter.Submit(ctx, to, data, gasLimit, gasPrice)
	if err != nil {
		result.State = domain.StateFailed
		result.Err = apperror.New(apperror.CodeSubmissionError,
			apperror.WithCause(err),
			apperror.WithContext("transaction broadcast failed"))
		return result
	}
	result.TxHash = txHash
	result.State = domain.StatePendingConfirmation

	receipt, err := c.awaitReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// The tx may still mine later. Ambiguous, not failed.
			c.metrics.timeouts.Add(ctx, 1)
			result.State = domain.StateTimedOut
			result.Err = apperror.New(apperror.CodeConfirmationTimeout,
				apperror.WithContext("confirmation wait expired, transaction still broadcast"))
			return result
		}
		result.State = domain.StateFailed
		result.Err = err
		return result
	}

	result.GasUsed = receipt.GasUsed

	if receipt.Status != types.ReceiptStatusSuccessful {
		result.State = domain.StateFailed
		result.Err = apperror.New(apperror.CodeOnChainRevert,
			apperror.WithContext("transaction reverted on chain"))
		return result
	}

	if profit, ok := c.dispatcher.RealizedProfit(receipt); ok {
		result.RealizedProfit = profit
	}
	result.State = domain.StateConfirmed
	return result
}

func (c *ExecutionCoordinator) validate(strategy *domain.Strategy) error {
	if strategy.FlashLoanAmount == nil || strategy.FlashLoanAmount.Sign() <= 0 {
		return apperror.New(apperror.CodeValidationError,
			apperror.WithContext("flash loan amount must be positive"))
	}
	for i, leg := range strategy.Legs {
		if len(leg.Path) < 2 {
			return apperror.New(apperror.CodeValidationError,
				apperror.WithContext(fmt.Sprintf("leg %d path too short", i)))
		}
	}
	if strategy.Hash == "" {
		return apperror.New(apperror.CodeValidationError,
			apperror.WithContext("strategy hash missing"))
	}
	return nil
}

// gasPrice scales the suggested price by network congestion, capped
// at the configured maximum.
func (c *ExecutionCoordinator) gasPrice(ctx context.Context) (*big.Int, error) {
	feeData, err := c.feeOracle.FeeData(ctx)
	if err != nil {
		return nil, err
	}

	congestion := feeData.CongestionFactor(c.config.GasLowGwei, c.config.GasHighGwei)
	maxWei := gweiToWei(c.config.MaxGasPriceGwei)

	price := chaindomain.ScaleGasPrice(feeData.GasPrice, congestion, c.config.CongestionSurcharge, maxWei)

	c.logger.Debug(ctx, "gas price scaled",
		"congestion", congestion,
		"price_wei", price)
	return price, nil
}

func (c *ExecutionCoordinator) awaitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.config.ConfirmationTimeout)
	defer cancel()
	return c.submitter.WaitReceipt(waitCtx, txHash)
}

func gweiToWei(gwei float64) *big.Int {
	wei, _ := new(big.Float).Mul(big.NewFloat(gwei), big.NewFloat(1e9)).Int(nil)
	return wei
}
