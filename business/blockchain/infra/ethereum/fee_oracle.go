package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mvaldes/flashcycle/business/blockchain/domain"
	"github.com/mvaldes/flashcycle/internal/apperror"
	"github.com/mvaldes/flashcycle/internal/cache"
	"github.com/mvaldes/flashcycle/internal/circuitbreaker"
	"github.com/mvaldes/flashcycle/internal/logger"
)

const feeDataCacheKey = "fee-data"

// FeeOracleConfig holds configuration for the fee oracle.
type FeeOracleConfig struct {
	CacheTTL  time.Duration // how long a fee snapshot stays fresh
	GasMargin float64       // safety margin applied to gas estimates
}

// DefaultFeeOracleConfig returns sensible defaults.
func DefaultFeeOracleConfig() FeeOracleConfig {
	return FeeOracleConfig{
		CacheTTL:  10 * time.Second,
		GasMargin: 1.10,
	}
}

// EthFeeOracle implements FeeOracle against a go-ethereum client.
type EthFeeOracle struct {
	config  FeeOracleConfig
	client  *ethclient.Client
	logger  logger.LoggerInterface
	cache   *cache.Cache[string, *domain.FeeData]
	breaker *circuitbreaker.CircuitBreaker[*domain.FeeData]
	tracer  trace.Tracer
}

// NewEthFeeOracle creates a fee oracle backed by the given client.
func NewEthFeeOracle(cfg FeeOracleConfig, client *ethclient.Client, log logger.LoggerInterface) *EthFeeOracle {
	return &EthFeeOracle{
		config:  cfg,
		client:  client,
		logger:  log,
		cache:   cache.New[string, *domain.FeeData](time.Minute),
		breaker: circuitbreaker.New[*domain.FeeData](circuitbreaker.DefaultConfig("fee-oracle")),
		tracer:  otel.Tracer(tracerName),
	}
}

// FeeData returns current network fee information, cached for CacheTTL.
func (o *EthFeeOracle) FeeData(ctx context.Context) (*domain.FeeData, error) {
	ctx, span := o.tracer.Start(ctx, "chain.fee_data")
	defer span.End()

	if cached, ok := o.cache.Get(ctx, feeDataCacheKey); ok {
		span.AddEvent("cache_hit")
		return cached, nil
	}

	data, err := o.breaker.Execute(func() (*domain.FeeData, error) {
		return o.fetchFeeData(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, apperror.New(apperror.CodeChainRPCError,
			apperror.WithCause(err),
			apperror.WithContext("failed to fetch fee data"))
	}

	o.cache.Set(ctx, feeDataCacheKey, data, o.config.CacheTTL)

	span.SetAttributes(attribute.Float64("gas_price_gwei", data.GasPriceGwei()))
	span.SetStatus(codes.Ok, "fetched")
	return data, nil
}

func (o *EthFeeOracle) fetchFeeData(ctx context.Context) (*domain.FeeData, error) {
	gasPrice, err := o.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}

	// Base fee failures are non-fatal, legacy pricing still works.
	var baseFee *big.Int
	if header, err := o.client.HeaderByNumber(ctx, nil); err == nil && header.BaseFee != nil {
		baseFee = new(big.Int).Set(header.BaseFee)
	} else if err != nil {
		o.logger.Debug(ctx, "base fee unavailable", "error", err)
	}

	return domain.NewFeeData(gasPrice, baseFee), nil
}

// EstimateGas estimates gas for a contract call with the configured margin.
func (o *EthFeeOracle) EstimateGas(ctx context.Context, data []byte, to string) (uint64, error) {
	ctx, span := o.tracer.Start(ctx, "chain.estimate_gas")
	defer span.End()

	if !common.IsHexAddress(to) {
		return 0, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(fmt.Sprintf("invalid contract address: %s", to)))
	}

	addr := common.HexToAddress(to)
	gas, err := o.client.EstimateGas(ctx, geth.CallMsg{To: &addr, Data: data})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "estimate failed")
		return 0, apperror.New(apperror.CodeGasEstimationFailed,
			apperror.WithCause(err),
			apperror.WithContext("gas estimation reverted or failed"))
	}

	withMargin := uint64(float64(gas) * o.config.GasMargin)

	span.SetAttributes(attribute.Int64("gas_estimate", int64(withMargin)))
	span.SetStatus(codes.Ok, "estimated")
	return withMargin, nil
}

// Close releases oracle resources.
func (o *EthFeeOracle) Close() {
	o.cache.Close()
}
