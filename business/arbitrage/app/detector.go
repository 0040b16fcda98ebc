package app

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	blockchainApp "github.com/mvaldes/flashcycle/business/blockchain/app"
	discoveryApp "github.com/mvaldes/flashcycle/business/discovery/app"
	executionApp "github.com/mvaldes/flashcycle/business/execution/app"
	market "github.com/mvaldes/flashcycle/business/market/app"
	"github.com/mvaldes/flashcycle/internal/logger"
)

const meterName = "github.com/mvaldes/flashcycle/business/arbitrage/app"

// DetectorConfig holds configuration for the detection loop.
type DetectorConfig struct {
	Cooldown         time.Duration // minimum gap between passes
	ExecutionEnabled bool          // dry-run when false
}

type detectorMetrics struct {
	passes        metric.Int64Counter
	skipped       metric.Int64Counter
	opportunities metric.Int64Counter
}

// Detector runs the detection pipeline on every new block: generate
// cycles, evaluate them, build the best strategy and hand it to the
// coordinator. Block delivery degrades from push to poll inside the
// chain subscriber; the detector only consumes the channel.
type Detector struct {
	config      DetectorConfig
	chain       *blockchainApp.BlockchainService
	catalog     *market.TokenCatalog
	generator   *discoveryApp.CycleGenerator
	evaluator   *discoveryApp.ProfitEvaluator
	builder     *executionApp.StrategyBuilder
	coordinator *executionApp.ExecutionCoordinator // nil when execution is disabled
	feedback    *ScoringFeedback
	logger      logger.LoggerInterface

	running  atomic.Bool // re-entrancy guard for passes
	lastPass atomic.Int64

	tracer  trace.Tracer
	metrics *detectorMetrics
}

// NewDetector wires the full detection pipeline.
func NewDetector(cfg DetectorConfig, chain *blockchainApp.BlockchainService, catalog *market.TokenCatalog, generator *discoveryApp.CycleGenerator, evaluator *discoveryApp.ProfitEvaluator, builder *executionApp.StrategyBuilder, coordinator *executionApp.ExecutionCoordinator, feedback *ScoringFeedback, log logger.LoggerInterface) (*Detector, error) {
	d := &Detector{
		config:      cfg,
		chain:       chain,
		catalog:     catalog,
		generator:   generator,
		evaluator:   evaluator,
		builder:     builder,
		coordinator: coordinator,
		feedback:    feedback,
		logger:      log,
		tracer:      otel.Tracer(meterName),
	}
	if err := d.initMetrics(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Detector) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	d.metrics = &detectorMetrics{}

	d.metrics.passes, err = meter.Int64Counter(
		"detection_passes_total",
		metric.WithDescription("Completed detection passes"),
		metric.WithUnit("{pass}"),
	)
	if err != nil {
		return err
	}

	d.metrics.skipped, err = meter.Int64Counter(
		"detection_skipped_total",
		metric.WithDescription("Detection triggers skipped by guard, cooldown or execution"),
		metric.WithUnit("{skip}"),
	)
	if err != nil {
		return err
	}

	d.metrics.opportunities, err = meter.Int64Counter(
		"detection_opportunities_total",
		metric.WithDescription("Profitable strategies built"),
		metric.WithUnit("{opportunity}"),
	)
	return err
}

// Run consumes new blocks and triggers detection passes until ctx
// ends. It blocks.
func (d *Detector) Run(ctx context.Context) error {
	blocks, err := d.chain.SubscribeBlocks(ctx)
	if err != nil {
		return err
	}

	d.logger.Info(ctx, "detector running",
		"execution_enabled", d.config.ExecutionEnabled,
		"cooldown", d.config.Cooldown)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case block, ok := <-blocks:
			if !ok {
				return nil
			}
			d.maybeRunPass(ctx, block.Number)
		}
	}
}

// maybeRunPass starts a pass unless one is running, an execution is
// in flight, or the cooldown has not elapsed. Passes run off the
// block-consumption goroutine so slow passes never back up the
// subscription channel.
func (d *Detector) maybeRunPass(ctx context.Context, blockNumber uint64) {
	if d.coordinator != nil && d.coordinator.InFlight() {
		d.skip(ctx, "execution_in_flight")
		return
	}

	last := time.Unix(0, d.lastPass.Load())
	if time.Since(last) < d.config.Cooldown {
		d.skip(ctx, "cooldown")
		return
	}

	if !d.running.CompareAndSwap(false, true) {
		d.skip(ctx, "pass_in_progress")
		return
	}

	go func() {
		defer d.running.Store(false)
		defer d.lastPass.Store(time.Now().UnixNano())
		d.runPass(ctx, blockNumber)
	}()
}

func (d *Detector) skip(ctx context.Context, reason string) {
	d.metrics.skipped.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)))
}

// runPass executes one full detection pass. Any panic is contained
// so the next trigger still runs.
func (d *Detector) runPass(ctx context.Context, blockNumber uint64) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(ctx, "detection pass panicked",
				"block", blockNumber, "panic", r)
		}
	}()

	ctx, span := d.tracer.Start(ctx, "arbitrage.detection_pass")
	defer span.End()
	span.SetAttributes(attribute.Int64("block_number", int64(blockNumber)))

	start := time.Now()
	defer func() {
		d.metrics.passes.Add(ctx, 1)
		d.logger.Debug(ctx, "detection pass finished",
			"block", blockNumber, "duration", time.Since(start))
	}()

	cycles := d.generator.Generate(ctx, d.catalog.Tokens())
	if len(cycles) == 0 {
		return
	}

	evaluated, err := d.evaluator.Evaluate(ctx, cycles)
	if err != nil {
		d.logger.Warn(ctx, "cycle evaluation aborted", "error", err)
		return
	}

	// Detection feedback: pairs in profitable cycles recover, the
	// rest decay gently.
	profitable := make(map[string]struct{}, len(evaluated))
	for _, ec := range evaluated {
		profitable[ec.Cycle.Fingerprint()] = struct{}{}
	}
	for _, c := range cycles {
		_, isProfitable := profitable[c.Fingerprint()]
		d.feedback.OnDetection(c, isProfitable)
	}

	if len(evaluated) == 0 {
		return
	}

	strategy, err := d.builder.Build(ctx, evaluated)
	if err != nil {
		d.logger.Warn(ctx, "strategy build failed", "error", err)
		return
	}
	if strategy == nil {
		return
	}
	d.metrics.opportunities.Add(ctx, 1)

	if !d.config.ExecutionEnabled || d.coordinator == nil {
		d.logger.Info(ctx, "opportunity found (execution disabled)",
			"strategy", strategy.ID,
			"profit_pct", strategy.ProfitPct,
			"flash_loan", strategy.FlashLoanAmount)
		return
	}

	result, err := d.coordinator.Execute(ctx, strategy)
	if err != nil {
		d.logger.Warn(ctx, "execution rejected", "error", err)
		return
	}

	d.feedback.OnExecution(ctx, result)
}
