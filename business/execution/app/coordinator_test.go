package app

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	chaindomain "github.com/mvaldes/flashcycle/business/blockchain/domain"
	"github.com/mvaldes/flashcycle/business/execution/domain"
	liquidity "github.com/mvaldes/flashcycle/business/liquidity/domain"
	"github.com/mvaldes/flashcycle/internal/apperror"
)

type fakeFeeOracle struct {
	gasPriceGwei int64
	err          error
}

func (f fakeFeeOracle) FeeData(context.Context) (*chaindomain.FeeData, error) {
	if f.err != nil {
		return nil, f.err
	}
	wei := new(big.Int).Mul(big.NewInt(f.gasPriceGwei), big.NewInt(1_000_000_000))
	return chaindomain.NewFeeData(wei, nil), nil
}

func (f fakeFeeOracle) EstimateGas(context.Context, []byte, string) (uint64, error) {
	return 0, errors.New("not implemented")
}

type fakeDispatcher struct {
	encodeErr error
	profit    *big.Int
}

func (f fakeDispatcher) Encode(*domain.Strategy) (common.Address, []byte, error) {
	if f.encodeErr != nil {
		return common.Address{}, nil, f.encodeErr
	}
	return common.BytesToAddress([]byte{0xEE}), []byte{0x01, 0x02}, nil
}

func (f fakeDispatcher) RealizedProfit(*types.Receipt) (*big.Int, bool) {
	if f.profit == nil {
		return nil, false
	}
	return f.profit, true
}

type fakeSubmitter struct {
	mu        sync.Mutex
	gasLimit  uint64
	gasPrice  *big.Int
	submitErr error

	receipt *types.Receipt
	// waiting, when set, is closed once WaitReceipt is entered; the
	// call then blocks until its context expires.
	waiting chan struct{}
}

func (f *fakeSubmitter) Submit(_ context.Context, _ common.Address, _ []byte, gasLimit uint64, gasPrice *big.Int) (common.Hash, error) {
	if f.submitErr != nil {
		return common.Hash{}, f.submitErr
	}
	f.mu.Lock()
	f.gasLimit = gasLimit
	f.gasPrice = gasPrice
	f.mu.Unlock()
	return common.BytesToHash([]byte{0xAB}), nil
}

func (f *fakeSubmitter) WaitReceipt(ctx context.Context, _ common.Hash) (*types.Receipt, error) {
	if f.waiting != nil {
		close(f.waiting)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.receipt, nil
}

func validStrategy(t *testing.T) *domain.Strategy {
	t.Helper()

	base := testAsset(t, "USDC", 0x01, 6)
	a := common.BytesToAddress([]byte{0x01})
	b := common.BytesToAddress([]byte{0x02})
	c := common.BytesToAddress([]byte{0x03})

	legs := [2]domain.Leg{
		{Path: []common.Address{a, b}, DEXes: []liquidity.DEXID{"uniswap-v2"}},
		{Path: []common.Address{b, c, a}, DEXes: []liquidity.DEXID{"uniswap-v3", "curve"}},
	}
	return domain.NewStrategy(base, legs, big.NewInt(1_000_000_000), big.NewInt(1_004_000_000), big.NewInt(10_000_000), 1.0)
}

func newTestCoordinator(t *testing.T, oracle fakeFeeOracle, dispatcher fakeDispatcher, submitter *fakeSubmitter, timeout time.Duration) *ExecutionCoordinator {
	t.Helper()

	cfg := DefaultCoordinatorConfig()
	cfg.ConfirmationTimeout = timeout

	c, err := NewExecutionCoordinator(cfg, oracle, dispatcher, submitter, testLogger())
	if err != nil {
		t.Fatalf("NewExecutionCoordinator: %v", err)
	}
	return c
}

func TestExecute_Confirmed(t *testing.T) {
	submitter := &fakeSubmitter{
		receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful, GasUsed: 500_000},
	}
	c := newTestCoordinator(t,
		fakeFeeOracle{gasPriceGwei: 20},
		fakeDispatcher{profit: big.NewInt(9_500_000)},
		submitter, time.Second,
	)

	result, err := c.Execute(context.Background(), validStrategy(t))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.State != domain.StateConfirmed {
		t.Errorf("state = %s, want %s", result.State, domain.StateConfirmed)
	}
	if !result.Succeeded() {
		t.Error("confirmed result should report success")
	}
	if result.RealizedProfit.Cmp(big.NewInt(9_500_000)) != 0 {
		t.Errorf("realized profit = %s, want 9500000", result.RealizedProfit)
	}
	if result.GasUsed != 500_000 {
		t.Errorf("gas used = %d, want 500000", result.GasUsed)
	}

	// Three hops on top of the base gas allowance.
	cfg := DefaultCoordinatorConfig()
	if want := cfg.GasBase + 3*cfg.GasPerHop; submitter.gasLimit != want {
		t.Errorf("gas limit = %d, want %d", submitter.gasLimit, want)
	}
	if submitter.gasPrice == nil || submitter.gasPrice.Sign() <= 0 {
		t.Error("expected a positive gas price")
	}
}

func TestExecute_ValidationFailures(t *testing.T) {
	shortLeg := validStrategy(t)
	shortLeg.Legs[1].Path = shortLeg.Legs[1].Path[:1]

	zeroLoan := validStrategy(t)
	zeroLoan.FlashLoanAmount = big.NewInt(0)

	noHash := validStrategy(t)
	noHash.Hash = ""

	tests := []struct {
		name     string
		strategy *domain.Strategy
	}{
		{"short_leg_path", shortLeg},
		{"zero_flash_loan", zeroLoan},
		{"missing_hash", noHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCoordinator(t, fakeFeeOracle{gasPriceGwei: 20}, fakeDispatcher{}, &fakeSubmitter{}, time.Second)

			result, err := c.Execute(context.Background(), tt.strategy)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if result.State != domain.StateFailed {
				t.Errorf("state = %s, want %s", result.State, domain.StateFailed)
			}
			if !apperror.IsCode(result.Err, apperror.CodeValidationError) {
				t.Errorf("error = %v, want VALIDATION_ERROR", result.Err)
			}
		})
	}
}

func TestExecute_SubmissionFailure(t *testing.T) {
	submitter := &fakeSubmitter{submitErr: errors.New("nonce too low")}
	c := newTestCoordinator(t, fakeFeeOracle{gasPriceGwei: 20}, fakeDispatcher{}, submitter, time.Second)

	result, err := c.Execute(context.Background(), validStrategy(t))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.State != domain.StateFailed {
		t.Errorf("state = %s, want %s", result.State, domain.StateFailed)
	}
	if !apperror.IsCode(result.Err, apperror.CodeSubmissionError) {
		t.Errorf("error = %v, want SUBMISSION_ERROR", result.Err)
	}
}

func TestExecute_OnChainRevert(t *testing.T) {
	submitter := &fakeSubmitter{
		receipt: &types.Receipt{Status: types.ReceiptStatusFailed, GasUsed: 420_000},
	}
	c := newTestCoordinator(t, fakeFeeOracle{gasPriceGwei: 20}, fakeDispatcher{}, submitter, time.Second)

	result, err := c.Execute(context.Background(), validStrategy(t))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.State != domain.StateFailed {
		t.Errorf("state = %s, want %s", result.State, domain.StateFailed)
	}
	if !apperror.IsCode(result.Err, apperror.CodeOnChainRevert) {
		t.Errorf("error = %v, want ONCHAIN_REVERT", result.Err)
	}
}

func TestExecute_ConfirmationTimeoutIsAmbiguous(t *testing.T) {
	submitter := &fakeSubmitter{waiting: make(chan struct{})}
	c := newTestCoordinator(t, fakeFeeOracle{gasPriceGwei: 20}, fakeDispatcher{}, submitter, 30*time.Millisecond)

	result, err := c.Execute(context.Background(), validStrategy(t))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.State != domain.StateTimedOut {
		t.Errorf("state = %s, want %s", result.State, domain.StateTimedOut)
	}
	if !result.Ambiguous() {
		t.Error("a timed out execution should be ambiguous, not failed")
	}
	if !apperror.IsCode(result.Err, apperror.CodeConfirmationTimeout) {
		t.Errorf("error = %v, want CONFIRMATION_TIMEOUT", result.Err)
	}
}

func TestExecute_SingleFlight(t *testing.T) {
	submitter := &fakeSubmitter{waiting: make(chan struct{})}
	c := newTestCoordinator(t, fakeFeeOracle{gasPriceGwei: 20}, fakeDispatcher{}, submitter, 200*time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := c.Execute(context.Background(), validStrategy(t)); err != nil {
			t.Errorf("first Execute: %v", err)
		}
	}()

	// Wait until the first execution is parked in the receipt wait.
	<-submitter.waiting

	if !c.InFlight() {
		t.Error("coordinator should report an execution in flight")
	}

	_, err := c.Execute(context.Background(), validStrategy(t))
	if !apperror.IsCode(err, apperror.CodeExecutionInFlight) {
		t.Errorf("concurrent Execute error = %v, want EXECUTION_IN_FLIGHT", err)
	}

	<-done
	if c.InFlight() {
		t.Error("coordinator should be idle after the execution finishes")
	}
}
