package ethereum

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mvaldes/flashcycle/business/execution/domain"
	"github.com/mvaldes/flashcycle/internal/config"
)

// Dispatcher encodes strategies into flash-loan calldata for the
// configured protocol shape and decodes execution events.
type Dispatcher struct {
	protocol string
	provider common.Address // Aave pool / Balancer vault / custom executor
	receiver common.Address // flash-loan receiver contract
}

// NewDispatcher creates a dispatcher for the given protocol.
func NewDispatcher(protocol string, provider, receiver common.Address) (*Dispatcher, error) {
	switch protocol {
	case config.ProtocolAave, config.ProtocolBalancer, config.ProtocolCustom:
	default:
		return nil, fmt.Errorf("unknown flash loan protocol: %s", protocol)
	}
	return &Dispatcher{
		protocol: protocol,
		provider: provider,
		receiver: receiver,
	}, nil
}

// Encode returns the flash-loan provider and packed calldata.
func (d *Dispatcher) Encode(strategy *domain.Strategy) (common.Address, []byte, error) {
	params, err := encodeLegParams(strategy)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("encode leg params: %w", err)
	}

	asset := strategy.Base.Address()
	amount := strategy.FlashLoanAmount

	var data []byte
	switch d.protocol {
	case config.ProtocolAave:
		data, err = aavePoolABI.Pack("flashLoan",
			d.receiver,
			[]common.Address{asset},
			[]*big.Int{amount},
			[]*big.Int{big.NewInt(0)}, // mode 0: no debt, full repayment
			d.receiver,
			params,
			uint16(0),
		)
	case config.ProtocolBalancer:
		data, err = balancerVaultABI.Pack("flashLoan",
			d.receiver,
			[]common.Address{asset},
			[]*big.Int{amount},
			params,
		)
	case config.ProtocolCustom:
		data, err = customExecutorABI.Pack("executeArbitrage",
			asset,
			amount,
			params,
			hashToBytes32(strategy.Hash),
		)
	}
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("pack %s flash loan: %w", d.protocol, err)
	}
	return d.provider, data, nil
}

// RealizedProfit extracts the profit from the ArbitrageExecuted
// event emitted by the receiver contract.
func (d *Dispatcher) RealizedProfit(receipt *types.Receipt) (*big.Int, bool) {
	event := customExecutorABI.Events["ArbitrageExecuted"]

	for _, log := range receipt.Logs {
		if len(log.Topics) == 0 || log.Topics[0] != event.ID {
			continue
		}

		values, err := event.Inputs.NonIndexed().Unpack(log.Data)
		if err != nil || len(values) < 2 {
			continue
		}
		if profit, ok := values[1].(*big.Int); ok {
			return profit, true
		}
	}
	return nil, false
}

func encodeLegParams(strategy *domain.Strategy) ([]byte, error) {
	return legParamsArgs.Pack(
		strategy.Legs[0].Path,
		strategy.Legs[1].Path,
		strategy.MinAmountOut,
		hashToBytes32(strategy.Hash),
	)
}

func hashToBytes32(h string) [32]byte {
	var out [32]byte
	raw, err := hex.DecodeString(h)
	if err != nil {
		return out
	}
	copy(out[:], raw)
	return out
}
