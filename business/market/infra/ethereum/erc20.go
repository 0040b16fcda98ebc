// Package ethereum implements chain-backed metadata loading for the market context.
package ethereum

import (
	"context"
	"fmt"
	"strings"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/mvaldes/flashcycle/business/market/app"
	"github.com/mvaldes/flashcycle/internal/circuitbreaker"
	"github.com/mvaldes/flashcycle/internal/logger"
)

const erc20ABIJSON = `[
	{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

// ERC20Loader implements MetadataLoader over eth_call.
type ERC20Loader struct {
	client  *ethclient.Client
	abi     abi.ABI
	logger  logger.LoggerInterface
	breaker *circuitbreaker.CircuitBreaker[[]byte]
}

// NewERC20Loader creates a metadata loader backed by the given client.
func NewERC20Loader(client *ethclient.Client, log logger.LoggerInterface) (*ERC20Loader, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	return &ERC20Loader{
		client:  client,
		abi:     parsed,
		logger:  log,
		breaker: circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("erc20-metadata")),
	}, nil
}

// Metadata loads symbol, name and decimals for a token contract.
// Name failures are tolerated, symbol and decimals are required.
func (l *ERC20Loader) Metadata(ctx context.Context, address common.Address) (*app.TokenMetadata, error) {
	symbol, err := l.callString(ctx, address, "symbol")
	if err != nil {
		return nil, fmt.Errorf("symbol(): %w", err)
	}

	decimals, err := l.callUint8(ctx, address, "decimals")
	if err != nil {
		return nil, fmt.Errorf("decimals(): %w", err)
	}

	name, err := l.callString(ctx, address, "name")
	if err != nil {
		l.logger.Debug(ctx, "token name unavailable", "address", address.Hex(), "error", err)
		name = symbol
	}

	return &app.TokenMetadata{
		Symbol:   symbol,
		Name:     name,
		Decimals: decimals,
	}, nil
}

func (l *ERC20Loader) call(ctx context.Context, address common.Address, method string) ([]byte, error) {
	data, err := l.abi.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	return l.breaker.Execute(func() ([]byte, error) {
		return l.client.CallContract(ctx, geth.CallMsg{To: &address, Data: data}, nil)
	})
}

func (l *ERC20Loader) callString(ctx context.Context, address common.Address, method string) (string, error) {
	out, err := l.call(ctx, address, method)
	if err != nil {
		return "", err
	}

	results, err := l.abi.Unpack(method, out)
	if err != nil || len(results) == 0 {
		return "", fmt.Errorf("unpack %s: %w", method, err)
	}

	s, ok := results[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected %s return type %T", method, results[0])
	}
	return s, nil
}

func (l *ERC20Loader) callUint8(ctx context.Context, address common.Address, method string) (uint8, error) {
	out, err := l.call(ctx, address, method)
	if err != nil {
		return 0, err
	}

	results, err := l.abi.Unpack(method, out)
	if err != nil || len(results) == 0 {
		return 0, fmt.Errorf("unpack %s: %w", method, err)
	}

	d, ok := results[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected %s return type %T", method, results[0])
	}
	return d, nil
}
