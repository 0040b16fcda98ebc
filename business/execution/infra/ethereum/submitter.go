package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/mvaldes/flashcycle/internal/logger"
)

const receiptPollInterval = 2 * time.Second

// Submitter signs and broadcasts transactions with a single wallet
// key. Nonces come from the pending pool on every submission; the
// single-flight execution guard upstream prevents races on them.
type Submitter struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	signer  types.Signer
	logger  logger.LoggerInterface
}

// NewSubmitter creates a submitter from a hex-encoded private key.
func NewSubmitter(client *ethclient.Client, privateKeyHex string, chainID uint64, log logger.LoggerInterface) (*Submitter, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	id := new(big.Int).SetUint64(chainID)
	return &Submitter{
		client:  client,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		chainID: id,
		signer:  types.LatestSignerForChainID(id),
		logger:  log,
	}, nil
}

// From returns the wallet address transactions are sent from.
func (s *Submitter) From() common.Address {
	return s.from
}

// Submit signs and broadcasts a transaction to the target contract.
func (s *Submitter) Submit(ctx context.Context, to common.Address, data []byte, gasLimit uint64, gasPrice *big.Int) (common.Hash, error) {
	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, s.signer, s.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}

	s.logger.Info(ctx, "transaction broadcast",
		"tx", signed.Hash().Hex(),
		"nonce", nonce,
		"gas_limit", gasLimit)

	return signed.Hash(), nil
}

// WaitReceipt polls for the receipt until it appears or ctx ends.
func (s *Submitter) WaitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, geth.NotFound) {
			s.logger.Debug(ctx, "receipt poll failed", "tx", txHash.Hex(), "error", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
