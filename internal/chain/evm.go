package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// evmDustWei absorbs float rounding between the reported amount and the
// transaction value (1 gwei).
var evmDustWei = big.NewInt(1_000_000_000)

const evmTransferGas = 21_000

// evmRPC is the slice of ethclient.Client the adapter needs.
type evmRPC interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

type EvmAdapter struct {
	primary  evmRPC
	fallback evmRPC // nil when no secondary endpoint is configured
	log      *zap.Logger
}

func NewEvmAdapter(primaryURL, fallbackURL string, log *zap.Logger) (*EvmAdapter, error) {
	primary, err := ethclient.Dial(primaryURL)
	if err != nil {
		return nil, fmt.Errorf("dial eth rpc: %w", err)
	}

	a := &EvmAdapter{primary: primary, log: log}
	if fallbackURL != "" {
		fb, err := ethclient.Dial(fallbackURL)
		if err != nil {
			return nil, fmt.Errorf("dial eth fallback rpc: %w", err)
		}
		a.fallback = fb
	}
	return a, nil
}

func (a *EvmAdapter) Name() string { return "ethereum" }

func (a *EvmAdapter) ValidateAddress(addr string) error {
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("invalid ethereum address: %s", addr)
	}
	return nil
}

func (a *EvmAdapter) GetBalance(ctx context.Context, addr string) (float64, error) {
	if !common.IsHexAddress(addr) {
		return 0, fmt.Errorf("invalid ethereum address: %s", addr)
	}

	var bal *big.Int
	err := a.withClients(func(c evmRPC) error {
		var err error
		bal, err = c.BalanceAt(ctx, common.HexToAddress(addr), nil)
		return err
	})
	if err != nil {
		return 0, err
	}

	f, _ := new(big.Float).Quo(new(big.Float).SetInt(bal), big.NewFloat(1e18)).Float64()
	return f, nil
}

func (a *EvmAdapter) VerifyTransfer(ctx context.Context, txHash, to string, amount float64) error {
	if !common.IsHexAddress(to) {
		return fmt.Errorf("invalid ethereum address: %s", to)
	}
	hash := common.HexToHash(txHash)
	recipient := common.HexToAddress(to)

	var tx *types.Transaction
	var pending bool
	err := a.withClients(func(c evmRPC) error {
		var err error
		tx, pending, err = c.TransactionByHash(ctx, hash)
		return err
	})
	if errors.Is(err, ethereum.NotFound) {
		return ErrTxNotFound
	}
	if err != nil {
		return fmt.Errorf("fetch transaction: %w", err)
	}
	if pending {
		return fmt.Errorf("%w: still pending", ErrTxNotFound)
	}

	return a.verifyTransferTx(ctx, tx, hash, recipient, wei(amount))
}

func (a *EvmAdapter) verifyTransferTx(ctx context.Context, tx *types.Transaction, hash common.Hash, recipient common.Address, wantWei *big.Int) error {
	if tx.To() == nil || *tx.To() != recipient {
		return fmt.Errorf("%w: recipient does not match", ErrTransferMismatch)
	}

	minWei := new(big.Int).Sub(wantWei, evmDustWei)
	if tx.Value().Cmp(minWei) < 0 {
		return fmt.Errorf("%w: value %s wei below reported %s", ErrTransferMismatch, tx.Value(), wantWei)
	}

	var receipt *types.Receipt
	err := a.withClients(func(c evmRPC) error {
		var err error
		receipt, err = c.TransactionReceipt(ctx, hash)
		return err
	})
	if errors.Is(err, ethereum.NotFound) {
		return fmt.Errorf("%w: no receipt yet", ErrTxNotFound)
	}
	if err != nil {
		return fmt.Errorf("fetch receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return ErrTxFailed
	}
	return nil
}

func (a *EvmAdapter) SubmitTransfer(ctx context.Context, payerKey, to string, amount float64) (*SubmitResult, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(payerKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid payer key: %w", err)
	}
	if !common.IsHexAddress(to) {
		return nil, fmt.Errorf("invalid ethereum address: %s", to)
	}
	recipient := common.HexToAddress(to)

	hash, err := a.submitOnce(ctx, a.primary, key, recipient, wei(amount))
	if err == nil {
		return &SubmitResult{TxHash: hash.Hex()}, nil
	}
	if a.fallback == nil {
		return nil, err
	}

	a.log.Warn("primary eth endpoint failed, retrying via fallback", zap.Error(err))
	hash, ferr := a.submitOnce(ctx, a.fallback, key, recipient, wei(amount))
	if ferr != nil {
		return nil, fmt.Errorf("primary: %v; fallback: %w", err, ferr)
	}
	return &SubmitResult{TxHash: hash.Hex(), UsedFallback: true}, nil
}

func (a *EvmAdapter) submitOnce(ctx context.Context, c evmRPC, key *ecdsa.PrivateKey, recipient common.Address, amountWei *big.Int) (common.Hash, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)

	nonce, err := c.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get nonce: %w", err)
	}
	gasPrice, err := c.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get gas price: %w", err)
	}
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get chain id: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &recipient,
		Value:    amountWei,
		Gas:      evmTransferGas,
		GasPrice: gasPrice,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}

	if err := c.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}
	return signed.Hash(), nil
}

func (a *EvmAdapter) AwaitConfirmation(ctx context.Context, txHash string, timeout time.Duration) error {
	hash := common.HexToHash(txHash)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		var receipt *types.Receipt
		err := a.withClients(func(c evmRPC) error {
			var err error
			receipt, err = c.TransactionReceipt(ctx, hash)
			return err
		})
		if err == nil && receipt != nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return ErrTxFailed
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("confirmation timed out after %s", timeout)
		case <-ticker.C:
		}
	}
}

func (a *EvmAdapter) withClients(fn func(evmRPC) error) error {
	err := fn(a.primary)
	if err == nil || a.fallback == nil || errors.Is(err, ethereum.NotFound) {
		return err
	}
	a.log.Debug("primary eth endpoint failed, trying fallback", zap.Error(err))
	return fn(a.fallback)
}

// wei converts an ETH amount to wei.
func wei(amount float64) *big.Int {
	f := new(big.Float).Mul(big.NewFloat(amount), big.NewFloat(1e18))
	out, _ := f.Int(nil)
	return out
}
