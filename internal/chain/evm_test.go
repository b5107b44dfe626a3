package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

type fakeEvmRPC struct {
	balance    *big.Int
	balanceErr error
	tx         *types.Transaction
	txPending  bool
	txErr      error
	receipt    *types.Receipt
	receiptErr error
	sendErr    error
	sendCalls  int
}

func (f *fakeEvmRPC) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return f.balance, nil
}

func (f *fakeEvmRPC) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	if f.txErr != nil {
		return nil, false, f.txErr
	}
	return f.tx, f.txPending, nil
}

func (f *fakeEvmRPC) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	return f.receipt, nil
}

func (f *fakeEvmRPC) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 7, nil
}

func (f *fakeEvmRPC) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (f *fakeEvmRPC) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (f *fakeEvmRPC) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.sendCalls++
	return f.sendErr
}

func TestWei(t *testing.T) {
	tests := []struct {
		amount   float64
		expected *big.Int
	}{
		{1, big.NewInt(1e18)},
		{0.5, big.NewInt(5e17)},
		{0.001, big.NewInt(1e15)},
	}

	for _, tt := range tests {
		if got := wei(tt.amount); got.Cmp(tt.expected) != 0 {
			t.Errorf("wei(%v) = %s, want %s", tt.amount, got, tt.expected)
		}
	}
}

func transferEvmTx(to common.Address, value *big.Int) *types.Transaction {
	return types.NewTx(&types.LegacyTx{
		Nonce:    1,
		To:       &to,
		Value:    value,
		Gas:      evmTransferGas,
		GasPrice: big.NewInt(1),
	})
}

func TestVerifyEvmTransfer(t *testing.T) {
	recipient := common.HexToAddress("0x1111111111111111111111111111111111111111")
	other := common.HexToAddress("0x2222222222222222222222222222222222222222")
	tx := transferEvmTx(recipient, wei(0.5))
	hash := tx.Hash()

	okReceipt := &types.Receipt{Status: types.ReceiptStatusSuccessful}

	t.Run("valid", func(t *testing.T) {
		a := &EvmAdapter{primary: &fakeEvmRPC{tx: tx, receipt: okReceipt}, log: zap.NewNop()}
		if err := a.verifyTransferTx(context.Background(), tx, hash, recipient, wei(0.5)); err != nil {
			t.Fatalf("expected valid transfer, got: %v", err)
		}
	})

	t.Run("wrong recipient", func(t *testing.T) {
		a := &EvmAdapter{primary: &fakeEvmRPC{tx: tx, receipt: okReceipt}, log: zap.NewNop()}
		if err := a.verifyTransferTx(context.Background(), tx, hash, other, wei(0.5)); !errors.Is(err, ErrTransferMismatch) {
			t.Errorf("got %v, want ErrTransferMismatch", err)
		}
	})

	t.Run("value too small", func(t *testing.T) {
		a := &EvmAdapter{primary: &fakeEvmRPC{tx: tx, receipt: okReceipt}, log: zap.NewNop()}
		if err := a.verifyTransferTx(context.Background(), tx, hash, recipient, wei(2)); !errors.Is(err, ErrTransferMismatch) {
			t.Errorf("got %v, want ErrTransferMismatch", err)
		}
	})

	t.Run("failed receipt", func(t *testing.T) {
		failed := &types.Receipt{Status: types.ReceiptStatusFailed}
		a := &EvmAdapter{primary: &fakeEvmRPC{tx: tx, receipt: failed}, log: zap.NewNop()}
		if err := a.verifyTransferTx(context.Background(), tx, hash, recipient, wei(0.5)); !errors.Is(err, ErrTxFailed) {
			t.Errorf("got %v, want ErrTxFailed", err)
		}
	})

	t.Run("no receipt yet", func(t *testing.T) {
		a := &EvmAdapter{primary: &fakeEvmRPC{tx: tx, receiptErr: ethereum.NotFound}, log: zap.NewNop()}
		if err := a.verifyTransferTx(context.Background(), tx, hash, recipient, wei(0.5)); !errors.Is(err, ErrTxNotFound) {
			t.Errorf("got %v, want ErrTxNotFound", err)
		}
	})
}

func TestEvmVerifyNotFound(t *testing.T) {
	a := &EvmAdapter{primary: &fakeEvmRPC{txErr: ethereum.NotFound}, log: zap.NewNop()}
	err := a.VerifyTransfer(context.Background(), "0xdead", "0x1111111111111111111111111111111111111111", 0.5)
	if !errors.Is(err, ErrTxNotFound) {
		t.Errorf("got %v, want ErrTxNotFound", err)
	}
}

func TestEvmVerifyPending(t *testing.T) {
	recipient := common.HexToAddress("0x1111111111111111111111111111111111111111")
	tx := transferEvmTx(recipient, wei(0.5))

	a := &EvmAdapter{primary: &fakeEvmRPC{tx: tx, txPending: true}, log: zap.NewNop()}
	err := a.VerifyTransfer(context.Background(), tx.Hash().Hex(), recipient.Hex(), 0.5)
	if !errors.Is(err, ErrTxNotFound) {
		t.Errorf("got %v, want ErrTxNotFound", err)
	}
}

func TestEvmBalanceFallback(t *testing.T) {
	primary := &fakeEvmRPC{balanceErr: errors.New("rpc down")}
	fallback := &fakeEvmRPC{balance: wei(1.5)}

	a := &EvmAdapter{primary: primary, fallback: fallback, log: zap.NewNop()}

	bal, err := a.GetBalance(context.Background(), "0x1111111111111111111111111111111111111111")
	if err != nil {
		t.Fatalf("expected fallback to answer, got: %v", err)
	}
	if bal != 1.5 {
		t.Errorf("balance = %v, want 1.5", bal)
	}
}

func TestEvmNotFoundSkipsFallback(t *testing.T) {
	primary := &fakeEvmRPC{txErr: ethereum.NotFound}
	fallback := &fakeEvmRPC{txErr: errors.New("should not be called")}

	a := &EvmAdapter{primary: primary, fallback: fallback, log: zap.NewNop()}

	err := a.withClients(func(c evmRPC) error {
		_, _, err := c.TransactionByHash(context.Background(), common.Hash{})
		return err
	})
	if !errors.Is(err, ethereum.NotFound) {
		t.Errorf("got %v, want ethereum.NotFound from primary", err)
	}
}
