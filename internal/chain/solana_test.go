package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

type fakeSolanaRPC struct {
	balance      uint64
	balanceErr   error
	sendSig      solana.Signature
	sendErr      error
	sendCalls    int
	blockhashErr error
}

func (f *fakeSolanaRPC) GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return &rpc.GetBalanceResult{Value: f.balance}, nil
}

func (f *fakeSolanaRPC) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	if f.blockhashErr != nil {
		return nil, f.blockhashErr
	}
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{Blockhash: solana.Hash{}},
	}, nil
}

func (f *fakeSolanaRPC) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	f.sendCalls++
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	return f.sendSig, nil
}

func (f *fakeSolanaRPC) GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	return &rpc.GetSignatureStatusesResult{}, nil
}

func (f *fakeSolanaRPC) GetTransaction(ctx context.Context, sig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
	return nil, errors.New("not implemented")
}

func TestLamports(t *testing.T) {
	tests := []struct {
		amount   float64
		expected uint64
	}{
		{1, 1_000_000_000},
		{0.5, 500_000_000},
		{0.000000001, 1},
		{2.123456789, 2_123_456_789},
		{0, 0},
	}

	for _, tt := range tests {
		if got := lamports(tt.amount); got != tt.expected {
			t.Errorf("lamports(%v) = %d, want %d", tt.amount, got, tt.expected)
		}
	}
}

func transferTestTx(t *testing.T, payer, recipient solana.PublicKey, amountLamports uint64) *solana.Transaction {
	t.Helper()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(amountLamports, payer, recipient).Build(),
		},
		solana.Hash{},
		solana.TransactionPayer(payer),
	)
	if err != nil {
		t.Fatal(err)
	}
	return tx
}

func TestVerifySolanaTransfer(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	recipient := solana.NewWallet().PublicKey()
	stranger := solana.NewWallet().PublicKey()

	tx := transferTestTx(t, payer, recipient, 500_000_000)

	// Account keys: payer, recipient, system program.
	meta := &rpc.TransactionMeta{
		Fee:          5_000,
		PreBalances:  []uint64{1_000_000_000, 100, 1},
		PostBalances: []uint64{499_995_000 - 100, 500_000_100, 1},
	}

	if err := verifySolanaTransfer(tx, meta, recipient, lamports(0.5)); err != nil {
		t.Fatalf("expected valid transfer, got: %v", err)
	}

	// Recipient not in the transaction.
	if err := verifySolanaTransfer(tx, meta, stranger, lamports(0.5)); !errors.Is(err, ErrTransferMismatch) {
		t.Errorf("stranger recipient: got %v, want ErrTransferMismatch", err)
	}

	// Reported amount larger than the actual delta.
	if err := verifySolanaTransfer(tx, meta, recipient, lamports(2)); !errors.Is(err, ErrTransferMismatch) {
		t.Errorf("inflated amount: got %v, want ErrTransferMismatch", err)
	}

	// Failed transaction.
	failed := &rpc.TransactionMeta{
		Err:          map[string]any{"InstructionError": []any{}},
		PreBalances:  meta.PreBalances,
		PostBalances: meta.PreBalances,
	}
	if err := verifySolanaTransfer(tx, failed, recipient, lamports(0.5)); !errors.Is(err, ErrTxFailed) {
		t.Errorf("failed tx: got %v, want ErrTxFailed", err)
	}

	// No balance movement.
	flat := &rpc.TransactionMeta{
		PreBalances:  []uint64{100, 100, 1},
		PostBalances: []uint64{95, 100, 1},
	}
	if err := verifySolanaTransfer(tx, flat, recipient, lamports(0.5)); !errors.Is(err, ErrTransferMismatch) {
		t.Errorf("flat balances: got %v, want ErrTransferMismatch", err)
	}
}

func TestSolanaBalanceFallback(t *testing.T) {
	primary := &fakeSolanaRPC{balanceErr: errors.New("rpc down")}
	fallback := &fakeSolanaRPC{balance: 3_000_000_000}

	a := &SolanaAdapter{primary: primary, fallback: fallback, log: zap.NewNop()}

	addr := solana.NewWallet().PublicKey().String()
	bal, err := a.GetBalance(context.Background(), addr)
	if err != nil {
		t.Fatalf("expected fallback to answer, got: %v", err)
	}
	if bal != 3.0 {
		t.Errorf("balance = %v, want 3.0", bal)
	}
}

func TestSolanaBalanceNoFallback(t *testing.T) {
	primary := &fakeSolanaRPC{balanceErr: errors.New("rpc down")}
	a := &SolanaAdapter{primary: primary, log: zap.NewNop()}

	addr := solana.NewWallet().PublicKey().String()
	if _, err := a.GetBalance(context.Background(), addr); err == nil {
		t.Fatal("expected error with no fallback configured")
	}
}

func TestSolanaSubmitFallback(t *testing.T) {
	payer := solana.NewWallet()
	recipient := solana.NewWallet().PublicKey().String()

	primary := &fakeSolanaRPC{sendErr: errors.New("node unavailable")}
	fallback := &fakeSolanaRPC{}

	a := &SolanaAdapter{primary: primary, fallback: fallback, log: zap.NewNop()}

	res, err := a.SubmitTransfer(context.Background(), payer.PrivateKey.String(), recipient, 0.25)
	if err != nil {
		t.Fatalf("expected fallback submission to succeed, got: %v", err)
	}
	if !res.UsedFallback {
		t.Error("expected UsedFallback to be reported")
	}
	if primary.sendCalls != 1 || fallback.sendCalls != 1 {
		t.Errorf("send calls: primary=%d fallback=%d, want 1/1", primary.sendCalls, fallback.sendCalls)
	}
}

func TestSolanaSubmitPrimarySuccess(t *testing.T) {
	payer := solana.NewWallet()
	recipient := solana.NewWallet().PublicKey().String()

	primary := &fakeSolanaRPC{}
	fallback := &fakeSolanaRPC{}

	a := &SolanaAdapter{primary: primary, fallback: fallback, log: zap.NewNop()}

	res, err := a.SubmitTransfer(context.Background(), payer.PrivateKey.String(), recipient, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	if res.UsedFallback {
		t.Error("fallback should not be used when primary succeeds")
	}
	if fallback.sendCalls != 0 {
		t.Errorf("fallback send calls = %d, want 0", fallback.sendCalls)
	}
}
