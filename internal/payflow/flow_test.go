package payflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/authora/backend/internal/chain"
)

type fakeAdapter struct {
	name         string
	balance      float64
	balanceErr   error
	submitRes    *chain.SubmitResult
	submitErr    error
	confirmErr   error
	submitCalls  int
	confirmCalls int
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) ValidateAddress(addr string) error { return nil }

func (a *fakeAdapter) GetBalance(ctx context.Context, addr string) (float64, error) {
	return a.balance, a.balanceErr
}

func (a *fakeAdapter) VerifyTransfer(ctx context.Context, txHash, to string, amount float64) error {
	return nil
}

func (a *fakeAdapter) SubmitTransfer(ctx context.Context, payerKey, to string, amount float64) (*chain.SubmitResult, error) {
	a.submitCalls++
	return a.submitRes, a.submitErr
}

func (a *fakeAdapter) AwaitConfirmation(ctx context.Context, txHash string, timeout time.Duration) error {
	a.confirmCalls++
	return a.confirmErr
}

type fakeResolver struct {
	addr string
	err  error
}

func (r *fakeResolver) ResolveAddress(ctx context.Context, chainName string) (string, error) {
	return r.addr, r.err
}

type fakeRecorder struct {
	amount float64
	txHash string
	err    error
	calls  int
}

func (r *fakeRecorder) RecordPayment(ctx context.Context, amount float64, currency, txHash string) error {
	r.calls++
	r.amount = amount
	r.txHash = txHash
	return r.err
}

func testParams(adapter *fakeAdapter, recorder *fakeRecorder) Params {
	return Params{
		Adapter:        adapter,
		Resolver:       &fakeResolver{addr: solana.NewWallet().PublicKey().String()},
		Recorder:       recorder,
		PayerKey:       solana.NewWallet().PrivateKey.String(),
		Amount:         0.5,
		Currency:       "SOL",
		ConfirmTimeout: time.Second,
	}
}

func TestFlowHappyPath(t *testing.T) {
	adapter := &fakeAdapter{
		name:      "solana",
		balance:   2,
		submitRes: &chain.SubmitResult{TxHash: "sig123"},
	}
	recorder := &fakeRecorder{}

	f := New(testParams(adapter, recorder), zap.NewNop())
	res, err := f.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.TxHash != "sig123" {
		t.Errorf("tx hash = %q", res.TxHash)
	}
	if res.Amount != 0.5 {
		t.Errorf("amount = %v", res.Amount)
	}
	if recorder.calls != 1 || recorder.txHash != "sig123" {
		t.Errorf("recorder calls=%d txHash=%q", recorder.calls, recorder.txHash)
	}
	if f.State() != StateDone {
		t.Errorf("final state = %s", f.State())
	}
}

func TestFlowUsesSuggestedAmount(t *testing.T) {
	adapter := &fakeAdapter{
		name:      "solana",
		balance:   2,
		submitRes: &chain.SubmitResult{TxHash: "sig"},
	}
	recorder := &fakeRecorder{}

	params := testParams(adapter, recorder)
	params.Amount = 0
	suggested := 1.25
	params.SuggestedAmount = &suggested

	res, err := New(params, zap.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Amount != 1.25 {
		t.Errorf("amount = %v, want suggested 1.25", res.Amount)
	}
}

func TestFlowNoAmount(t *testing.T) {
	adapter := &fakeAdapter{name: "solana", balance: 2}
	params := testParams(adapter, &fakeRecorder{})
	params.Amount = 0

	_, err := New(params, zap.NewNop()).Run(context.Background())
	if !errors.Is(err, ErrNoAmount) {
		t.Errorf("got %v, want ErrNoAmount", err)
	}
	if adapter.submitCalls != 0 {
		t.Error("no transfer should be submitted without an amount")
	}
}

func TestFlowInsufficientBalance(t *testing.T) {
	adapter := &fakeAdapter{name: "solana", balance: 0.1}
	params := testParams(adapter, &fakeRecorder{})

	_, err := New(params, zap.NewNop()).Run(context.Background())
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("got %v, want ErrInsufficientBalance", err)
	}
	if adapter.submitCalls != 0 {
		t.Error("no transfer should be submitted with insufficient balance")
	}
}

func TestFlowSubmitFailureAborts(t *testing.T) {
	adapter := &fakeAdapter{
		name:      "solana",
		balance:   2,
		submitErr: errors.New("all endpoints down"),
	}
	recorder := &fakeRecorder{}

	_, err := New(testParams(adapter, recorder), zap.NewNop()).Run(context.Background())
	if err == nil {
		t.Fatal("expected submit failure to abort the flow")
	}
	if adapter.submitCalls != 1 {
		t.Errorf("submit calls = %d, want 1 (no automatic resubmission)", adapter.submitCalls)
	}
	if recorder.calls != 0 {
		t.Error("failed submission must not be recorded")
	}
}

func TestFlowConfirmationFailureSkipsRecord(t *testing.T) {
	adapter := &fakeAdapter{
		name:       "solana",
		balance:    2,
		submitRes:  &chain.SubmitResult{TxHash: "sig"},
		confirmErr: errors.New("confirmation timed out"),
	}
	recorder := &fakeRecorder{}

	_, err := New(testParams(adapter, recorder), zap.NewNop()).Run(context.Background())
	if err == nil {
		t.Fatal("expected confirmation failure to abort the flow")
	}
	if recorder.calls != 0 {
		t.Error("unconfirmed payment must not be recorded")
	}
}

func TestFlowRecordFailureKeepsResult(t *testing.T) {
	adapter := &fakeAdapter{
		name:      "solana",
		balance:   2,
		submitRes: &chain.SubmitResult{TxHash: "sig456", UsedFallback: true},
	}
	recorder := &fakeRecorder{err: errors.New("api returned 500")}

	f := New(testParams(adapter, recorder), zap.NewNop())
	res, err := f.Run(context.Background())
	if err == nil {
		t.Fatal("expected recorder failure to surface")
	}
	if res == nil {
		t.Fatal("confirmed transfer must still be returned to the caller")
	}
	if res.TxHash != "sig456" || !res.UsedFallback {
		t.Errorf("result = %+v, want the submitted transfer's hash and fallback flag", res)
	}
	if f.State() != StateRecord {
		t.Errorf("state = %s, want %s", f.State(), StateRecord)
	}
}

func TestFlowStateProgression(t *testing.T) {
	adapter := &fakeAdapter{
		name:      "solana",
		balance:   2,
		submitRes: &chain.SubmitResult{TxHash: "sig"},
	}
	f := New(testParams(adapter, &fakeRecorder{}), zap.NewNop())

	want := []string{
		StateResolveAddress, StateResolveAmount, StateBalanceCheck,
		StateSubmit, StateAwaitConfirm, StateRecord,
	}
	for _, state := range want {
		if f.State() != state {
			t.Fatalf("state = %s, want %s", f.State(), state)
		}
		if err := f.Step(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if f.State() != StateDone {
		t.Errorf("final state = %s", f.State())
	}
}
