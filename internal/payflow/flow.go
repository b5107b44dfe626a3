package payflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/authora/backend/internal/chain"
)

// States of the payment submission flow, in order.
const (
	StateResolveAddress = "resolve_address"
	StateResolveAmount  = "resolve_amount"
	StateBalanceCheck   = "balance_check"
	StateSubmit         = "submit"
	StateAwaitConfirm   = "await_confirmation"
	StateRecord         = "record"
	StateDone           = "done"
)

var (
	ErrNoAmount            = errors.New("link has no suggested amount and none was provided")
	ErrInsufficientBalance = errors.New("payer balance does not cover the amount")
)

// AddressResolver looks up the creator's receiving address for a chain.
// The CLI implements it against the public wallet endpoint.
type AddressResolver interface {
	ResolveAddress(ctx context.Context, chainName string) (string, error)
}

// Recorder reports the landed payment so the link is credited.
type Recorder interface {
	RecordPayment(ctx context.Context, amount float64, currency, txHash string) error
}

// Params configures one flow run. Amount may be zero when the link
// carries a suggested amount.
type Params struct {
	Adapter         chain.Adapter
	Resolver        AddressResolver
	Recorder        Recorder
	PayerKey        string
	Amount          float64
	SuggestedAmount *float64
	Currency        string
	ConfirmTimeout  time.Duration
}

// Result reports a completed flow.
type Result struct {
	TxHash       string
	Amount       float64
	Recipient    string
	UsedFallback bool
}

// Flow walks the payment submission states one transition per step. Any
// state error aborts the run; there is no automatic resubmission of a
// failed transfer.
type Flow struct {
	params Params
	log    *zap.Logger

	state     string
	recipient string
	amount    float64
	submit    *chain.SubmitResult
}

func New(params Params, log *zap.Logger) *Flow {
	return &Flow{params: params, log: log, state: StateResolveAddress}
}

func (f *Flow) State() string { return f.state }

// Run drives the flow to completion. Once the transfer has been
// submitted the Result is returned even when a later state errors: the
// money has already moved, so the caller still gets the tx hash
// alongside the failure.
func (f *Flow) Run(ctx context.Context) (*Result, error) {
	for f.state != StateDone {
		if err := f.Step(ctx); err != nil {
			return f.result(), fmt.Errorf("%s: %w", f.state, err)
		}
	}
	return f.result(), nil
}

// result is non-nil from the moment the transfer was broadcast.
func (f *Flow) result() *Result {
	if f.submit == nil {
		return nil
	}
	return &Result{
		TxHash:       f.submit.TxHash,
		Amount:       f.amount,
		Recipient:    f.recipient,
		UsedFallback: f.submit.UsedFallback,
	}
}

// Step executes the current state and advances on success.
func (f *Flow) Step(ctx context.Context) error {
	switch f.state {
	case StateResolveAddress:
		addr, err := f.params.Resolver.ResolveAddress(ctx, f.params.Adapter.Name())
		if err != nil {
			return err
		}
		if err := f.params.Adapter.ValidateAddress(addr); err != nil {
			return err
		}
		f.recipient = addr
		f.state = StateResolveAmount

	case StateResolveAmount:
		amount := f.params.Amount
		if amount <= 0 && f.params.SuggestedAmount != nil {
			amount = *f.params.SuggestedAmount
		}
		if amount <= 0 {
			return ErrNoAmount
		}
		f.amount = amount
		f.state = StateBalanceCheck

	case StateBalanceCheck:
		payer, err := payerAddress(f.params.Adapter.Name(), f.params.PayerKey)
		if err != nil {
			return err
		}
		balance, err := f.params.Adapter.GetBalance(ctx, payer)
		if err != nil {
			return err
		}
		if balance < f.amount {
			return fmt.Errorf("%w: have %.6f, need %.6f", ErrInsufficientBalance, balance, f.amount)
		}
		f.state = StateSubmit

	case StateSubmit:
		res, err := f.params.Adapter.SubmitTransfer(ctx, f.params.PayerKey, f.recipient, f.amount)
		if err != nil {
			return err
		}
		if res.UsedFallback {
			f.log.Warn("transfer submitted via fallback endpoint", zap.String("tx_hash", res.TxHash))
		}
		f.submit = res
		f.state = StateAwaitConfirm

	case StateAwaitConfirm:
		if err := f.params.Adapter.AwaitConfirmation(ctx, f.submit.TxHash, f.params.ConfirmTimeout); err != nil {
			return err
		}
		f.state = StateRecord

	case StateRecord:
		if err := f.params.Recorder.RecordPayment(ctx, f.amount, f.params.Currency, f.submit.TxHash); err != nil {
			return err
		}
		f.state = StateDone

	default:
		return fmt.Errorf("unknown state %q", f.state)
	}
	return nil
}
