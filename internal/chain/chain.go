package chain

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrTxNotFound means the reported transaction does not exist on chain
	// (or is not visible yet at the queried commitment).
	ErrTxNotFound = errors.New("transaction not found")

	// ErrTxFailed means the transaction exists but did not succeed.
	ErrTxFailed = errors.New("transaction failed on chain")

	// ErrTransferMismatch means the transaction succeeded but does not
	// transfer the reported amount to the expected recipient.
	ErrTransferMismatch = errors.New("transfer does not match reported payment")

	// ErrUnsupportedCurrency means no adapter handles the currency label.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// SubmitResult reports a broadcast transfer. UsedFallback is surfaced to
// the payer so the UI can say the secondary endpoint was used.
type SubmitResult struct {
	TxHash       string
	UsedFallback bool
}

// Adapter abstracts one chain's native-transfer operations. Amounts are in
// the chain's display unit (SOL, ETH); adapters convert internally.
type Adapter interface {
	Name() string
	ValidateAddress(addr string) error
	GetBalance(ctx context.Context, addr string) (float64, error)
	// VerifyTransfer checks that txHash is a confirmed successful transfer
	// of at least amount to the given address.
	VerifyTransfer(ctx context.Context, txHash, to string, amount float64) error
	// SubmitTransfer signs and broadcasts a native transfer from the payer
	// key, falling back to the secondary RPC endpoint when the primary
	// submission fails.
	SubmitTransfer(ctx context.Context, payerKey, to string, amount float64) (*SubmitResult, error)
	// AwaitConfirmation blocks until the transaction is confirmed, fails,
	// or the timeout elapses.
	AwaitConfirmation(ctx context.Context, txHash string, timeout time.Duration) error
}

// currencyChains maps currency labels on payment links to chain names.
var currencyChains = map[string]string{
	"SOL": "solana",
	"ETH": "ethereum",
}

// CurrencyChain resolves a currency label to its chain name.
func CurrencyChain(currency string) (string, bool) {
	name, ok := currencyChains[strings.ToUpper(strings.TrimSpace(currency))]
	return name, ok
}

// Registry holds the configured adapters keyed by chain name.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		if a != nil {
			r.adapters[a.Name()] = a
		}
	}
	return r
}

func (r *Registry) ByName(chain string) (Adapter, bool) {
	a, ok := r.adapters[chain]
	return a, ok
}

// ByCurrency resolves the adapter for a payment currency label.
func (r *Registry) ByCurrency(currency string) (Adapter, error) {
	name, ok := CurrencyChain(currency)
	if !ok {
		return nil, ErrUnsupportedCurrency
	}
	a, ok := r.adapters[name]
	if !ok {
		return nil, ErrUnsupportedCurrency
	}
	return a, nil
}
