package chain

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestCurrencyChain(t *testing.T) {
	tests := []struct {
		currency string
		chain    string
		ok       bool
	}{
		{"SOL", "solana", true},
		{"sol", "solana", true},
		{" ETH ", "ethereum", true},
		{"eth", "ethereum", true},
		{"TON", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		name, ok := CurrencyChain(tt.currency)
		if name != tt.chain || ok != tt.ok {
			t.Errorf("CurrencyChain(%q) = %q, %v; want %q, %v", tt.currency, name, ok, tt.chain, tt.ok)
		}
	}
}

func TestRegistryByCurrency(t *testing.T) {
	sol := &SolanaAdapter{primary: &fakeSolanaRPC{}, log: zap.NewNop()}
	r := NewRegistry(sol, nil)

	a, err := r.ByCurrency("SOL")
	if err != nil {
		t.Fatal(err)
	}
	if a.Name() != "solana" {
		t.Errorf("adapter = %s", a.Name())
	}

	// Registered chain map has no ethereum adapter.
	if _, err := r.ByCurrency("ETH"); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Errorf("got %v, want ErrUnsupportedCurrency", err)
	}
	if _, err := r.ByCurrency("DOGE"); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Errorf("got %v, want ErrUnsupportedCurrency", err)
	}
}
