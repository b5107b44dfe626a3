package models

import "testing"

func TestIsValidLinkStatus(t *testing.T) {
	tests := []struct {
		status   string
		expected bool
	}{
		{LinkStatusActive, true},
		{LinkStatusPaused, true},
		{"Active", false},
		{"deleted", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := IsValidLinkStatus(tt.status); got != tt.expected {
				t.Errorf("IsValidLinkStatus(%q) = %v, want %v", tt.status, got, tt.expected)
			}
		})
	}
}

func TestPublicLinkHidesEarnings(t *testing.T) {
	amt := 5.0
	l := Link{
		Name:         "Design",
		Description:  "UI work",
		Amount:       &amt,
		Currency:     "SOL",
		Earnings:     123.45,
		Transactions: 7,
		Status:       LinkStatusActive,
	}

	pub := l.Public()
	if pub.Name != l.Name || pub.Description != l.Description {
		t.Errorf("public view lost basic fields: %+v", pub)
	}
	if pub.Amount == nil || *pub.Amount != amt {
		t.Errorf("public view amount = %v, want %v", pub.Amount, amt)
	}
	// PublicLink has no earnings fields at all; this test documents that
	// the payment page view is built from Public(), not the full record.
}

func TestTruncateTxHash(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"5UfDuX8rjBaEajVqQzSfCADgpTBXSXw2DWXLvj1NqmLrWvjW", "5UfDuX8rjB…"},
		{"abc123", "abc123"},
		{"", ""},
		{"0123456789", "0123456789"},
		{"0123456789a", "0123456789…"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := TruncateTxHash(tt.input); got != tt.expected {
				t.Errorf("TruncateTxHash(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsValidChain(t *testing.T) {
	if !IsValidChain(ChainSolana) || !IsValidChain(ChainEthereum) {
		t.Error("supported chains rejected")
	}
	for _, c := range []string{"ton", "SOLANA", ""} {
		if IsValidChain(c) {
			t.Errorf("IsValidChain(%q) = true, want false", c)
		}
	}
}
