package models

import (
	"time"

	"github.com/google/uuid"
)

// Supported chains
const (
	ChainSolana   = "solana"
	ChainEthereum = "ethereum"
)

func IsValidChain(chain string) bool {
	return chain == ChainSolana || chain == ChainEthereum
}

// WalletEntry maps (user, chain) to the receiving address payers send to.
// One entry per pair; upsert overwrites the address.
type WalletEntry struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Chain       string    `json:"chain"`
	Address     string    `json:"address"`
	Verified    bool      `json:"verified"`
	ConnectedAt time.Time `json:"connected_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AuthChallenge is a single-use sign-in nonce.
type AuthChallenge struct {
	ID        uuid.UUID `json:"id"`
	Nonce     string    `json:"nonce"`
	Email     string    `json:"-"`
	Used      bool      `json:"-"`
	CreatedAt time.Time `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
