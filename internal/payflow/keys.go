package payflow

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"

	"github.com/authora/backend/internal/models"
)

// payerAddress derives the payer's public address from their key so the
// balance check queries the right account.
func payerAddress(chainName, payerKey string) (string, error) {
	switch chainName {
	case models.ChainSolana:
		key, err := solana.PrivateKeyFromBase58(payerKey)
		if err != nil {
			return "", fmt.Errorf("invalid payer key: %w", err)
		}
		return key.PublicKey().String(), nil
	case models.ChainEthereum:
		key, err := crypto.HexToECDSA(strings.TrimPrefix(payerKey, "0x"))
		if err != nil {
			return "", fmt.Errorf("invalid payer key: %w", err)
		}
		return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
	}
	return "", fmt.Errorf("unsupported chain %q", chainName)
}
