package auth

import (
	"crypto/ed25519"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"

	"github.com/authora/backend/internal/models"
)

const (
	// SignInStatement is the first line of every sign-in message; wallets
	// display it to the user before signing.
	SignInStatement = "Sign in to Authora with your wallet."

	// MaxProofAge bounds how old a signed message may be (replay window).
	MaxProofAge = 5 * time.Minute
)

// SignInProof is a client-signed sign-in attempt. The signature covers the
// exact message produced by BuildMessage for these fields, so the server
// can reconstruct and verify it without trusting anything else the client
// sent.
type SignInProof struct {
	Chain     string `json:"chain"`   // solana / ethereum
	Address   string `json:"address"` // base58 (solana) or 0x-hex (ethereum)
	Email     string `json:"email"`
	Nonce     string `json:"nonce"`
	Domain    string `json:"domain"`
	Timestamp int64  `json:"timestamp"` // unix seconds
	Signature string `json:"signature"` // base58 (solana) or 0x-hex (ethereum)
}

// BuildMessage renders the canonical sign-in message. Line order and
// formatting are part of the protocol; clients must sign it byte-for-byte.
func BuildMessage(domain, email, address, nonce string, timestamp int64) string {
	var b strings.Builder
	b.WriteString(domain)
	b.WriteString(" — ")
	b.WriteString(SignInStatement)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Address: %s\n", address)
	fmt.Fprintf(&b, "Email: %s\n", email)
	fmt.Fprintf(&b, "Nonce: %s\n", nonce)
	fmt.Fprintf(&b, "Issued At: %s", time.Unix(timestamp, 0).UTC().Format(time.RFC3339))
	return b.String()
}

// VerifySignIn checks a wallet sign-in proof: timestamp freshness, domain
// allow-list, then the chain-appropriate signature over the reconstructed
// message.
func VerifySignIn(p SignInProof, allowedDomains []string) error {
	proofTime := time.Unix(p.Timestamp, 0)
	if time.Since(proofTime) > MaxProofAge {
		return fmt.Errorf("sign-in proof expired: %s old", time.Since(proofTime).Round(time.Second))
	}
	if proofTime.After(time.Now().Add(1 * time.Minute)) {
		return fmt.Errorf("sign-in proof timestamp is in the future")
	}

	if !isDomainAllowed(p.Domain, allowedDomains) {
		return fmt.Errorf("domain %q not in allowed list", p.Domain)
	}

	msg := []byte(BuildMessage(p.Domain, p.Email, p.Address, p.Nonce, p.Timestamp))

	switch p.Chain {
	case models.ChainSolana:
		return verifySolanaSignature(p.Address, p.Signature, msg)
	case models.ChainEthereum:
		return verifyEthereumSignature(p.Address, p.Signature, msg)
	default:
		return fmt.Errorf("unsupported chain %q", p.Chain)
	}
}

// verifySolanaSignature checks an ed25519 signature over msg. A Solana
// address is the base58-encoded ed25519 public key itself.
func verifySolanaSignature(address, signature string, msg []byte) error {
	pub, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return fmt.Errorf("invalid solana address: %w", err)
	}

	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return fmt.Errorf("invalid solana signature: %w", err)
	}

	if !ed25519.Verify(ed25519.PublicKey(pub.Bytes()), msg, sig[:]) {
		return fmt.Errorf("invalid signature")
	}
	return nil
}

// verifyEthereumSignature recovers the signer of an EIP-191 personal_sign
// signature and compares it to the claimed address.
func verifyEthereumSignature(address, signature string, msg []byte) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid ethereum address: %s", address)
	}

	sig, err := hexutil.Decode(signature)
	if err != nil {
		return fmt.Errorf("invalid ethereum signature hex: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("invalid ethereum signature size: %d", len(sig))
	}

	// Wallets return V as 27/28; go-ethereum expects 0/1.
	recSig := make([]byte, crypto.SignatureLength)
	copy(recSig, sig)
	if recSig[crypto.RecoveryIDOffset] >= 27 {
		recSig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash(msg), recSig)
	if err != nil {
		return fmt.Errorf("signature recovery failed: %w", err)
	}

	recovered := crypto.PubkeyToAddress(*pub)
	if recovered != common.HexToAddress(address) {
		return fmt.Errorf("signature does not match address")
	}
	return nil
}

func isDomainAllowed(domain string, allowed []string) bool {
	if len(allowed) == 0 {
		return true // empty list allows everything (dev mode)
	}
	for _, d := range allowed {
		if d == domain {
			return true
		}
	}
	return false
}
