package auth

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/authora/backend/internal/models"
)

func solanaProof(t *testing.T, mutate func(*SignInProof)) SignInProof {
	t.Helper()

	w := solana.NewWallet()
	p := SignInProof{
		Chain:     models.ChainSolana,
		Address:   w.PublicKey().String(),
		Email:     "creator@example.com",
		Nonce:     "test-nonce-12345",
		Domain:    "authora.xyz",
		Timestamp: time.Now().Unix(),
	}
	if mutate != nil {
		mutate(&p)
	}

	msg := BuildMessage(p.Domain, p.Email, p.Address, p.Nonce, p.Timestamp)
	sig, err := w.PrivateKey.Sign([]byte(msg))
	if err != nil {
		t.Fatal(err)
	}
	p.Signature = sig.String()
	return p
}

func TestVerifySignIn_SolanaValid(t *testing.T) {
	p := solanaProof(t, nil)
	if err := VerifySignIn(p, []string{"authora.xyz"}); err != nil {
		t.Fatalf("expected valid proof, got error: %v", err)
	}
}

func TestVerifySignIn_SolanaTamperedEmail(t *testing.T) {
	p := solanaProof(t, nil)
	p.Email = "attacker@example.com"
	if err := VerifySignIn(p, nil); err == nil {
		t.Fatal("expected error for tampered email")
	}
}

func TestVerifySignIn_Expired(t *testing.T) {
	p := solanaProof(t, func(p *SignInProof) {
		p.Timestamp = time.Now().Add(-10 * time.Minute).Unix()
	})
	if err := VerifySignIn(p, nil); err == nil {
		t.Fatal("expected error for expired proof")
	}
}

func TestVerifySignIn_FutureTimestamp(t *testing.T) {
	p := solanaProof(t, func(p *SignInProof) {
		p.Timestamp = time.Now().Add(10 * time.Minute).Unix()
	})
	if err := VerifySignIn(p, nil); err == nil {
		t.Fatal("expected error for future timestamp")
	}
}

func TestVerifySignIn_WrongDomain(t *testing.T) {
	p := solanaProof(t, func(p *SignInProof) {
		p.Domain = "evil.com"
	})
	if err := VerifySignIn(p, []string{"authora.xyz"}); err == nil {
		t.Fatal("expected error for disallowed domain")
	}
}

func TestVerifySignIn_UnsupportedChain(t *testing.T) {
	p := solanaProof(t, nil)
	p.Chain = "ton"
	if err := VerifySignIn(p, nil); err == nil {
		t.Fatal("expected error for unsupported chain")
	}
}

func TestVerifySignIn_EthereumValid(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	addr := crypto.PubkeyToAddress(key.PublicKey).Hex()

	p := SignInProof{
		Chain:     models.ChainEthereum,
		Address:   addr,
		Email:     "creator@example.com",
		Nonce:     "test-nonce-67890",
		Domain:    "authora.xyz",
		Timestamp: time.Now().Unix(),
	}

	msg := BuildMessage(p.Domain, p.Email, p.Address, p.Nonce, p.Timestamp)
	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), key)
	if err != nil {
		t.Fatal(err)
	}
	// Wallets report V as 27/28.
	sig[crypto.RecoveryIDOffset] += 27
	p.Signature = hexutil.Encode(sig)

	if err := VerifySignIn(p, []string{"authora.xyz"}); err != nil {
		t.Fatalf("expected valid proof, got error: %v", err)
	}
}

func TestVerifySignIn_EthereumWrongSigner(t *testing.T) {
	key, _ := crypto.GenerateKey()
	other, _ := crypto.GenerateKey()
	addr := crypto.PubkeyToAddress(other.PublicKey).Hex()

	p := SignInProof{
		Chain:     models.ChainEthereum,
		Address:   addr,
		Email:     "creator@example.com",
		Nonce:     "nonce",
		Domain:    "authora.xyz",
		Timestamp: time.Now().Unix(),
	}

	msg := BuildMessage(p.Domain, p.Email, p.Address, p.Nonce, p.Timestamp)
	sig, _ := crypto.Sign(accounts.TextHash([]byte(msg)), key)
	sig[crypto.RecoveryIDOffset] += 27
	p.Signature = hexutil.Encode(sig)

	if err := VerifySignIn(p, nil); err == nil {
		t.Fatal("expected error when signer does not match claimed address")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := GenerateJWT("secret", userID, "creator@example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ParseJWT("secret", token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != userID {
		t.Errorf("user id = %s, want %s", claims.UserID, userID)
	}
	if claims.Email != "creator@example.com" {
		t.Errorf("email = %s", claims.Email)
	}

	if _, err := ParseJWT("wrong-secret", token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}
