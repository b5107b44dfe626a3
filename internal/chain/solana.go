package chain

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// solanaDustLamports absorbs float rounding between the reported amount
// and the on-chain balance delta.
const solanaDustLamports = 5_000

// solanaRPC is the slice of rpc.Client the adapter needs; narrowed so the
// fallback and verification logic is testable without a node.
type solanaRPC interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetTransaction(ctx context.Context, txSig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
}

type SolanaAdapter struct {
	primary  solanaRPC
	fallback solanaRPC // nil when no secondary endpoint is configured
	log      *zap.Logger
}

func NewSolanaAdapter(primaryURL, fallbackURL string, log *zap.Logger) *SolanaAdapter {
	a := &SolanaAdapter{
		primary: rpc.New(primaryURL),
		log:     log,
	}
	if fallbackURL != "" {
		a.fallback = rpc.New(fallbackURL)
	}
	return a
}

func (a *SolanaAdapter) Name() string { return "solana" }

func (a *SolanaAdapter) ValidateAddress(addr string) error {
	if _, err := solana.PublicKeyFromBase58(addr); err != nil {
		return fmt.Errorf("invalid solana address: %w", err)
	}
	return nil
}

func (a *SolanaAdapter) GetBalance(ctx context.Context, addr string) (float64, error) {
	pub, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return 0, fmt.Errorf("invalid solana address: %w", err)
	}

	var out *rpc.GetBalanceResult
	err = a.withClients(func(c solanaRPC) error {
		var err error
		out, err = c.GetBalance(ctx, pub, rpc.CommitmentFinalized)
		return err
	})
	if err != nil {
		return 0, err
	}
	return float64(out.Value) / float64(solana.LAMPORTS_PER_SOL), nil
}

func (a *SolanaAdapter) VerifyTransfer(ctx context.Context, txHash, to string, amount float64) error {
	sig, err := solana.SignatureFromBase58(txHash)
	if err != nil {
		return fmt.Errorf("invalid solana signature: %w", err)
	}
	recipient, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return fmt.Errorf("invalid solana address: %w", err)
	}

	maxVersion := uint64(0)
	var out *rpc.GetTransactionResult
	err = a.withClients(func(c solanaRPC) error {
		var err error
		out, err = c.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
			Encoding:                       solana.EncodingBase64,
			Commitment:                     rpc.CommitmentConfirmed,
			MaxSupportedTransactionVersion: &maxVersion,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrTxNotFound, err)
	}
	if out == nil || out.Meta == nil || out.Transaction == nil {
		return ErrTxNotFound
	}

	tx, err := out.Transaction.GetTransaction()
	if err != nil {
		return fmt.Errorf("decode transaction: %w", err)
	}

	return verifySolanaTransfer(tx, out.Meta, recipient, lamports(amount))
}

// verifySolanaTransfer checks that the recipient's balance grew by at
// least the expected lamports, using the pre/post balance arrays rather
// than decoding instructions (covers both direct and CPI transfers).
func verifySolanaTransfer(tx *solana.Transaction, meta *rpc.TransactionMeta, recipient solana.PublicKey, wantLamports uint64) error {
	if meta.Err != nil {
		return fmt.Errorf("%w: %v", ErrTxFailed, meta.Err)
	}

	idx := -1
	for i, key := range tx.Message.AccountKeys {
		if key.Equals(recipient) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: recipient not in transaction", ErrTransferMismatch)
	}
	if idx >= len(meta.PreBalances) || idx >= len(meta.PostBalances) {
		return fmt.Errorf("%w: balance data missing", ErrTransferMismatch)
	}

	pre := meta.PreBalances[idx]
	post := meta.PostBalances[idx]
	if post <= pre {
		return fmt.Errorf("%w: recipient balance did not increase", ErrTransferMismatch)
	}
	delta := post - pre
	if delta+solanaDustLamports < wantLamports {
		return fmt.Errorf("%w: received %d lamports, reported %d", ErrTransferMismatch, delta, wantLamports)
	}
	return nil
}

func (a *SolanaAdapter) SubmitTransfer(ctx context.Context, payerKey, to string, amount float64) (*SubmitResult, error) {
	key, err := solana.PrivateKeyFromBase58(payerKey)
	if err != nil {
		return nil, fmt.Errorf("invalid payer key: %w", err)
	}
	recipient, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return nil, fmt.Errorf("invalid solana address: %w", err)
	}

	sig, err := a.submitOnce(ctx, a.primary, key, recipient, lamports(amount))
	if err == nil {
		return &SubmitResult{TxHash: sig.String()}, nil
	}
	if a.fallback == nil {
		return nil, err
	}

	a.log.Warn("primary solana endpoint failed, retrying via fallback", zap.Error(err))
	sig, ferr := a.submitOnce(ctx, a.fallback, key, recipient, lamports(amount))
	if ferr != nil {
		return nil, fmt.Errorf("primary: %v; fallback: %w", err, ferr)
	}
	return &SubmitResult{TxHash: sig.String(), UsedFallback: true}, nil
}

func (a *SolanaAdapter) submitOnce(ctx context.Context, c solanaRPC, key solana.PrivateKey, recipient solana.PublicKey, amountLamports uint64) (solana.Signature, error) {
	recent, err := c.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("get blockhash: %w", err)
	}

	payer := key.PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(amountLamports, payer, recipient).Build(),
		},
		recent.Value.Blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}

	_, err = tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(payer) {
			return &key
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}

	return c.SendTransaction(ctx, tx)
}

func (a *SolanaAdapter) AwaitConfirmation(ctx context.Context, txHash string, timeout time.Duration) error {
	sig, err := solana.SignatureFromBase58(txHash)
	if err != nil {
		return fmt.Errorf("invalid solana signature: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		var out *rpc.GetSignatureStatusesResult
		err := a.withClients(func(c solanaRPC) error {
			var err error
			out, err = c.GetSignatureStatuses(ctx, true, sig)
			return err
		})
		if err == nil && out != nil && len(out.Value) > 0 && out.Value[0] != nil {
			st := out.Value[0]
			if st.Err != nil {
				return fmt.Errorf("%w: %v", ErrTxFailed, st.Err)
			}
			if st.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				st.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("confirmation timed out after %s", timeout)
		case <-ticker.C:
		}
	}
}

// withClients runs fn against the primary endpoint, then the fallback.
func (a *SolanaAdapter) withClients(fn func(solanaRPC) error) error {
	err := fn(a.primary)
	if err == nil || a.fallback == nil {
		return err
	}
	a.log.Debug("primary solana endpoint failed, trying fallback", zap.Error(err))
	return fn(a.fallback)
}

// lamports converts a SOL amount to lamports, rounding the way the
// payment page does.
func lamports(amount float64) uint64 {
	return uint64(math.Round(amount * float64(solana.LAMPORTS_PER_SOL)))
}
