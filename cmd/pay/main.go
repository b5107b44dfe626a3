package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/authora/backend/internal/chain"
	"github.com/authora/backend/internal/models"
	"github.com/authora/backend/internal/payflow"
)

func main() {
	var (
		apiURL      = flag.String("api", "https://authora.xyz", "API base URL")
		linkArg     = flag.String("link", "", "payment link id or full payment URL")
		amount      = flag.Float64("amount", 0, "amount to send (defaults to the link's suggested amount)")
		rpcURL      = flag.String("rpc", "", "primary RPC endpoint")
		rpcFallback = flag.String("rpc-fallback", "", "fallback RPC endpoint")
		timeout     = flag.Duration("confirm-timeout", 90*time.Second, "how long to wait for confirmation")
	)
	flag.Parse()

	log, _ := zap.NewProduction()
	defer log.Sync()

	payerKey := os.Getenv("PAYER_KEY")
	if payerKey == "" {
		fatal("PAYER_KEY environment variable is required")
	}
	if *linkArg == "" {
		fatal("-link is required")
	}

	linkID, err := parseLinkArg(*linkArg)
	if err != nil {
		fatal(err.Error())
	}

	ctx := context.Background()
	client := payflow.NewAPIClient(*apiURL, linkID, log)

	link, err := client.FetchLink(ctx)
	if err != nil {
		fatal(fmt.Sprintf("failed to load link: %v", err))
	}
	if link.Status != models.LinkStatusActive {
		fatal(fmt.Sprintf("link %q is %s and not accepting payments", link.Name, link.Status))
	}

	adapter, err := buildAdapter(link.Currency, *rpcURL, *rpcFallback, log)
	if err != nil {
		fatal(err.Error())
	}

	fmt.Printf("Paying %q (%s)\n", link.Name, link.Currency)

	flow := payflow.New(payflow.Params{
		Adapter:         adapter,
		Resolver:        client,
		Recorder:        client,
		PayerKey:        payerKey,
		Amount:          *amount,
		SuggestedAmount: link.Amount,
		Currency:        link.Currency,
		ConfirmTimeout:  *timeout,
	}, log)

	res, err := flow.Run(ctx)
	if err != nil && res == nil {
		fatal(fmt.Sprintf("payment failed: %v", err))
	}

	fmt.Printf("Sent %.6f %s to %s\n", res.Amount, link.Currency, res.Recipient)
	if res.UsedFallback {
		fmt.Println("Note: transaction was submitted via the fallback RPC endpoint.")
	}
	fmt.Printf("Transaction: %s\n", models.TruncateTxHash(res.TxHash))

	// The transfer itself went through; a failure past that point only
	// means it was not confirmed or reported yet.
	if err != nil {
		if flow.State() == payflow.StateRecord {
			fmt.Fprintf(os.Stderr, "warning: the payment could not be reported, the creator's dashboard may not show it yet: %v\n", err)
			return
		}
		fmt.Fprintf(os.Stderr, "warning: confirmation was not observed, check the transaction before retrying: %v\n", err)
		os.Exit(1)
	}
}

// parseLinkArg accepts a bare link id or a full payment page URL of the
// form {base}/payment/{userId}/{linkId}.
func parseLinkArg(arg string) (uuid.UUID, error) {
	s := strings.TrimRight(arg, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid link id %q", arg)
	}
	return id, nil
}

func buildAdapter(currency, rpcURL, fallbackURL string, log *zap.Logger) (chain.Adapter, error) {
	chainName, ok := chain.CurrencyChain(currency)
	if !ok {
		return nil, fmt.Errorf("unsupported currency %q", currency)
	}

	switch chainName {
	case models.ChainSolana:
		if rpcURL == "" {
			rpcURL = "https://api.mainnet-beta.solana.com"
		}
		return chain.NewSolanaAdapter(rpcURL, fallbackURL, log), nil
	case models.ChainEthereum:
		if rpcURL == "" {
			return nil, fmt.Errorf("-rpc is required for ethereum payments")
		}
		return chain.NewEvmAdapter(rpcURL, fallbackURL, log)
	}
	return nil, fmt.Errorf("no adapter for chain %q", chainName)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "error: "+msg)
	os.Exit(1)
}
