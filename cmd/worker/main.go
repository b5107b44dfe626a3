package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/authora/backend/internal/config"
	"github.com/authora/backend/internal/db"
	"github.com/authora/backend/internal/linkmeta"
	"github.com/authora/backend/internal/mailer"
	"github.com/authora/backend/internal/repositories"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	outboxRepo := repositories.NewOutboxRepo(pool)
	linkRepo := repositories.NewLinkRepo(pool)
	walletRepo := repositories.NewWalletRepo(pool)

	smtpMailer := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPSender, log)
	fetcher := linkmeta.NewFetcher(cfg.PreviewFetchTimeout, cfg.PreviewFetchRetries, log)

	log.Info("worker started")

	outboxTicker := time.NewTicker(cfg.OutboxInterval)
	previewTicker := time.NewTicker(cfg.PreviewInterval)
	cleanupTicker := time.NewTicker(1 * time.Hour)
	defer outboxTicker.Stop()
	defer previewTicker.Stop()
	defer cleanupTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-outboxTicker.C:
			runOutboxDispatch(ctx, outboxRepo, smtpMailer, log)
		case <-previewTicker.C:
			runPreviewFetch(ctx, linkRepo, fetcher, log)
		case <-cleanupTicker.C:
			runChallengeCleanup(ctx, walletRepo, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runOutboxDispatch(ctx context.Context, outboxRepo *repositories.OutboxRepo, m *mailer.Mailer, log *zap.Logger) {
	pending, err := outboxRepo.FetchPending(ctx, 20)
	if err != nil {
		log.Error("failed to fetch pending outbox rows", zap.Error(err))
		return
	}

	for _, msg := range pending {
		if err := m.Send(msg.Recipient, msg.Subject, msg.Body); err != nil {
			log.Warn("outbox send failed",
				zap.String("outbox_id", msg.ID.String()),
				zap.Int("attempts", msg.Attempts+1),
				zap.Error(err),
			)
			if err := outboxRepo.MarkFailed(ctx, msg.ID, err.Error()); err != nil {
				log.Error("failed to mark outbox row", zap.Error(err))
			}
			continue
		}
		if err := outboxRepo.MarkSent(ctx, msg.ID); err != nil {
			log.Error("failed to mark outbox row sent", zap.Error(err))
		}
	}
}

func runPreviewFetch(ctx context.Context, linkRepo *repositories.LinkRepo, fetcher *linkmeta.Fetcher, log *zap.Logger) {
	links, err := linkRepo.ListMissingPreview(ctx, 10)
	if err != nil {
		log.Error("failed to list links missing previews", zap.Error(err))
		return
	}

	for _, link := range links {
		if link.Website == nil {
			continue
		}
		preview, err := fetcher.Fetch(ctx, *link.Website)
		if err != nil {
			log.Info("preview fetch failed",
				zap.String("link_id", link.ID.String()),
				zap.String("website", *link.Website),
				zap.Error(err),
			)
			// Leave the row for the next pass; a dead site just never
			// gets a preview.
			continue
		}
		if err := linkRepo.SetPreview(ctx, link.ID, preview.Title, preview.Description); err != nil {
			log.Error("failed to store preview", zap.Error(err))
		}
	}
}

func runChallengeCleanup(ctx context.Context, walletRepo *repositories.WalletRepo, log *zap.Logger) {
	n, err := walletRepo.DeleteExpiredChallenges(ctx)
	if err != nil {
		log.Error("challenge cleanup failed", zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("expired sign-in challenges removed", zap.Int64("count", n))
	}
}
