package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"go.uber.org/zap"

	"github.com/campuswatch/watcher/internal/adapters/driving/webhook"
	"github.com/campuswatch/watcher/internal/core/domain"
)

var serveSkipPing bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interactions webhook server",
	Long: `Starts the HTTP server that receives slash-command interactions,
answers them in the background and exposes the ingest trigger.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveSkipPing, "skip-ping", false, "skip startup reachability checks")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(cfg, log, appOptions{generation: true, runStore: true})
	if err != nil {
		return err
	}
	defer a.Close()

	publicKey, err := a.publicKey()
	if err != nil {
		return err
	}

	if !serveSkipPing {
		if err := a.embedder.Ping(ctx); err != nil {
			return fmt.Errorf("embedding service unreachable: %w", err)
		}
		if err := a.generator.Ping(ctx); err != nil {
			return fmt.Errorf("generation service unreachable: %w", err)
		}
	}

	a.dispatcher.Start(ctx)

	server := webhook.NewServer(webhook.Config{
		Addr:          cfg.Server.Addr,
		PublicKey:     publicKey,
		ApplicationID: cfg.Discord.ApplicationID,
		CommandName:   cfg.Discord.CommandName,
		TriggerSecret: cfg.Server.TriggerSecret,
		AnswerTimeout: a.answerTimeout(),
	}, a.answerer, a.ingest, a.dispatcher, a.delivery, log)

	if err := server.Start(); err != nil {
		return err
	}

	if cfg.Ingest.WatchHandbook && cfg.Ingest.HandbookPath != "" {
		if err := watchHandbook(ctx, a); err != nil {
			log.Warn("handbook watch unavailable", zap.Error(err))
		}
	}

	log.Info("the watcher is observing", zap.String("addr", server.Addr()))
	<-ctx.Done()

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// watchHandbook re-ingests the handbook whenever the file changes.
func watchHandbook(ctx context.Context, a *app) error {
	changes, err := a.handbook.Watch(ctx)
	if err != nil {
		return err
	}

	go func() {
		for range changes {
			log.Info("handbook changed, re-ingesting")
			_, err := a.ingest.Ingest(ctx, domain.IngestOptions{Handbook: true})
			if err != nil && !errors.Is(err, domain.ErrIngestInProgress) {
				log.Error("handbook re-ingest failed", zap.Error(err))
			}
		}
	}()
	return nil
}
