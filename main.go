package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/repository"
	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/scheduler"
	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/usecase"
	"github.com/kyuwon-shim-ARL/email-agent/pkg/chroma"
	"github.com/kyuwon-shim-ARL/email-agent/pkg/config"
	"github.com/kyuwon-shim-ARL/email-agent/pkg/database"
	"github.com/kyuwon-shim-ARL/email-agent/pkg/gmail"
	"github.com/kyuwon-shim-ARL/email-agent/pkg/googleauth"
	"github.com/kyuwon-shim-ARL/email-agent/pkg/llm"
	"github.com/kyuwon-shim-ARL/email-agent/pkg/sheets"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("run failed", "err", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	// Local cache database
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}

	// Initialize repositories (dependency injection)
	styleCache := repository.NewGormStyleCache(db)
	summaryCache := repository.NewGormSummaryCache(db)
	runLog := repository.NewGormRunLog(db)

	// Google OAuth: one client covers Gmail and Sheets
	auth := googleauth.New(cfg.CredentialsFile, cfg.TokenFile, cfg.OAuthPort, logger)
	client, err := auth.Client(ctx)
	if err != nil {
		return err
	}

	mail, err := gmail.NewStore(ctx, client, logger)
	if err != nil {
		return err
	}

	tracker, err := sheets.NewTracker(ctx, client, cfg.SpreadsheetID, logger)
	if err != nil {
		return err
	}
	if err := tracker.EnsureTracker(ctx); err != nil {
		return err
	}
	if cfg.SpreadsheetID == "" {
		logger.Info("set SPREADSHEET_ID to reuse this tracker on the next run", "id", tracker.SpreadsheetID())
	}

	classifier, err := llm.NewClassifier(llm.Config{
		Provider:     llm.ProviderType(cfg.LLMProvider),
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		OpenAIModel:  cfg.OpenAIModel,
		RelayWorkDir: cfg.RelayWorkDir,
	}, logger)
	if err != nil {
		return err
	}

	// Optional style index
	var retriever usecase.StyleRetriever
	if cfg.ChromaURL != "" {
		index, err := chroma.NewStyleIndex(ctx, cfg.ChromaURL, cfg.ChromaCollection, logger)
		if err != nil {
			logger.Warn("style index unavailable, drafting without it", "err", err)
		} else {
			retriever = index
		}
	}

	styles := usecase.NewStyleLearner(classifier, styleCache, logger)
	labels := usecase.NewLabelApplier(mail, logger)
	reconciler := usecase.NewHistoryReconciler(tracker, logger)

	pipeline := usecase.NewPipeline(mail, tracker, classifier, styles, labels, reconciler,
		summaryCache, runLog, retriever, logger, usecase.Options{
			MaxEmails:       cfg.MaxEmails,
			SenderScanDepth: cfg.SenderScanDepth,
			SendSummary:     true,
		})

	// Watch mode: repeat the pass on an interval, no interactive send.
	if cfg.RunIntervalMinutes > 0 {
		runner := scheduler.NewRunner(func(ctx context.Context) error {
			report, err := pipeline.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Println(report.RenderConsole())
			return nil
		}, time.Duration(cfg.RunIntervalMinutes)*time.Minute, logger)
		runner.Start(ctx)
		return nil
	}

	report, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Println(report.RenderConsole())

	// Checkbox-driven batch send: drafts whose sheet rows were ticked.
	marked, err := tracker.DraftsMarkedForSend(ctx)
	if err != nil {
		logger.Warn("could not read marked drafts", "err", err)
		return nil
	}
	if len(marked) == 0 {
		return nil
	}

	confirm := false
	prompt := huh.NewConfirm().
		Title(fmt.Sprintf("Send %d drafts marked in the tracker?", len(marked))).
		Value(&confirm)
	if err := prompt.Run(); err != nil || !confirm {
		return nil
	}

	sent, err := pipeline.SendMarkedDrafts(ctx)
	if err != nil {
		return err
	}
	logger.Info("batch send complete", "sent", sent)
	return nil
}
