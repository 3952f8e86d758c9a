// Package cmd defines the CLI commands for the newsdigest executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smartcampus/newsdigest/internal/clock/system"
	"github.com/smartcampus/newsdigest/internal/config"
	"github.com/smartcampus/newsdigest/internal/crawl"
	"github.com/smartcampus/newsdigest/internal/daily"
	"github.com/smartcampus/newsdigest/internal/gen"
	"github.com/smartcampus/newsdigest/internal/logging"
	"github.com/smartcampus/newsdigest/internal/qa"
	"github.com/smartcampus/newsdigest/internal/store"
)

var cfgFile string

// services is everything a subcommand needs after wiring.
type services struct {
	cfg    config.Config
	logger *zap.Logger
	daily  *daily.Service
	qa     *qa.Service
}

// buildServices loads config and constructs the full collaborator graph.
func buildServices() (*services, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	newsStore, err := store.NewNewsStore(cfg.Store.NewsDir, logger.Named("store"))
	if err != nil {
		return nil, err
	}
	reportStore, err := store.NewReportStore(cfg.Store.ReportDir, logger.Named("store"))
	if err != nil {
		return nil, err
	}

	archive := store.NewUnifiedStore(cfg.Store.UnifiedPath, logger.Named("store"))

	clock := system.New()
	crawler := crawl.New(crawl.Config{
		BaseURL:   cfg.Crawler.BaseURL,
		Sections:  cfg.Crawler.Sections,
		MaxDepth:  cfg.Crawler.MaxDepth,
		Timeout:   cfg.Crawler.Timeout(),
		UserAgent: cfg.Crawler.UserAgent,
	}, clock, logger.Named("crawl"))
	generator := gen.NewClient(gen.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout(),
	}, logger.Named("gen"))

	return &services{
		cfg:    cfg,
		logger: logger,
		daily:  daily.NewService(crawler, newsStore, reportStore, archive, generator, clock, logger.Named("daily")),
		qa:     qa.NewService(reportStore, generator, clock, logger.Named("qa")),
	}, nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newsdigest",
		Short: "Campus announcement crawler and daily digest service",
		Long: `newsdigest crawls the campus academic affairs site for announcements,
stores them as dated JSON files, and generates student and teacher
digests through an OpenAI-compatible backend.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDailyCmd())
	cmd.AddCommand(newWeeklyCmd())
	cmd.AddCommand(newAskCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
