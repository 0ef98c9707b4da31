package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reddit-weekly/internal/middleware/logger"
	"reddit-weekly/internal/reddit_weekly/collector"
	"reddit-weekly/internal/reddit_weekly/helper"
	"reddit-weekly/internal/reddit_weekly/pipeline"
	"reddit-weekly/internal/reddit_weekly/publisher"
	"reddit-weekly/pkg/config"
)

var (
	cfgFile   string
	debug     bool
	subreddit string
	sheetName string

	rootCmd = &cobra.Command{
		Use:           "reddit-weekly",
		Short:         "Publish weekly subreddit analytics to a spreadsheet",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runOnce,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&subreddit, "subreddit", "", "community to analyze (overrides SUBREDDIT_NAME)")
	rootCmd.PersistentFlags().StringVar(&sheetName, "sheet", "", "destination document name (overrides GOOGLE_SHEET_NAME)")

	rootCmd.AddCommand(runCmd, serveCmd, &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(*cobra.Command, []string) {
			fmt.Printf("reddit-weekly %s\n", version)
		},
	})
}

// app holds everything one process needs. stores is nil when history is off.
type app struct {
	log    *zap.Logger
	cfg    *config.Config
	runner *pipeline.Runner
	stores *helper.Stores
}

func (a *app) close() {
	if a.stores != nil {
		if err := a.stores.Close(context.Background()); err != nil {
			a.log.Warn("Failed to disconnect mongo", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

func loadConfig() (*config.Config, error) {
	path, required := cfgFile, true
	if path == "" {
		path, required = config.DefaultPath, false
	}

	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}
	if subreddit != "" {
		cfg.Reddit.Subreddit = subreddit
	}
	if sheetName != "" {
		cfg.Sheets.Name = sheetName
	}
	if debug {
		cfg.Log.Debug = true
	}
	return cfg, nil
}

// setup loads and validates configuration, then wires the pipeline.
func setup(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Debug)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", zap.Error(err))
		return nil, err
	}

	a := &app{log: log, cfg: cfg}

	// 1. reader
	log.Info("Connecting to Reddit API...")
	client := collector.NewRedditClient(ctx, log, collector.RedditOptions{
		ClientID:     cfg.Reddit.ClientID,
		ClientSecret: cfg.Reddit.ClientSecret,
		UserAgent:    cfg.Reddit.UserAgent,
		Timeout:      cfg.HTTP.Timeout,
	})

	// 2. writer
	book, err := newWorkbook(ctx, log, cfg)
	if err != nil {
		log.Error("Failed to connect spreadsheet backend", zap.Error(err))
		return nil, err
	}
	pub := publisher.NewPublisher(log, book)
	pub.MaxDataRows = cfg.Publisher.MaxDataRows
	pub.Private = cfg.Sheets.Private

	a.runner = &pipeline.Runner{
		Log:       log,
		Out:       os.Stdout,
		Collector: collector.NewCollector(log, client),
		Publisher: pub,
		Options: pipeline.Options{
			Community:   cfg.Reddit.Subreddit,
			Destination: cfg.Sheets.Name,
			WindowDays:  cfg.Reddit.WindowDays,
			MaxScan:     cfg.Reddit.MaxScan,
		},
	}

	// 3. optional history
	if cfg.HistoryEnabled() {
		stores, err := helper.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			log.Error("Failed to connect run history", zap.Error(err))
			return nil, err
		}
		a.stores = stores
		a.runner.History = stores
		log.Info("Run history enabled", zap.String("database", cfg.Mongo.Database))
	}

	return a, nil
}

func newWorkbook(ctx context.Context, log *zap.Logger, cfg *config.Config) (publisher.Workbook, error) {
	switch cfg.Sheets.Backend {
	case config.BackendGoogle:
		log.Info("Connecting to Google Sheets...")
		return publisher.NewGoogleWorkbook(ctx, log, []byte(cfg.Sheets.Credentials), cfg.HTTP.Timeout)
	case config.BackendXLSX:
		log.Info("Writing local workbooks", zap.String("dir", cfg.Sheets.XLSXDir))
		return publisher.NewXLSXWorkbook(log, cfg.Sheets.XLSXDir), nil
	default:
		return nil, fmt.Errorf("unknown sheets backend %q", cfg.Sheets.Backend)
	}
}
