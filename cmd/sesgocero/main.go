package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sesgocero/crawler/internal/config"
	"github.com/sesgocero/crawler/internal/engine"
	"github.com/sesgocero/crawler/internal/fetcher"
	"github.com/sesgocero/crawler/internal/observability"
	"github.com/sesgocero/crawler/internal/pipeline"
	"github.com/sesgocero/crawler/internal/source"
	"github.com/sesgocero/crawler/internal/store"
)

var (
	cfgFile     string
	verbose     bool
	concurrent  int
	delay       string
	maxArticles int
	exportPath  string
	exportType  string
	dryRun      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sesgocero",
		Short: "Colombian news crawler",
		Long: `sesgocero crawls Colombian news outlets, extracts article records,
and keeps a deduplicated collection in MongoDB.

Supported sources: el_espectador, el_tiempo, el_pais, blu_radio,
silla_vacia, el_nuevo_siglo.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(cleanupCmd())
	rootCmd.AddCommand(sourcesCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// crawlCmd creates the "crawl" subcommand.
func crawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [source...]",
		Short: "Crawl news sources",
		Long: `Crawl the given sources (all registered sources when none are named),
following listing pages to articles and upserting each record into the store.`,
		RunE: runCrawl,
	}

	cmd.Flags().IntVarP(&concurrent, "concurrency", "n", 0, "number of concurrent workers (0 = config default)")
	cmd.Flags().StringVar(&delay, "delay", "", "politeness delay between requests per domain")
	cmd.Flags().IntVarP(&maxArticles, "max-articles", "m", 0, "stop after storing this many articles (0 = unlimited)")
	cmd.Flags().StringVarP(&exportPath, "export", "o", "", "also export articles to this file")
	cmd.Flags().StringVarP(&exportType, "export-format", "f", "jsonl", "export format: jsonl, csv")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "skip MongoDB and export only")

	return cmd
}

// runCrawl executes the crawl command.
func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg)

	registry := source.NewRegistry()
	profiles, err := selectProfiles(registry, args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Error("store close error", "error", err)
		}
	}()

	eng := engine.New(cfg, registry, logger)
	eng.SetStore(st)

	pipe := pipeline.New(logger)
	pipe.Use(&pipeline.NormalizeMiddleware{})
	pipe.Use(&pipeline.DefaultsMiddleware{})
	pipe.Use(pipeline.NewDedupMiddleware())
	eng.SetPipeline(pipe)

	httpFetcher, err := fetcher.NewHTTPFetcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("create http fetcher: %w", err)
	}
	defer httpFetcher.Close()
	eng.SetFetcher("http", httpFetcher)

	if needsBrowser(cfg, profiles) {
		browserFetcher, err := fetcher.NewBrowserFetcher(cfg, logger)
		if err != nil {
			logger.Warn("browser fetcher unavailable, falling back to http", "error", err)
		} else {
			defer browserFetcher.Close()
			eng.SetFetcher("browser", browserFetcher)
		}
	}

	if cfg.Metrics.Enabled {
		exporter := observability.NewExporter(
			eng.Stats().Snapshot,
			eng.QueueDepth,
			logger,
		)
		exporter.Start(cfg.Metrics.Port, cfg.Metrics.Path)
		defer exporter.Stop()
	}

	if err := eng.Seed(profiles); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	start := time.Now()
	if err := eng.Run(ctx); err != nil && err != context.Canceled {
		return fmt.Errorf("crawl: %w", err)
	}

	stats := eng.Stats().Snapshot()
	elapsed := time.Since(start).Round(time.Millisecond)

	fmt.Printf("\nCrawl complete in %s\n", elapsed)
	fmt.Printf("  Requests:  %d sent, %d failed\n", stats["requests_sent"], stats["requests_failed"])
	fmt.Printf("  Articles:  %d inserted, %d updated, %d unchanged\n",
		stats["articles_inserted"], stats["articles_updated"], stats["articles_unchanged"])
	fmt.Printf("  Skipped:   %d (missing required fields), %d dropped\n",
		stats["articles_skipped"], stats["articles_dropped"])
	fmt.Printf("  Data:      %d bytes downloaded\n", stats["bytes_downloaded"])

	return nil
}

// cleanupCmd creates the "cleanup" subcommand.
func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove duplicate articles from the store",
		Long: `Scan the article collection for records sharing a URL and keep one
survivor per group, preferring the most recent publication date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := setupLogger(cfg)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			ms, err := store.NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection, logger)
			if err != nil {
				return fmt.Errorf("connect store: %w", err)
			}
			defer ms.Close(ctx)

			report, err := ms.ReconcileDuplicates(ctx)
			if err != nil {
				return fmt.Errorf("reconcile: %w", err)
			}

			if report.Groups == 0 {
				fmt.Println("No duplicate articles found.")
			} else {
				fmt.Printf("Reconciled %d duplicate groups, removed %d records.\n",
					report.Groups, report.Removed)
			}
			return nil
		},
	}
}

// sourcesCmd creates the "sources" subcommand.
func sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List registered news sources",
		Run: func(cmd *cobra.Command, args []string) {
			registry := source.NewRegistry()
			for _, p := range registry.All() {
				fetcherType := p.FetcherType
				if fetcherType == "" {
					fetcherType = "http"
				}
				fmt.Printf("%-16s %-24s fetcher=%-8s listings=%d\n",
					p.ID, p.Name, fetcherType, len(p.StartURLs))
			}
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Engine:\n")
			fmt.Printf("  Concurrency:        %d\n", cfg.Engine.Concurrency)
			fmt.Printf("  Request Timeout:    %s\n", cfg.Engine.RequestTimeout)
			fmt.Printf("  Politeness Delay:   %s\n", cfg.Engine.PolitenessDelay)
			fmt.Printf("  Respect robots.txt: %v\n", cfg.Engine.RespectRobotsTxt)
			fmt.Printf("  Max Retries:        %d\n", cfg.Engine.MaxRetries)
			fmt.Printf("  User Agents:        %d configured\n", len(cfg.Engine.UserAgents))
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:               %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Follow Redirects:   %v\n", cfg.Fetcher.FollowRedirects)
			fmt.Printf("  Max Body Size:      %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("\nMongo:\n")
			fmt.Printf("  Enabled:            %v\n", cfg.Mongo.Enabled)
			fmt.Printf("  Database:           %s\n", cfg.Mongo.Database)
			fmt.Printf("  Collection:         %s\n", cfg.Mongo.Collection)
			fmt.Printf("\nExport:\n")
			fmt.Printf("  Enabled:            %v\n", cfg.Export.Enabled)
			fmt.Printf("  Format:             %s\n", cfg.Export.Format)
			fmt.Printf("  Path:               %s\n", cfg.Export.Path)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:            %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:               %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sesgocero %s\n", config.Version)
		},
	}
}

// selectProfiles resolves CLI source arguments against the registry.
// No arguments selects every registered source.
func selectProfiles(registry *source.Registry, args []string) ([]*source.Profile, error) {
	if len(args) == 0 {
		return registry.All(), nil
	}
	profiles := make([]*source.Profile, 0, len(args))
	for _, id := range args {
		p, err := registry.Get(id)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// buildStore assembles the store stack: MongoDB as the canonical
// backend, with optional file export fanned out alongside it.
func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	var backends []store.Store

	if cfg.Mongo.Enabled {
		ms, err := store.NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection, logger)
		if err != nil {
			return nil, fmt.Errorf("connect store: %w", err)
		}
		backends = append(backends, ms)
	}

	if cfg.Export.Enabled {
		es, err := store.NewExportStore(cfg.Export.Format, cfg.Export.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("create export store: %w", err)
		}
		backends = append(backends, es)
	}

	switch len(backends) {
	case 0:
		return nil, fmt.Errorf("no store backend enabled")
	case 1:
		return backends[0], nil
	default:
		return store.NewMultiStore(backends, logger), nil
	}
}

// needsBrowser reports whether any selected profile or the configured
// default requires the headless browser fetcher.
func needsBrowser(cfg *config.Config, profiles []*source.Profile) bool {
	if cfg.Fetcher.Type == "browser" {
		return true
	}
	for _, p := range profiles {
		if p.FetcherType == "browser" {
			return true
		}
	}
	return false
}

// setupLogger creates the structured logger from logging config.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	out := os.Stderr
	if cfg.Logging.Output == "stdout" {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if concurrent > 0 {
		cfg.Engine.Concurrency = concurrent
	}
	if delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			cfg.Engine.PolitenessDelay = d
		}
	}
	if maxArticles > 0 {
		cfg.Engine.MaxArticles = maxArticles
	}
	if exportPath != "" {
		cfg.Export.Enabled = true
		cfg.Export.Path = exportPath
		cfg.Export.Format = exportType
	}
	if dryRun {
		cfg.Mongo.Enabled = false
		if !cfg.Export.Enabled {
			cfg.Export.Enabled = true
		}
	}
}
