// Package main is the Kurabe CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kurabe/internal/analysis"
	"github.com/hyperjump/kurabe/internal/cli"
	"github.com/hyperjump/kurabe/internal/config"
	"github.com/hyperjump/kurabe/internal/embedding"
	"github.com/hyperjump/kurabe/internal/extract"
	"github.com/hyperjump/kurabe/internal/models"
	"github.com/hyperjump/kurabe/internal/reduce"
	"github.com/hyperjump/kurabe/internal/report"
	"github.com/hyperjump/kurabe/internal/scrape"
	"github.com/hyperjump/kurabe/internal/server"
	"github.com/hyperjump/kurabe/internal/storage"
	"github.com/hyperjump/kurabe/internal/watcher"
	"github.com/hyperjump/kurabe/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kurabe/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "analyze":
		runAnalyze()
	case "serve":
		runServe()
	case "runs":
		runRuns()
	case "version", "--version", "-v":
		fmt.Printf("kurabe version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`kurabe - compare page content against search queries in embedding space

Usage:
  kurabe analyze -client <url> -competitor <url> -queries "q1,q2" [flags]
  kurabe serve [flags]
  kurabe runs [flags]
  kurabe version

Commands:
  analyze   Fetch both pages, embed their content and the queries, and
            write an interactive 3D comparison report.
  serve     Run the HTTP API (POST /api/v1/analyze, GET /api/v1/runs).
  runs      List recorded analysis runs.
  version   Print the version.

Examples:
  kurabe analyze \
    -client "https://client.com/page" \
    -competitor "https://competitor.com/page" \
    -queries "ai video generator,free ai video generator"

  kurabe analyze \
    -client "https://client.com/page" \
    -competitor "https://competitor.com/page" \
    -query-file queries.txt -watch
`)
}

// Components holds the wired pipeline for one process.
type Components struct {
	Engine  *embedding.Engine
	Store   storage.RunStore
	Service *analysis.Service
}

func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	engine, err := embedding.NewEngine(&cfg.Embedding, embedding.WithLogger(logger))
	if errors.Is(err, embedding.ErrModelLoad) {
		// Local model unavailable; run with deterministic mock vectors so
		// the pipeline stays usable for layout and plumbing work.
		logger.Warn("embedding model unavailable, using mock embedder", zap.Error(err))
		mockCfg := cfg.Embedding
		mockCfg.Provider = "mock"
		engine, err = embedding.NewEngine(&mockCfg, embedding.WithLogger(logger))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding engine: %w", err)
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		_ = engine.Close()
		return nil, fmt.Errorf("failed to initialize run store: %w", err)
	}

	scraper := scrape.NewScraper(&cfg.Scrape, scrape.WithLogger(logger))
	analyzer := analysis.NewAnalyzer(engine, reduce.NewReducer(reduce.WithLogger(logger)), analysis.WithLogger(logger))
	renderer := report.NewRenderer(cfg.Output.Dir, report.WithLogger(logger))
	service := analysis.NewService(scraper, analyzer, renderer,
		analysis.WithStore(store),
		analysis.WithSnapshotDir(cfg.Output.Dir),
		analysis.WithServiceLogger(logger))

	return &Components{Engine: engine, Store: store, Service: service}, nil
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	clientURL := fs.String("client", "", "client page URL")
	competitorURL := fs.String("competitor", "", "competitor page URL")
	queriesFlag := fs.String("queries", "", "comma-separated target queries")
	queryFile := fs.String("query-file", "", "file with target queries (one per line, or .csv/.xlsx)")
	outputDir := fs.String("output-dir", "", "output directory for reports and snapshots (overrides config)")
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	watch := fs.Bool("watch", false, "re-run the analysis whenever the query file changes")
	_ = fs.Parse(os.Args[2:])

	if *clientURL == "" || *competitorURL == "" {
		fmt.Println("analyze requires -client and -competitor URLs")
		fs.PrintDefaults()
		os.Exit(1)
	}
	if *queriesFlag == "" && *queryFile == "" {
		fmt.Println("analyze requires -queries or -query-file")
		fs.PrintDefaults()
		os.Exit(1)
	}
	if *watch && *queryFile == "" {
		fmt.Println("-watch requires -query-file")
		os.Exit(1)
	}

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Debug("config loaded", zap.String("config_path", resolvedConfigPath))

	queries, err := resolveQueries(*queriesFlag, *queryFile)
	if err != nil {
		fmt.Printf("Failed to load queries: %v\n", err)
		os.Exit(1)
	}
	if len(queries) == 0 {
		fmt.Println("No queries given")
		os.Exit(1)
	}

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runOnce := func(qs []string) {
		run, err := components.Service.Analyze(ctx, models.AnalysisRequest{
			ClientURL:     *clientURL,
			CompetitorURL: *competitorURL,
			Queries:       qs,
		})
		if err != nil {
			logger.Error("analysis failed", zap.Error(err))
			if !*watch {
				os.Exit(1)
			}
			return
		}
		printRun(run)
	}
	runOnce(queries)

	if !*watch {
		return
	}

	w := watcher.NewWatcher(*queryFile, func(path string) {
		qs, err := extract.LoadQueries(path)
		if err != nil {
			logger.Error("failed to reload queries", zap.String("path", path), zap.Error(err))
			return
		}
		if len(qs) == 0 {
			logger.Warn("query file is empty, keeping previous results", zap.String("path", path))
			return
		}
		logger.Info("query file changed, re-running analysis", zap.Int("queries", len(qs)))
		runOnce(qs)
	}, watcher.WithLogger(logger))
	if err := w.Start(ctx); err != nil {
		logger.Fatal("Failed to start query watcher", zap.Error(err))
	}
	defer w.Stop()

	fmt.Println("Watching query file for changes. Press Ctrl+C to stop.")
	<-ctx.Done()
}

// resolveQueries merges the -queries flag and the -query-file contents.
func resolveQueries(queriesFlag, queryFile string) ([]string, error) {
	queries := extract.ParseQueries(queriesFlag)
	if queryFile != "" {
		fromFile, err := extract.LoadQueries(queryFile)
		if err != nil {
			return nil, err
		}
		queries = append(queries, fromFile...)
	}
	return queries, nil
}

func printRun(run *models.Run) {
	fmt.Println("\nSimilarity scores (higher is better):")
	cli.WriteScores(os.Stdout, run.Scores, "  ")
	fmt.Printf("\nProjection method: %s\n", run.Method)
	fmt.Printf("Report: %s\n", run.ReportPath)
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(components.Service, components.Store, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runRuns() {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 20, "maximum runs to list (0 = all)")
	asJSON := fs.Bool("json", false, "output as JSON")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Printf("Failed to open run store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), *limit)
	if err != nil {
		fmt.Printf("Failed to list runs: %v\n", err)
		os.Exit(1)
	}

	format := cli.OutputText
	if *asJSON {
		format = cli.OutputJSON
	}
	if err := cli.WriteRuns(os.Stdout, runs, format); err != nil {
		fmt.Printf("Failed to write runs: %v\n", err)
		os.Exit(1)
	}
}
