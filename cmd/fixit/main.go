// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/fixit"
	"github.com/poiesic/fixit/ai"
	"github.com/poiesic/fixit/ai/openai"
	"github.com/poiesic/fixit/chunk"
	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/hybrid"
	"github.com/poiesic/fixit/reindex"
	"github.com/poiesic/fixit/seed"
	"github.com/poiesic/fixit/server"
	"github.com/poiesic/fixit/storage/badger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp assembles the CLI. Split from main so the command wiring is
// testable.
func newApp() *cli.App {
	return &cli.App{
		Name:  "fixit",
		Usage: "Hybrid retrieval engine for appliance-parts support",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the retrieval API server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to TOML config file",
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "Load scraped corpus files into the document store",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "parts",
						Usage: "Path to the scraped parts catalog JSON file",
					},
					&cli.StringFlag{
						Name:  "blogs",
						Usage: "Path to the scraped blog articles JSON file",
					},
					&cli.StringFlag{
						Name:  "repairs",
						Usage: "Path to the scraped repair guides JSON file",
					},
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Drop each collection before loading it",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.StringFlag{
						Name:    "api-token",
						Usage:   "API key for the embedding service (local servers ignore it)",
						EnvVars: []string{"FIXIT_AI_TOKEN"},
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run a hybrid query against one collection",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "collection",
						Usage: "Collection to search",
						Value: string(core.CollectionRepairSymptoms),
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results to return",
						Value:   5,
					},
					&cli.Float64Flag{
						Name:  "vector-weight",
						Usage: "Weight applied to normalized vector scores",
						Value: hybrid.DefaultVectorWeight,
					},
					&cli.Float64Flag{
						Name:  "keyword-weight",
						Usage: "Weight applied to normalized keyword scores",
						Value: hybrid.DefaultKeywordWeight,
					},
					&cli.StringSliceFlag{
						Name:  "filter",
						Usage: "Metadata equality filter as key=value (repeatable)",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.StringFlag{
						Name:    "api-token",
						Usage:   "API key for the embedding service (local servers ignore it)",
						EnvVars: []string{"FIXIT_AI_TOKEN"},
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all stored documents with new embeddings",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "api-token",
						Usage:   "API key for the embedding service (local servers ignore it)",
						EnvVars: []string{"FIXIT_AI_TOKEN"},
					},
					&cli.StringSliceFlag{
						Name:  "collection",
						Usage: "Collection to reembed (repeatable, default all)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:      "chunk",
				Usage:     "Split text into chunks and print the boundaries",
				ArgsUsage: "[FILE]",
				Action:    chunkCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "max-tokens",
						Usage: "Per-chunk token budget",
						Value: chunk.DefaultMaxTokens,
					},
					&cli.IntFlag{
						Name:  "overlap-tokens",
						Usage: "Tokens of trailing context carried into the next chunk",
						Value: chunk.DefaultOverlapTokens,
					},
					&cli.StringFlag{
						Name:  "method",
						Usage: "Boundary type: sentence or paragraph",
						Value: string(chunk.MethodSentence),
					},
				},
			},
		},
	}
}

func serveCommand(c *cli.Context) error {
	// Layer .env values under the config's environment overrides
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	cfg, err := server.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	engine, err := fixit.New(cfg.Server.DataDir, fixit.WithAIConfig(cfg.AISettings()))
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The lexical indexes live in memory; rebuild them from storage before
	// taking traffic.
	if err := engine.RefreshIndexes(ctx); err != nil {
		return fmt.Errorf("failed to build lexical indexes: %w", err)
	}

	var opts []server.Option
	if cfg.Corpus.Watch {
		pipeline, err := engine.NewIngestionPipeline()
		if err != nil {
			return fmt.Errorf("failed to create ingestion pipeline: %w", err)
		}
		defer func() {
			pipeline.Wait()
			pipeline.Release()
		}()

		seeder, err := seed.NewSeeder(pipeline, engine.Documents())
		if err != nil {
			return fmt.Errorf("failed to create seeder: %w", err)
		}

		watcher, err := server.NewWatcher(seeder, engine.RefreshIndexes, seed.Corpus{
			PartsPath:   cfg.Corpus.PartsPath,
			BlogsPath:   cfg.Corpus.BlogsPath,
			RepairsPath: cfg.Corpus.RepairsPath,
		})
		if err != nil {
			return fmt.Errorf("failed to create corpus watcher: %w", err)
		}
		opts = append(opts, server.WithWatcher(watcher))
	}

	srv, err := server.NewServer(engine, cfg.Server.Addr, opts...)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func seedCommand(c *cli.Context) error {
	ctx := context.Background()

	corpus := seed.Corpus{
		PartsPath:   c.String("parts"),
		BlogsPath:   c.String("blogs"),
		RepairsPath: c.String("repairs"),
	}

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIToken(c.String("api-token")),
	)

	engine, err := fixit.New(c.String("db"), fixit.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	seeder, err := seed.NewSeeder(pipeline, engine.Documents())
	if err != nil {
		return fmt.Errorf("failed to create seeder: %w", err)
	}

	stats, err := seeder.Seed(ctx, corpus, &seed.SeedOptions{Reset: c.Bool("reset")})
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	// Block until the embedding pool drains so every stored document leaves
	// with its vector.
	pipeline.Wait()

	total := stats.Total()
	fmt.Fprintf(os.Stderr, "Seeded %d documents (%d unchanged, %d dropped)\n",
		total.Stored, total.Skipped, total.Dropped)
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query argument is required")
	}

	filter, err := parseFilter(c.StringSlice("filter"))
	if err != nil {
		return err
	}

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIToken(c.String("api-token")),
	)

	engine, err := fixit.New(c.String("db"), fixit.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	if err := engine.RefreshIndexes(ctx); err != nil {
		return fmt.Errorf("failed to build lexical indexes: %w", err)
	}

	collection := core.Collection(c.String("collection"))
	searcher, err := engine.Searcher(collection)
	if err != nil {
		return err
	}

	weights := hybrid.Weights{
		Vector:  c.Float64("vector-weight"),
		Keyword: c.Float64("keyword-weight"),
	}
	res, err := searcher.SearchWeighted(ctx, query, c.Int("top-k"), filter, weights)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if res.Degraded {
		fmt.Fprintf(os.Stderr, "Degraded: failed paths %v\n", res.FailedPaths)
	}

	fmt.Printf("Found %d hits\n", len(res.Results))
	for i, hit := range res.Results {
		fmt.Printf("%d: %s [%.3f] (vector %.3f, keyword %.3f, %s)\n",
			i, hit.Id, hit.HybridScore, hit.VectorScore, hit.KeywordScore, hit.Origin)
		if doc, err := engine.Documents().GetDocument(ctx, collection, hit.Id); err == nil {
			fmt.Printf("   %s\n", snippet(doc.Text, 120))
		}
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	dbPath := c.String("db")
	if dbPath == "" {
		return fmt.Errorf("database path is required")
	}

	collections, err := parseCollections(c.StringSlice("collection"))
	if err != nil {
		return err
	}

	// Open database
	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo := badger.NewDocumentRepository(backend)

	// Create AI config; the analyzer is not needed for reembedding
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAnalyzerHost(c.String("embedding-host")),
		ai.WithAPIToken(c.String("api-token")),
		ai.WithAnalyzerModel("dummy"),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	// Create embedder
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	// Create reindexing config
	reindexConfig := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	// Validate config
	if reindexConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reindexConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reindexConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reindexer := reindex.NewReindexer(repo, embedder, collections, reindexConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reindexer.Run(ctx); err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}

	return nil
}

func chunkCommand(c *cli.Context) error {
	var (
		data []byte
		err  error
	)
	if c.Args().Present() {
		data, err = os.ReadFile(c.Args().First())
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	chunks, err := chunk.Split(string(data),
		c.Int("max-tokens"),
		c.Int("overlap-tokens"),
		chunk.Method(c.String("method")))
	if err != nil {
		return err
	}

	for _, piece := range chunks {
		fmt.Printf("--- chunk %d/%d [%d:%d] ~%d tokens\n%s\n",
			piece.ChunkNumber, piece.TotalChunks, piece.StartPos, piece.EndPos,
			chunk.EstimateTokens(piece.Text), piece.Text)
	}
	fmt.Fprintf(os.Stderr, "%d chunks\n", len(chunks))
	return nil
}

// parseFilter converts repeated key=value flags into an equality filter.
func parseFilter(pairs []string) (core.Filter, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filter := make(core.Filter, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q: want key=value", pair)
		}
		filter[key] = value
	}
	return filter, nil
}

// parseCollections validates collection names against the known set. An
// empty list selects every collection.
func parseCollections(names []string) ([]core.Collection, error) {
	if len(names) == 0 {
		return nil, nil
	}
	known := core.DefaultCollections()
	out := make([]core.Collection, 0, len(names))
	for _, name := range names {
		collection := core.Collection(name)
		if !slices.Contains(known, collection) {
			return nil, fmt.Errorf("unknown collection %q", name)
		}
		out = append(out, collection)
	}
	return out, nil
}

// snippet flattens text onto one line and truncates it for display.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= n {
		return text
	}
	if i := strings.LastIndexByte(text[:n], ' '); i > 0 {
		return text[:i] + "..."
	}
	return text[:n] + "..."
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
