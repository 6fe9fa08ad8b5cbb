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
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/indexit/ai"
	"github.com/poiesic/indexit/ai/openai"
	"github.com/poiesic/indexit/core"
	"github.com/poiesic/indexit/ingest"
	"github.com/poiesic/indexit/search"
	"github.com/poiesic/indexit/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "indexit",
		Usage: "Adaptive chunk ingestion and semantic search over a local vector store",
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
				Name:   "ingest",
				Usage:  "Ingest a document's chunks from a JSONL file",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "index",
						Usage:    "Index to ingest into",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "dataset-id",
						Usage:    "Dataset the document belongs to",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "doc-id",
						Usage:    "Document identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "doc-name",
						Usage:    "Document name, embedded alongside each chunk",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "input",
						Usage: "JSONL file of chunk objects, - for stdin",
						Value: "-",
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
					&cli.Float64Flag{
						Name:  "rps",
						Usage: "Embedding requests per second, 0 for unlimited",
						Value: 0,
					},
					&cli.IntFlag{
						Name:  "initial-batch-size",
						Usage: "Batch size the controller starts from",
						Value: 16,
					},
					&cli.IntFlag{
						Name:  "min-batch-size",
						Usage: "Lower bound for batch size adjustment",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "max-batch-size",
						Usage: "Upper bound for batch size adjustment",
						Value: 64,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Failed-attempt budget per batch",
						Value: 5,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search an index for chunks similar to a query",
				ArgsUsage: "query",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "index",
						Usage:    "Index to search",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of hits to return",
						Value: 10,
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
				},
			},
			{
				Name:   "remove",
				Usage:  "Remove all chunks belonging to a document",
				Action: removeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "index",
						Usage:    "Index to remove from",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "doc-id",
						Usage:    "Document identifier",
						Required: true,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show chunk count for an index",
				Action: statsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "index",
						Usage:    "Index to inspect",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// chunkLine is the JSONL wire form of one chunk object.
type chunkLine struct {
	Content           string   `json:"content"`
	ImportantKeywords []string `json:"important_keywords"`
	Questions         []string `json:"questions"`
}

// readChunks parses chunk requests from a JSONL file, or stdin when the
// path is "-". Chunks that fail validation are skipped with a warning.
func readChunks(path string) ([]core.ChunkRequest, error) {
	var reader io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		reader = f
	}

	var chunks []core.ChunkRequest
	decoder := json.NewDecoder(reader)
	for line := 1; decoder.More(); line++ {
		var raw chunkLine
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		chunk := core.ChunkRequest{
			Content:           raw.Content,
			ImportantKeywords: raw.ImportantKeywords,
			Questions:         raw.Questions,
		}
		if err := core.ValidateChunkRequest(&chunk); err != nil {
			slog.Warn("skipping invalid chunk", "line", line, "err", err)
			continue
		}
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	// Validate flags
	dbPath := c.String("db")
	if dbPath == "" {
		return fmt.Errorf("database path is required")
	}

	// Read chunks up front so input errors surface before any writes
	chunks, err := readChunks(c.String("input"))
	if err != nil {
		return fmt.Errorf("failed to read chunks: %w", err)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no valid chunks in input")
	}

	// Open database
	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewChunkRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	// Create AI config
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithRequestsPerSecond(c.Float64("rps")),
	)

	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	// Create embedder
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	if aiConfig.RequestsPerSecond > 0 {
		embedder, err = ai.NewRateLimitedEmbedder(embedder, aiConfig.RequestsPerSecond, aiConfig.Burst)
		if err != nil {
			return fmt.Errorf("failed to create rate limited embedder: %w", err)
		}
	}

	// Create engine config
	engineConfig := ingest.DefaultConfig()
	engineConfig.InitialBatchSize = c.Int("initial-batch-size")
	engineConfig.MinBatchSize = c.Int("min-batch-size")
	engineConfig.MaxBatchSize = c.Int("max-batch-size")
	engineConfig.MaxRetries = c.Int("max-retries")

	ingester, err := ingest.New(repo, embedder, engineConfig,
		ingest.WithProgress(ingest.WriterProgress(os.Stderr)))
	if err != nil {
		return fmt.Errorf("failed to create ingester: %w", err)
	}

	doc := core.DocInfo{
		DocumentID:   c.String("doc-id"),
		DatasetID:    c.String("dataset-id"),
		DocumentName: c.String("doc-name"),
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintf(os.Stderr, "Chunks: %d\n", len(chunks))
	fmt.Fprintln(os.Stderr)

	result, err := ingester.Run(ctx, chunks, doc, c.String("index"), c.String("dataset-id"))
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	// The progress line carries no trailing newline
	fmt.Fprintln(os.Stderr)

	fmt.Printf("Added:   %d\n", result.TotalAdded)
	fmt.Printf("Failed:  %d\n", result.TotalFailed)
	fmt.Printf("Batches: %d\n", result.Stats.BatchCount)
	fmt.Printf("Retries: %d\n", result.Stats.RetryCount)
	fmt.Printf("Cost:    %d tokens\n", result.Stats.EmbeddingCost)
	fmt.Printf("Elapsed: %.1fs\n", result.Stats.ElapsedSeconds)
	fmt.Printf("Success: %.1f%%\n", result.Stats.SuccessRate)

	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	// Validate flags
	dbPath := c.String("db")
	if dbPath == "" {
		return fmt.Errorf("database path is required")
	}

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query argument is required")
	}

	// Open database
	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewChunkRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	// Create AI config
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)

	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	// Create embedder
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	searcher, err := search.NewSearcher(repo, embedder, search.WithLimit(c.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.FindSimilar(ctx, c.String("index"), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: '%s' (%s)[%0.3f]\n", i, hit.Chunk.Content, hit.Chunk.DocumentName, hit.Score)
	}

	return nil
}

func removeCommand(c *cli.Context) error {
	ctx := context.Background()

	// Validate flags
	dbPath := c.String("db")
	if dbPath == "" {
		return fmt.Errorf("database path is required")
	}

	// Open database
	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewChunkRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	count, err := repo.DeleteChunksByDocument(ctx, c.String("index"), c.String("doc-id"))
	if err != nil {
		return fmt.Errorf("failed to remove chunks: %w", err)
	}

	fmt.Printf("Removed %d chunks\n", count)
	return nil
}

func statsCommand(c *cli.Context) error {
	ctx := context.Background()

	// Validate flags
	dbPath := c.String("db")
	if dbPath == "" {
		return fmt.Errorf("database path is required")
	}

	// Open database
	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewChunkRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	count, err := repo.CountChunks(ctx, c.String("index"))
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}

	fmt.Printf("Chunks: %d\n", count)
	return nil
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
