// Copyright 2026 Lectern Labs
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
	"log"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/lectern-app/lectern"
	"github.com/lectern-app/lectern/ai"
	"github.com/lectern-app/lectern/chunk"
	"github.com/lectern-app/lectern/core"
	"github.com/lectern-app/lectern/ingest"
	"github.com/lectern-app/lectern/reindex"
	"github.com/lectern-app/lectern/retrieval"
	"github.com/lectern-app/lectern/storage/badger"
)

func main() {
	app := &cli.App{
		Name:  "lectern",
		Usage: "Document ingestion and retrieval store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
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
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "embeddinggemma",
			},
			&cli.IntFlag{
				Name:  "dimension",
				Usage: "Embedding vector dimension",
				Value: 768,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "work",
				Usage:  "Run the ingestion worker pool until interrupted",
				Action: workCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Fixed worker pool size",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Embedding sub-batch size",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Target chunk size in runes",
						Value: 1000,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Chunk overlap in runes",
						Value: 200,
					},
					&cli.DurationFlag{
						Name:  "lease",
						Usage: "Job visibility timeout per claim",
						Value: 2 * time.Minute,
					},
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "Attempts before a job is dead-lettered",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "backoff-base",
						Usage: "Base delay of the retry backoff",
						Value: 2 * time.Second,
					},
					&cli.DurationFlag{
						Name:  "backoff-cap",
						Usage: "Maximum retry backoff delay",
						Value: 5 * time.Minute,
					},
					&cli.Float64Flag{
						Name:  "claim-rate",
						Usage: "Maximum queue claims per second",
						Value: 10,
					},
				},
			},
			{
				Name:      "add",
				Usage:     "Accept a file for ingestion",
				ArgsUsage: "FILE",
				Action:    addCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Usage:    "Owner identity for the document",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "priority",
						Usage: "Job priority (low, normal, high)",
						Value: "normal",
					},
				},
			},
			{
				Name:      "status",
				Usage:     "Show the processing status of a document",
				ArgsUsage: "DOCUMENT_ID",
				Action:    statusCommand,
			},
			{
				Name:      "query",
				Usage:     "Retrieve context for a question",
				ArgsUsage: "QUERY",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "scope",
						Usage: "Comma-separated document ids to search (empty: all)",
					},
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of chunks the similarity search returns",
						Value: 8,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum cosine similarity",
						Value: 0.60,
					},
					&cli.IntFlag{
						Name:  "budget",
						Usage: "Token budget of the assembled context",
						Value: 2000,
					},
				},
			},
			{
				Name:   "dead-letters",
				Usage:  "List jobs that exhausted their retries",
				Action: deadLettersCommand,
			},
			{
				Name:      "delete",
				Usage:     "Delete a document and its chunks",
				ArgsUsage: "DOCUMENT_ID",
				Action:    deleteCommand,
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed every stored chunk with the configured model",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
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
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openLibrary(c *cli.Context, opts ...lectern.LibraryOption) (*lectern.Library, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithDimension(c.Int("dimension")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts = append([]lectern.LibraryOption{lectern.WithAIConfig(aiConfig)}, opts...)
	return lectern.Open(c.String("db"), opts...)
}

func workCommand(c *cli.Context) error {
	library, err := openLibrary(c, lectern.WithQueueConfig(badger.QueueConfig{
		MaxAttempts: c.Int("max-attempts"),
		BackoffBase: c.Duration("backoff-base"),
		BackoffCap:  c.Duration("backoff-cap"),
	}))
	if err != nil {
		return err
	}
	defer library.Close()

	pool, err := library.NewWorkerPool(
		ingest.WithWorkers(c.Int("workers")),
		ingest.WithEmbedBatchSize(c.Int("batch-size")),
		ingest.WithEmbedDimension(c.Int("dimension")),
		ingest.WithLeaseDuration(c.Duration("lease")),
		ingest.WithClaimRate(rate.Limit(c.Float64("claim-rate"))),
		ingest.WithChunking(chunk.Config{
			Size:      c.Int("chunk-size"),
			Overlap:   c.Int("chunk-overlap"),
			MinLength: chunk.DefaultConfig().MinLength,
		}),
	)
	if err != nil {
		return err
	}
	defer pool.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Workers: %d, claim rate: %.1f/s\n", c.Int("workers"), c.Float64("claim-rate"))

	if err := pool.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("worker pool failed: %w", err)
	}
	return nil
}

func addCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one FILE argument")
	}
	filePath := c.Args().First()

	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("cannot read file: %w", err)
	}

	priority, err := parsePriority(c.String("priority"))
	if err != nil {
		return err
	}

	library, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer library.Close()

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return err
	}

	doc, err := library.AcceptUpload(c.Context, lectern.Upload{
		OwnerId:  c.String("owner"),
		FileName: filepath.Base(filePath),
		ByteSize: info.Size(),
		MimeType: mimeTypeFor(filePath),
		Location: absPath,
		Priority: priority,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Accepted %s as document %d\n", filepath.Base(filePath), uint64(doc.Id))
	return nil
}

func statusCommand(c *cli.Context) error {
	id, err := parseDocumentID(c)
	if err != nil {
		return err
	}

	library, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer library.Close()

	status, err := library.Status(c.Context, id)
	if err != nil {
		return err
	}

	fmt.Printf("State:    %s\n", status.State)
	fmt.Printf("Progress: %d%%\n", status.Progress)
	if status.Failure != nil {
		fmt.Printf("Failure:  [%s] %s (attempt %d)\n",
			status.Failure.Kind, status.Failure.Message, status.Failure.Attempt)
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one QUERY argument")
	}
	query := c.Args().First()

	scope, err := parseScope(c.String("scope"))
	if err != nil {
		return err
	}

	library, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer library.Close()

	retriever, err := library.NewRetriever(
		retrieval.WithK(c.Int("k")),
		retrieval.WithSimilarityThreshold(float32(c.Float64("threshold"))),
		retrieval.WithTokenBudget(c.Int("budget")),
		retrieval.WithDimension(c.Int("dimension")),
	)
	if err != nil {
		return err
	}

	result, err := retriever.Retrieve(c.Context, query, scope)
	if err != nil {
		return err
	}

	if result.Empty() {
		fmt.Println("No relevant context found.")
		return nil
	}

	fmt.Println(result.Text)
	fmt.Printf("\n-- %d tokens, %d citations --\n", result.TokensUsed, len(result.Citations))
	for _, citation := range result.Citations {
		fmt.Printf("[doc %d, chunk %d, page %d] %s\n",
			uint64(citation.DocumentId), uint64(citation.ChunkId), citation.Page, citation.Excerpt)
	}
	return nil
}

func deadLettersCommand(c *cli.Context) error {
	library, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer library.Close()

	dead, err := library.DeadLetters(c.Context)
	if err != nil {
		return err
	}
	if len(dead) == 0 {
		fmt.Println("No dead-lettered jobs.")
		return nil
	}

	for _, job := range dead {
		fmt.Printf("job %d document %d attempts %d: %s\n",
			uint64(job.Id), uint64(job.DocumentId), job.Attempts, job.LastError)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	id, err := parseDocumentID(c)
	if err != nil {
		return err
	}

	library, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer library.Close()

	if err := library.DeleteDocument(c.Context, id); err != nil {
		return err
	}
	fmt.Printf("Deleted document %d\n", uint64(id))
	return nil
}

func reindexCommand(c *cli.Context) error {
	library, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer library.Close()

	reindexer, err := library.NewReindexer(&reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Dimension:      c.Int("dimension"),
	}, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := reindexer.Run(ctx); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	return nil
}

func parseDocumentID(c *cli.Context) (core.ID, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one DOCUMENT_ID argument")
	}
	raw, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid document id %q", c.Args().First())
	}
	return core.ID(raw), nil
}

func parsePriority(s string) (core.Priority, error) {
	switch strings.ToLower(s) {
	case "low":
		return core.PriorityLow, nil
	case "normal":
		return core.PriorityNormal, nil
	case "high":
		return core.PriorityHigh, nil
	default:
		return 0, fmt.Errorf("invalid priority %q: must be one of low, normal, high", s)
	}
}

func parseScope(s string) ([]core.ID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	scope := make([]core.ID, 0, len(parts))
	for _, part := range parts {
		raw, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid document id %q in scope", part)
		}
		scope = append(scope, core.ID(raw))
	}
	return scope, nil
}

func mimeTypeFor(filePath string) string {
	if mt := mime.TypeByExtension(filepath.Ext(filePath)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
