// Package cli implements the docvault command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/halcyon-labs/docvault/internal/adapters/driven/ai"
	logsqlite "github.com/halcyon-labs/docvault/internal/adapters/driven/querylog/sqlite"
	"github.com/halcyon-labs/docvault/internal/adapters/driven/vectorstore/memory"
	vecsqlite "github.com/halcyon-labs/docvault/internal/adapters/driven/vectorstore/sqlite"
	"github.com/halcyon-labs/docvault/internal/anonymizer"
	"github.com/halcyon-labs/docvault/internal/chunker"
	"github.com/halcyon-labs/docvault/internal/config"
	"github.com/halcyon-labs/docvault/internal/core/ports/driven"
	"github.com/halcyon-labs/docvault/internal/core/services"
	"github.com/halcyon-labs/docvault/internal/extractors"
	"github.com/halcyon-labs/docvault/internal/extractors/pdf"
	"github.com/halcyon-labs/docvault/internal/extractors/plaintext"
	"github.com/halcyon-labs/docvault/internal/logger"
)

// version is set via ldflags at build time.
var version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docvault",
	Short: "Local document vault with semantic question answering",
	Long: `docvault ingests text and PDF documents into a local vector index
and answers questions about them, grounded in the retrieved passages.
All state stays on this machine.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default ~/.docvault/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose logging to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// app bundles the wired services behind the commands.
type app struct {
	cfg      *config.Config
	embedder driven.EmbeddingService
	llm      driven.LLMService
	index    driven.VectorIndex
	queryLog driven.QueryLogStore
	registry *extractors.Registry

	ingestor  *services.IngestService
	retriever *services.RetrieveService
	composer  *services.AnswerService
}

// buildApp loads configuration and wires every service. The embedding
// provider must be reachable; a configured-but-unreachable LLM is
// downgraded to retrieval-only answers with a warning.
func buildApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(cfg.Embedding)
	if err != nil {
		return nil, err
	}

	llm, err := ai.CreateAndValidateLLMService(cfg.LLM)
	if err != nil {
		logger.Warn("LLM unavailable, answers degrade to sources only: %v", err)
		llm = nil
	}

	var index driven.VectorIndex
	switch cfg.Storage.Index {
	case "memory":
		index = memory.New(embedder.Dimensions())
	default:
		index, err = vecsqlite.New(cfg.Storage.DataDir, embedder.Dimensions())
		if err != nil {
			embedder.Close()
			return nil, fmt.Errorf("opening vector index: %w", err)
		}
	}

	queryLog, err := logsqlite.New(cfg.Storage.DataDir)
	if err != nil {
		index.Close()
		embedder.Close()
		return nil, fmt.Errorf("opening query log: %w", err)
	}

	ch, err := chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		queryLog.Close()
		index.Close()
		embedder.Close()
		return nil, err
	}

	registry := extractors.NewRegistry(plaintext.New(), pdf.New())
	limiter := rate.NewLimiter(rate.Limit(cfg.Embedding.RequestsPerSecond), 1)

	a := &app{
		cfg:      cfg,
		embedder: embedder,
		llm:      llm,
		index:    index,
		queryLog: queryLog,
		registry: registry,
	}
	a.ingestor = services.NewIngestService(registry, embedder, index, ch, limiter)
	a.retriever = services.NewRetrieveService(embedder, index)
	a.composer = services.NewAnswerService(llm, anonymizer.New(),
		cfg.LLM.MaxTokens, cfg.LLM.Temperature)
	return a, nil
}

// Close releases every resource held by the app.
func (a *app) Close() {
	if a.queryLog != nil {
		a.queryLog.Close()
	}
	if a.index != nil {
		a.index.Close()
	}
	if a.llm != nil {
		a.llm.Close()
	}
	if a.embedder != nil {
		a.embedder.Close()
	}
}
