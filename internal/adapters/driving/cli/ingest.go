package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/halcyon-labs/docvault/internal/core/domain"
	"github.com/halcyon-labs/docvault/internal/extractors"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Ingest documents into the local index",
	Long: `Reads the given text or PDF files, splits them into chunks,
embeds each chunk and stores it in the local vector index.
Re-ingesting an unchanged file is a no-op.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	docs := make([]domain.Document, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		name := filepath.Base(path)
		docs = append(docs, domain.Document{
			Name:      name,
			MediaType: extractors.MediaTypeForFilename(name),
			Data:      data,
		})
	}

	result, err := app.ingestor.Ingest(context.Background(), docs)

	var ingErr *domain.IngestError
	if err != nil && !errors.As(err, &ingErr) {
		return err
	}

	cmd.Printf("Ingested %d chunk(s) (~%d tokens, %d-dimensional vectors)\n",
		result.InsertedChunks, result.TotalTokensApprox, result.VectorDim)

	if ingErr != nil {
		for _, f := range ingErr.Failures {
			cmd.Printf("  failed: %s: %v\n", f.Source, f.Err)
		}
		return fmt.Errorf("%d of %d document(s) failed", len(ingErr.Failures), len(docs))
	}
	return nil
}
