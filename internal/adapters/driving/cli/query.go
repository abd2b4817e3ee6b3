package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/halcyon-labs/docvault/internal/adapters/driving/httpapi"
	"github.com/halcyon-labs/docvault/internal/core/domain"
)

var (
	queryK         int
	queryThreshold float64
	querySource    string
	queryMinPage   int
	queryMaxPage   int
	queryJSON      bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question about the indexed documents",
	Long: `Embeds the question, retrieves the most similar chunks and asks
the configured LLM for an answer grounded in them. The sources backing
the answer are always listed.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryK, "top", "k", httpapi.DefaultK,
		"maximum number of sources")
	queryCmd.Flags().Float64Var(&queryThreshold, "threshold", httpapi.DefaultScoreThreshold,
		"minimum similarity in [0,1]")
	queryCmd.Flags().StringVar(&querySource, "source", "", "restrict to one source file")
	queryCmd.Flags().IntVar(&queryMinPage, "min-page", 0, "restrict to pages >= this")
	queryCmd.Flags().IntVar(&queryMaxPage, "max-page", 0, "restrict to pages <= this")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	question := args[0]

	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	opts := domain.RetrieveOptions{
		K:              queryK,
		ScoreThreshold: queryThreshold,
		Filter:         domain.QueryFilter{Source: querySource},
	}
	if queryMinPage > 0 {
		opts.Filter.MinPage = &queryMinPage
	}
	if queryMaxPage > 0 {
		opts.Filter.MaxPage = &queryMaxPage
	}

	ctx := context.Background()
	sources, err := app.retriever.Retrieve(ctx, question, opts)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	answer, err := app.composer.Compose(ctx, question, sources)
	if err != nil {
		return fmt.Errorf("composing answer failed: %w", err)
	}

	if err := app.queryLog.Save(ctx, domain.QueryRecord{
		Question:  question,
		Answer:    answer.Text,
		Sources:   answer.Sources,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		// History is best effort.
		cmd.PrintErrf("warning: saving query history failed: %v\n", err)
	}

	if queryJSON {
		return outputAnswerJSON(cmd, answer)
	}
	outputAnswerText(cmd, answer)
	return nil
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)

	if len(answer.Sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, src := range answer.Sources {
		location := src.Source
		if src.PageNumber != nil {
			location = fmt.Sprintf("%s, page %d", src.Source, *src.PageNumber)
		}
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, location, src.Similarity)
		if src.Snippet != "" {
			cmd.Printf("      %s\n", src.Snippet)
		}
	}
}
