package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/halcyon-labs/docvault/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Starts the HTTP API serving /ingest, /query, /documents,
/health, /stats and /history. Shuts down gracefully on SIGINT/SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"listen address (overrides [server] in the config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	addr := serveAddr
	if addr == "" {
		addr = app.cfg.Server.Addr()
	}

	handler := httpapi.NewHandler(
		app.ingestor, app.retriever, app.composer,
		app.registry, app.index, app.embedder, app.llm, app.queryLog,
	)
	server := httpapi.NewServer(addr, handler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("docvault API listening on %s\n", addr)
	return server.Run(ctx)
}
