package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [source]",
	Short: "Remove an ingested document from the index",
	Long: `Removes every chunk that was ingested from the named source file.
The source is the filename the document was ingested under.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	deleted, err := app.ingestor.DeleteDocument(context.Background(), args[0])
	if err != nil {
		return err
	}
	cmd.Printf("Deleted %d chunk(s) from %s\n", deleted, args[0])
	return nil
}
