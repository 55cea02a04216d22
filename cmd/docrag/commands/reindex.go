package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the whole index from stored documents",
	Long: `Rebuild discards the vector index and embeds every stored document again.
Use it after changing the embedder or chunk size, or when the index on disk
could not be loaded. The old index stays in use until the rebuild succeeds.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.svc.RebuildAll(cmd.Context())
		if err != nil {
			return err
		}
		return printResult(cmd, map[string]int{"chunks": n}, func(w io.Writer) {
			fmt.Fprintf(w, "index rebuilt: %d chunk(s)\n", n)
		})
	},
}
