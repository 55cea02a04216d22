package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"docrag/internal/extract"
	"docrag/internal/service"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file|glob>...",
	Short: "Add text or PDF files to the document store and index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var paths []string
		for _, p := range args {
			matches, _ := filepath.Glob(p)
			if matches == nil {
				matches = []string{p}
			}
			paths = append(paths, matches...)
		}

		results := make([]service.IngestResult, 0, len(paths))
		for _, p := range paths {
			abs, err := filepath.Abs(p)
			if err != nil {
				return err
			}
			text, err := extract.FromFile(abs)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			res, err := a.svc.Ingest(cmd.Context(), service.Upload{Filename: filepath.Base(abs), Path: abs, Text: text})
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			results = append(results, res)
		}

		return printResult(cmd, results, func(w io.Writer) {
			for _, r := range results {
				fmt.Fprintf(w, "document %d  %s  %d chunk(s)\n", r.Document.ID, r.Document.Filename, r.Chunks)
				if r.Summary != "" {
					fmt.Fprintf(w, "  %s\n", truncate(r.Summary, 200))
				}
			}
		})
	},
}
