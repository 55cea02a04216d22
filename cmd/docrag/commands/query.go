package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	docID int64
	topK  int
)

var contextCmd = &cobra.Command{
	Use:   "context --doc <id> <question>",
	Short: "Print the excerpts of a document closest to a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := docFlag(docID); err != nil {
			return err
		}
		q, err := parseQuestion(args)
		if err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.svc.Resolve(cmd.Context(), q, docID, topK)
		if err != nil {
			return err
		}
		out := struct {
			DocumentID int64    `json:"document_id"`
			Status     string   `json:"status"`
			Context    []string `json:"context"`
		}{docID, res.Status.String(), res.Context()}

		return printResult(cmd, out, func(w io.Writer) {
			if len(res.Matches) == 0 {
				fmt.Fprintln(w, out.Context[0])
				return
			}
			for i, m := range res.Matches {
				fmt.Fprintf(w, "[%d] chunk %d  distance %.4f\n%s\n\n", i+1, m.ChunkID, m.Distance, m.Text)
			}
		})
	},
}

var askCmd = &cobra.Command{
	Use:   "ask --doc <id> <question>",
	Short: "Answer a question about a document",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := docFlag(docID); err != nil {
			return err
		}
		q, err := parseQuestion(args)
		if err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.svc.Ask(cmd.Context(), docID, q, topK)
		if err != nil {
			return err
		}
		return printResult(cmd, res, func(w io.Writer) {
			fmt.Fprintln(w, res.Answer)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{contextCmd, askCmd} {
		c.Flags().Int64VarP(&docID, "doc", "d", 0, "document id")
		c.Flags().IntVarP(&topK, "top-k", "k", 0, "number of excerpts (default from config)")
		_ = c.MarkFlagRequired("doc")
	}
}
