package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"docrag/internal/domain"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "List stored documents",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		docs, err := a.svc.Documents(cmd.Context())
		if err != nil {
			return err
		}
		if docs == nil {
			docs = []domain.Document{}
		}
		return printResult(cmd, docs, func(w io.Writer) {
			tw := newTable(w)
			fmt.Fprintln(tw, "ID\tFILENAME\tUPLOADED\tCHARS")
			for _, d := range docs {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", d.ID, d.Filename, d.UploadedAt.Local().Format(time.DateTime), len([]rune(d.Text)))
			}
			tw.Flush()
		})
	},
}

var historyDoc int64

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List answered questions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		qs, err := a.svc.Questions(cmd.Context(), historyDoc)
		if err != nil {
			return err
		}
		if qs == nil {
			qs = []domain.Question{}
		}
		return printResult(cmd, qs, func(w io.Writer) {
			tw := newTable(w)
			fmt.Fprintln(tw, "ID\tDOC\tASKED\tQUESTION\tANSWER")
			for _, q := range qs {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", q.ID, q.DocumentID, q.AskedAt.Local().Format(time.DateTime),
					truncate(q.Question, 40), truncate(q.Answer, 60))
			}
			tw.Flush()
		})
	},
}

func init() {
	historyCmd.Flags().Int64VarP(&historyDoc, "doc", "d", 0, "only questions about this document")
}
