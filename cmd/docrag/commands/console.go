package commands

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docrag/internal/tui"
)

var consoleDoc int64

var consoleCmd = &cobra.Command{
	Use:   "console --doc <id>",
	Short: "Interactive console for one document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := docFlag(consoleDoc); err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := a.svc.Document(cmd.Context(), consoleDoc)
		if err != nil {
			return err
		}
		m := tui.New(cmd.Context(), a.svc, doc, a.cfg.Index.DefaultTopK)
		_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	},
}

func init() {
	consoleCmd.Flags().Int64VarP(&consoleDoc, "doc", "d", 0, "document id")
	_ = consoleCmd.MarkFlagRequired("doc")
}
