package commands

import (
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docrag/internal/config"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool

	// Loaded in PersistentPreRunE.
	globalConfig *config.AppConfig
	logger       = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "docrag",
	Short: "Question answering over uploaded documents",
	Long: `docrag - retrieval-augmented question answering over your documents.

Documents are split into chunks, embedded and kept in a local vector index.
Questions about one document are answered from its closest chunks.

Examples:
  docrag ingest contract.pdf notes/*.txt
  docrag context --doc 1 "when does the contract end?"
  docrag ask --doc 1 "when does the contract end?"
  docrag serve`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./docrag.yaml or ~/.config/docrag/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(serveCmd, ingestCmd, contextCmd, askCmd, reindexCmd, documentsCmd, historyCmd, consoleCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	// A missing .env is normal.
	_ = godotenv.Load()

	var (
		cfg *config.AppConfig
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}
	globalConfig = cfg

	level := parseLevel(cfg.Log.Level)
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	} else {
		h = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	}
	logger = slog.New(h)
	slog.SetDefault(logger)
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
