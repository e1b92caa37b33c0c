package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/codegraph-mcp/internal/config"
)

var (
	cfg    *config.Config
	logger *slog.Logger

	dbPathFlag   string
	noStoreFlag  bool
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "codegraph",
	Short: "Codebase relationship graph and relevance ranking",
	Long: `codegraph indexes a source tree into a graph of files linked by imports and
references, and ranks files against natural-language questions. Run "serve"
to expose it to AI assistants over the Model Context Protocol.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Database path (overrides "+config.EnvDBPath+")")
	rootCmd.PersistentFlags().BoolVar(&noStoreFlag, "no-store", false, "Keep the index in memory only")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
}

// loadConfig resolves configuration once per invocation. Flags win over the
// environment and the config file.
func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cmd.Flags().Changed("db") {
		loaded.DBPath = dbPathFlag
	}
	if noStoreFlag {
		loaded.DBPath = ""
	}
	if logLevelFlag != "" {
		loaded.LogLevel = logLevelFlag
		if err := loaded.Validate(); err != nil {
			return err
		}
	}

	cfg = loaded
	// stdout is reserved for the MCP protocol and command output
	logger = cfg.Logger(os.Stderr)
	return nil
}

// printJSON writes v to w as indented JSON
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
