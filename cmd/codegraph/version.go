package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/codegraph-mcp/internal/language"
	"github.com/dshills/codegraph-mcp/internal/mcp"
	"github.com/dshills/codegraph-mcp/internal/storage"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Args:  cobra.NoArgs,
	// version needs no configuration
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "CodeGraph MCP Server\n")
		fmt.Fprintf(out, "Version: %s\n", version)
		fmt.Fprintf(out, "Protocol Server: %s %s\n", mcp.ServerName, mcp.ServerVersion)
		fmt.Fprintf(out, "Build Time: %s\n", buildTime)
		fmt.Fprintf(out, "Build Mode: %s\n", storage.BuildMode)
		fmt.Fprintf(out, "SQLite Driver: %s\n", storage.DriverName)
		fmt.Fprintf(out, "Languages: %d\n", len(language.Supported()))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
