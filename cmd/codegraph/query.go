package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/codegraph-mcp/internal/mcp"
)

var queryMaxFiles int

var queryCmd = &cobra.Command{
	Use:   "query <dir> <question>",
	Short: "Index a source tree and rank its files against a question",
	Long: `Index the directory, then print the files most relevant to the question
together with their scores and neighbours. Words after <dir> are joined into
one question.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVar(&queryMaxFiles, "max-files", 0, "Number of seed files (default from configuration)")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	maxFiles := cfg.MaxFiles
	if cmd.Flags().Changed("max-files") {
		maxFiles = queryMaxFiles
	}
	if maxFiles < 1 || maxFiles > mcp.MaxFilesLimit {
		return fmt.Errorf("--max-files must be between 1 and %d", mcp.MaxFilesLimit)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.indexer.IndexDirectory(cmd.Context(), args[0]); err != nil {
		return err
	}

	question := strings.Join(args[1:], " ")
	result, err := a.indexer.FindRelevantFiles(cmd.Context(), question, maxFiles)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}
