package main

import (
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index <dir>",
	Short: "Index a source tree and print the build status",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	status, err := a.indexer.IndexDirectory(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	logger.Info("indexing complete",
		"files", status.ProcessedFiles, "failed", status.FailedFiles, "skipped", status.SkippedFiles)
	return printJSON(cmd.OutOrStdout(), status)
}
