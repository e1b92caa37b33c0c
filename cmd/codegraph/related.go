package main

import (
	"github.com/spf13/cobra"
)

var relatedCmd = &cobra.Command{
	Use:   "related <dir> <path>",
	Short: "List the imports, importers and references of one file",
	Args:  cobra.ExactArgs(2),
	RunE:  runRelated,
}

func init() {
	rootCmd.AddCommand(relatedCmd)
}

func runRelated(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.indexer.IndexDirectory(cmd.Context(), args[0]); err != nil {
		return err
	}

	rel, err := a.indexer.GetRelatedFiles(args[1])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), map[string]any{
		"path":          args[1],
		"relationships": rel,
	})
}
