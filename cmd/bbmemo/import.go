package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonyski/bbmemo/internal/flomo"
)

var importCmd = &cobra.Command{
	Use:   "import <export.html>",
	Short: "Import a flomo HTML export",
	Long: `Import notes from a flomo HTML export file. Imports are idempotent:
running the same file twice inserts nothing the second time.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		candidates, err := flomo.ParseFile(args[0])
		if err != nil {
			fatal("parse export", err)
		}

		svc, done, err := openService()
		if err != nil {
			fatal("open database", err)
		}
		defer done()

		res, err := svc.ImportBatch(cmd.Context(), candidates)
		if err != nil {
			fatal("import", err)
		}
		fmt.Printf("imported %d of %d notes\n", res.ImportedCount, len(candidates))
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
