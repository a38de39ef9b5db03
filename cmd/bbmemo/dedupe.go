package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonyski/bbmemo/internal/store"
	"github.com/tonyski/bbmemo/internal/tagdedupe"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Merge duplicate tags",
	Long: `Merge tags whose names differ only in case, whitespace, or '#' edges.
The most-used tag survives; note associations are preserved.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st, err := store.Open(cfg.DatabasePath, cfg.KeyBytes())
		if err != nil {
			fatal("open database", err)
		}
		defer st.Close()

		merged, err := tagdedupe.New(st).MergeDuplicates(cmd.Context())
		if err != nil {
			fatal("merge duplicate tags", err)
		}
		fmt.Printf("merged %d duplicate tags\n", merged)
	},
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
}
