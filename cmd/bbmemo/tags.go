package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonyski/bbmemo/internal/store"
)

var (
	tagsJSON   bool
	tagsByName bool
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags with usage counts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc, done, err := openService()
		if err != nil {
			fatal("open database", err)
		}
		defer done()

		sortBy := store.TagSortUsageDesc
		if tagsByName {
			sortBy = store.TagSortNameAsc
		}
		tags, err := svc.ListTags(cmd.Context(), sortBy)
		if err != nil {
			fatal("list tags", err)
		}

		if tagsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(tags); err != nil {
				fatal("encode JSON", err)
			}
			return
		}
		for _, t := range tags {
			fmt.Printf("%6d  %s\n", t.UsageCount, t.DisplayName)
		}
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)
	tagsCmd.Flags().BoolVar(&tagsJSON, "json", false, "Output in JSON format")
	tagsCmd.Flags().BoolVar(&tagsByName, "by-name", false, "Sort alphabetically instead of by usage")
}
