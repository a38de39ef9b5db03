package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonyski/bbmemo/internal/store"
	"github.com/tonyski/bbmemo/internal/tagutil"
)

var (
	listJSON    bool
	listDeleted bool
	listTag     string
	listSearch  string
	listSince   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, pinned first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc, done, err := openService()
		if err != nil {
			fatal("open database", err)
		}
		defer done()

		f := store.ListFilter{
			SearchText:     listSearch,
			IncludeDeleted: listDeleted,
		}
		if listSince != "" {
			since, err := time.Parse(time.RFC3339, listSince)
			if err != nil {
				fatal("parse --since (want RFC 3339)", err)
			}
			f.Since = &since
		}
		if listTag != "" {
			key := tagutil.NormalizedKey(listTag)
			tags, err := svc.ListTags(cmd.Context(), store.TagSortNameAsc)
			if err != nil {
				fatal("list tags", err)
			}
			for _, t := range tags {
				if t.NormalizedKey == key {
					f.TagID = t.ID
					break
				}
			}
			if f.TagID == "" {
				return // unknown tag matches nothing
			}
		}

		notes, err := svc.ListNotes(cmd.Context(), f)
		if err != nil {
			fatal("list notes", err)
		}

		if listJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(notes); err != nil {
				fatal("encode JSON", err)
			}
			return
		}

		for _, n := range notes {
			printNoteLine(&n)
		}
	},
}

func printNoteLine(n *store.Note) {
	var marks []string
	if n.IsPinned {
		marks = append(marks, "pinned")
	}
	if n.Deleted() {
		marks = append(marks, "deleted")
	}
	suffix := ""
	if len(marks) > 0 {
		suffix = " [" + strings.Join(marks, ",") + "]"
	}
	summary := n.Content
	if i := strings.IndexByte(summary, '\n'); i >= 0 {
		summary = summary[:i]
	}
	fmt.Printf("%s  %s  %s%s\n", n.ID, n.CreatedAt.Format("2006-01-02 15:04"), summary, suffix)
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().BoolVar(&listDeleted, "deleted", false, "Show the recycle bin instead of active notes")
	listCmd.Flags().StringVar(&listTag, "tag", "", "Filter notes by tag")
	listCmd.Flags().StringVar(&listSearch, "search", "", "Filter by content or tag text")
	listCmd.Flags().StringVar(&listSince, "since", "", "Only notes created at or after this RFC 3339 time")
}
