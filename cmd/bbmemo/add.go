package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonyski/bbmemo/internal/memo"
)

var (
	addTags     []string
	addReminder string
	addPin      bool
)

var addCmd = &cobra.Command{
	Use:   "add <content>",
	Short: "Create a note",
	Long: `Create a note from the given content. Inline #hashtags are indexed
automatically; --tag adds tags without putting them in the content.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, done, err := openService()
		if err != nil {
			fatal("open database", err)
		}
		defer done()

		p := memo.CreateParams{
			Content:  strings.Join(args, " "),
			TagNames: addTags,
		}
		if addReminder != "" {
			at, err := time.Parse(time.RFC3339, addReminder)
			if err != nil {
				fatal("parse --reminder (want RFC 3339, e.g. 2026-09-01T09:00:00Z)", err)
			}
			p.ReminderAt = &at
		}

		note, err := svc.CreateNote(cmd.Context(), p)
		if err != nil {
			fatal("create note", err)
		}

		if addPin {
			if note, err = svc.TogglePinned(cmd.Context(), note.ID); err != nil {
				fatal("pin note", err)
			}
		}
		fmt.Println(note.ID)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringArrayVar(&addTags, "tag", nil, "Attach a tag (repeatable)")
	addCmd.Flags().StringVar(&addReminder, "reminder", "", "Reminder time in RFC 3339 format")
	addCmd.Flags().BoolVar(&addPin, "pin", false, "Pin the new note")
}
