package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <note-id>",
	Short: "Restore a note from the recycle bin",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, done, err := openService()
		if err != nil {
			fatal("open database", err)
		}
		defer done()

		note, err := svc.RestoreNote(cmd.Context(), args[0])
		if err != nil {
			fatal("restore note", err)
		}
		fmt.Printf("restored %s\n", note.ID)
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
