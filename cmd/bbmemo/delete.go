package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deletePermanent bool

var deleteCmd = &cobra.Command{
	Use:   "delete <note-id>",
	Short: "Move a note to the recycle bin (or delete it for good)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, done, err := openService()
		if err != nil {
			fatal("open database", err)
		}
		defer done()

		if deletePermanent {
			if err := svc.PermanentlyDeleteNote(cmd.Context(), args[0]); err != nil {
				fatal("delete note", err)
			}
			fmt.Println("note permanently deleted")
			return
		}
		if _, err := svc.SoftDeleteNote(cmd.Context(), args[0]); err != nil {
			fatal("delete note", err)
		}
		fmt.Println("note moved to recycle bin")
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVar(&deletePermanent, "permanent", false, "Skip the recycle bin and delete immediately")
}
