package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pinCmd = &cobra.Command{
	Use:   "pin <note-id>",
	Short: "Toggle a note's pinned state",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, done, err := openService()
		if err != nil {
			fatal("open database", err)
		}
		defer done()

		note, err := svc.TogglePinned(cmd.Context(), args[0])
		if err != nil {
			fatal("toggle pin", err)
		}
		if note.IsPinned {
			fmt.Println("pinned")
		} else {
			fmt.Println("unpinned")
		}
	},
}

func init() {
	rootCmd.AddCommand(pinCmd)
}
