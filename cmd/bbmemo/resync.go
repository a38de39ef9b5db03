package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Recount tag usage from note associations",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc, done, err := openService()
		if err != nil {
			fatal("open database", err)
		}
		defer done()

		if err := svc.ResyncTagUsage(cmd.Context()); err != nil {
			fatal("resync", err)
		}
		fmt.Println("tag usage counts resynced")
	},
}

func init() {
	rootCmd.AddCommand(resyncCmd)
}
