package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var purgeOlderThan time.Duration

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Permanently delete old notes from the recycle bin",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc, done, err := openService()
		if err != nil {
			fatal("open database", err)
		}
		defer done()

		olderThan := purgeOlderThan
		if !cmd.Flags().Changed("older-than") {
			olderThan = cfg.RecycleBinRetention
		}
		n, err := svc.PurgeRecycleBin(cmd.Context(), olderThan)
		if err != nil {
			fatal("purge recycle bin", err)
		}
		fmt.Printf("purged %d notes\n", n)
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
	purgeCmd.Flags().DurationVar(&purgeOlderThan, "older-than", 0, "Purge notes deleted more than this long ago (default from config)")
}
