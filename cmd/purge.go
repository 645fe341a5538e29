package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	purgeField     string
	purgeOlderThan time.Duration
)

var purgeCmd = &cobra.Command{
	Use:   "purge <model>",
	Short: "Delete documents older than a given age",
	Long: `Delete every document of the model's index whose timestamp field, in
epoch milliseconds, is older than --older-than.`,
	Args: cobra.ExactArgs(1),
	RunE: runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)

	purgeCmd.Flags().StringVar(&purgeField, "field", "createTime", "epoch-millisecond timestamp field")
	purgeCmd.Flags().DurationVar(&purgeOlderThan, "older-than", 24*time.Hour, "maximum document age")
}

func runPurge(cmd *cobra.Command, args []string) error {
	if purgeOlderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
	}
	service, closeFn, err := newService()
	if err != nil {
		return err
	}
	defer closeQuietly(cmd.Context(), closeFn)

	m, err := findModel(service.Registry(), args[0])
	if err != nil {
		return err
	}
	deleted, err := service.PurgeOlderThan(cmd.Context(), m.Name, purgeField, purgeOlderThan)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d documents\n", deleted)
	return nil
}
