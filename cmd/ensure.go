package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ensureCmd = &cobra.Command{
	Use:   "ensure [model...]",
	Short: "Create the indexes of the given models, or of all models, if missing",
	RunE:  runEnsure,
}

func init() {
	rootCmd.AddCommand(ensureCmd)
}

func runEnsure(cmd *cobra.Command, args []string) error {
	service, closeFn, err := newService()
	if err != nil {
		return err
	}
	defer closeQuietly(cmd.Context(), closeFn)

	names := make([]string, 0, len(args))
	for _, arg := range args {
		m, err := findModel(service.Registry(), arg)
		if err != nil {
			return err
		}
		names = append(names, m.Name)
	}

	results, err := service.EnsureIndexes(cmd.Context(), names...)
	for _, r := range results {
		if r.Index == "" {
			continue
		}
		state := "exists"
		if r.Created {
			state = "created"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", r.Model, r.Index, state)
	}
	return err
}
