package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/davidschrooten/esmapper/internal/models"
	"github.com/davidschrooten/esmapper/internal/schema"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the registered models and their indexes",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	registry, err := models.Registry()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tINDEX\tTYPE\tFIELDS")
	for _, m := range registry.Models() {
		s, err := schema.CompileSchema(m)
		if err != nil {
			return err
		}
		fields := s.Mapping.Sub(schema.ParamProperties).Len()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", m.Name, s.IndexName, s.TypeName, fields)
	}
	return tw.Flush()
}
