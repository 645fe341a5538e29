package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/davidschrooten/esmapper/config"
	"github.com/davidschrooten/esmapper/internal/models"
	"github.com/davidschrooten/esmapper/internal/schema"
	"github.com/davidschrooten/esmapper/internal/search"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "List the indexes of the local bleve store",
	Args:  cobra.NoArgs,
	RunE:  runIndexes,
}

var dropCmd = &cobra.Command{
	Use:   "drop <model>",
	Short: "Delete a model's index from the local bleve store",
	Args:  cobra.ExactArgs(1),
	RunE:  runDrop,
}

func init() {
	rootCmd.AddCommand(indexesCmd)
	rootCmd.AddCommand(dropCmd)
}

// openEngine opens the local store; command only runs on the bleve backend
func openEngine(command string) (*search.Engine, error) {
	if cfg.Backend != config.BackendBleve {
		return nil, fmt.Errorf("%s requires the %s backend, got %s", command, config.BackendBleve, cfg.Backend)
	}
	engine, err := search.NewEngine(cfg.Search, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize search engine: %w", err)
	}
	return engine, nil
}

func runIndexes(cmd *cobra.Command, args []string) error {
	engine, err := openEngine(cmd.Name())
	if err != nil {
		return err
	}
	defer closeQuietly(cmd.Context(), engine.Close)

	infos, err := engine.ListIndexes()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tDOCS\tSTATUS")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Name, info.DocCount, info.Status)
	}
	return tw.Flush()
}

func runDrop(cmd *cobra.Command, args []string) error {
	registry, err := models.Registry()
	if err != nil {
		return err
	}
	m, err := findModel(registry, args[0])
	if err != nil {
		return err
	}
	index, err := schema.IndexNameOf(m)
	if err != nil {
		return err
	}

	engine, err := openEngine(cmd.Name())
	if err != nil {
		return err
	}
	defer closeQuietly(cmd.Context(), engine.Close)

	if err := engine.RemoveIndex(index); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "dropped %s\n", index)
	return nil
}
