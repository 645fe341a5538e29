package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/davidschrooten/esmapper/internal/models"
	"github.com/davidschrooten/esmapper/internal/schema"
)

var (
	compileFormat string
	legacyTypes   bool
)

var compileCmd = &cobra.Command{
	Use:   "compile <model>",
	Short: "Print the create-index request body of a model",
	Long: `Print the settings and mappings sent when the model's index is created.
The model may be given by name or by index name.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileFormat, "format", "f", "json", "output format: json or yaml")
	compileCmd.Flags().BoolVar(&legacyTypes, "legacy-types", false, "nest mappings under the type name (defaults to elasticsearch.legacy_types)")
}

func runCompile(cmd *cobra.Command, args []string) error {
	registry, err := models.Registry()
	if err != nil {
		return err
	}
	m, err := findModel(registry, args[0])
	if err != nil {
		return err
	}
	s, err := schema.CompileSchema(m)
	if err != nil {
		return err
	}

	legacy := cfg.Elasticsearch.LegacyTypes
	if cmd.Flags().Changed("legacy-types") {
		legacy = legacyTypes
	}
	body := s.Body(legacy)

	out := cmd.OutOrStdout()
	switch compileFormat {
	case "json":
		data, err := json.MarshalIndent(body, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(body); err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", compileFormat)
	}
}
