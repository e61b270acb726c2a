package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
)

func (a *app) newCatalogCommand() *cobra.Command {
	format := newFormatFlag("table", "table", "json", "yaml")

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the models and metrics that can be selected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := a.cfg.ModelCatalog()
			out := cmd.OutOrStdout()
			switch format.value {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(catalog)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(catalog); err != nil {
					return err
				}
				return enc.Close()
			default:
				printOptions(out, "Models", catalog.Models)
				fmt.Fprintln(out) //nolint:errcheck
				printOptions(out, "Metrics", catalog.Metrics)
				return nil
			}
		},
	}

	cmd.Flags().VarP(format, "format", "f", format.usage())

	return cmd
}

func printOptions(w io.Writer, title string, opts []models.Option) {
	width := 0
	for _, o := range opts {
		width = max(width, runewidth.StringWidth(o.Value))
	}
	printHeading(w, title)
	for _, o := range opts {
		fmt.Fprintf(w, "  %s  %s\n", runewidth.FillRight(o.Value, width), o.Label) //nolint:errcheck
	}
}
