package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/llmbridge/core"
	"github.com/hupe1980/llmbridge/model"
)

// modelsCmd lists the selectable models
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models sessions can pair",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func runModels(cmd *cobra.Command, _ []string) error {
	catalog := model.Catalog()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tMODEL\tDISPLAY NAME")
	for _, p := range core.Providers() {
		for _, d := range catalog[p] {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p, d.ModelName, d.DisplayName)
		}
	}
	return w.Flush()
}
