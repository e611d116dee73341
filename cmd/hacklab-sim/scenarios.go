package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hacklab-sim/internal/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the built-in battle scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := scenario.BuiltIn()
		names := make([]string, 0, len(catalog))
		for name := range catalog {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPHASES\tDURATION\tDESCRIPTION")
		for _, name := range names {
			scn := catalog[name]
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", name, len(scn.Phases), scn.TotalDuration(), scn.Description)
		}
		return w.Flush()
	},
}
