package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fpang/spot-the-difference/internal/game"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the theme catalog and difficulties",
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tICON")
		for _, t := range game.Themes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Name, t.Icon)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "DIFFICULTY\tLABEL\tDIFFERENCES")
		for _, d := range game.Difficulties() {
			fmt.Fprintf(w, "%s\t%s\t%d\n", d.Difficulty, d.Label, d.Count)
		}
		w.Flush()
	},
}
