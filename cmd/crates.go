package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cratesCmd = &cobra.Command{
	Use:   "crates",
	Short: "List locally indexed crates",
	Args:  cobra.NoArgs,
	Run:   runCrates,
}

func init() {
	rootCmd.AddCommand(cratesCmd)
}

func runCrates(cmd *cobra.Command, args []string) {
	app, err := openApp()
	if err != nil {
		fatal("startup failed", err)
	}
	defer app.Close()

	crates, err := app.db.ListCrates()
	if err != nil {
		fatal("listing crates failed", err)
	}
	if len(crates) == 0 {
		fmt.Println("no crates indexed; run `cratemap fetch <crate>` first")
		return
	}

	for _, c := range crates {
		status := "fetched"
		if c.IndexedAt != nil {
			status = "indexed"
		}
		fmt.Printf("%s@%s\tformat %d\t%s\n", c.Name, c.Version, c.FormatVersion, status)
	}
}
