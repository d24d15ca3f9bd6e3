package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var itemCmd = &cobra.Command{
	Use:   "item <rsdoc://crate/version/path | crate path>",
	Short: "Print a documentation item by URI or path",
	Example: `  cratemap item rsdoc://serde/latest/serde::Serialize
  cratemap item rsdoc://serde/1.0.200/serde::Serialize#required-methods
  cratemap item tokio tokio::spawn`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runItem,
}

func init() {
	rootCmd.AddCommand(itemCmd)
}

func runItem(cmd *cobra.Command, args []string) {
	var crate, version, path string
	if len(args) == 2 {
		crate, version, path = args[0], "latest", args[1]
	} else {
		uri := strings.TrimPrefix(args[0], "rsdoc://")
		parts := strings.SplitN(uri, "/", 3)
		if len(parts) < 3 {
			fatal("invalid URI", fmt.Errorf("need crate/version/path, got %q", args[0]))
		}
		crate, version, path = parts[0], parts[1], parts[2]
	}

	var fragment string
	if idx := strings.LastIndex(path, "#"); idx >= 0 {
		fragment = path[idx+1:]
		path = path[:idx]
	}

	app, err := openApp()
	if err != nil {
		fatal("startup failed", err)
	}
	defer app.Close()

	doc, err := app.reader.ReadDoc(cmd.Context(), crate, version, path, fragment)
	if err != nil {
		fatal("item lookup failed", err)
	}
	fmt.Print(doc)
}
