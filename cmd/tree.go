package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jcdickinson/cratemap/internal/rustdoc"
	"github.com/jcdickinson/cratemap/internal/xref"
)

var treeCmd = &cobra.Command{
	Use:   "tree <crate>[@version]",
	Short: "Print a crate's module tree",
	Args:  cobra.ExactArgs(1),
	Run:   runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) {
	name, version, ok := strings.Cut(args[0], "@")
	if !ok {
		version = "latest"
	}

	app, err := openApp()
	if err != nil {
		fatal("startup failed", err)
	}
	defer app.Close()

	crate, err := app.loader.Load(cmd.Context(), name, version)
	if err != nil {
		fatal("loading crate failed", err)
	}

	res := xref.NewResolver(crate)
	res.WalkTree(func(e xref.TreeEntry) bool {
		label := res.Name(e.ID)
		if label == "" {
			label = string(e.ID)
		}
		kind := e.Item.Kind()
		if kind == rustdoc.KindImport {
			// Show where the use statement points.
			if imp, ok := e.Item.Inner.(*rustdoc.Import); ok && imp.Source != "" {
				label = fmt.Sprintf("%s = %s", label, imp.Source)
			}
		}
		fmt.Printf("%s%s (%s)\n", strings.Repeat("  ", e.Depth), label, kind)
		return true
	})
}
