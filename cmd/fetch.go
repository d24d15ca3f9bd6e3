package cmd

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [crate[@version] ...]",
	Short: "Fetch and index crate documentation from docs.rs",
	Long:  `Download rustdoc JSON, decode and validate it, and index the item graph locally. Version defaults to "latest".`,
	Example: `  cratemap fetch serde
  cratemap fetch serde@1.0.200 tokio@1.35.0
  cratemap fetch serde serde_json tokio`,
	Args: cobra.MinimumNArgs(1),
	Run:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) {
	app, err := openApp()
	if err != nil {
		fatal("startup failed", err)
	}
	defer app.Close()

	var mu sync.Mutex
	failed := 0

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(app.cfg.DocsRs.Concurrency)
	for _, arg := range args {
		arg := arg
		g.Go(func() error {
			name, version, _ := strings.Cut(arg, "@")
			res, err := app.indexer.Index(ctx, name, version)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				fmt.Printf("  %s: error: %v\n", arg, err)
				return nil
			}
			fmt.Printf("  %s@%s: %d items, %d re-exports\n",
				res.Crate.Name, res.Crate.Version, res.Items, res.Reexports)
			return nil
		})
	}
	g.Wait()

	if failed > 0 {
		fatal("fetch failed", fmt.Errorf("%d of %d crates failed", failed, len(args)))
	}
}
