package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jcdickinson/cratemap/internal/db"
)

var (
	searchCrates []string
	searchKind   string
	searchLimit  int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed items by name or path",
	Example: `  cratemap search Deserialize
  cratemap search --crate tokio spawn
  cratemap search --kind trait --crate serde`,
	Args: cobra.MaximumNArgs(1),
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVarP(&searchCrates, "crate", "c", nil, "limit the search to these crates")
	searchCmd.Flags().StringVarP(&searchKind, "kind", "k", "", "list items of one kind (e.g. trait, struct, function)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	var query string
	if len(args) == 1 {
		query = args[0]
	}
	if query == "" && searchKind == "" {
		fatal("search failed", fmt.Errorf("need a query or --kind"))
	}

	app, err := openApp()
	if err != nil {
		fatal("startup failed", err)
	}
	defer app.Close()

	crates, err := app.db.ListCrates()
	if err != nil {
		fatal("listing crates failed", err)
	}
	byID := make(map[int]db.Crate, len(crates))
	var crateIDs []int
	for _, c := range crates {
		byID[c.ID] = c
		if len(searchCrates) > 0 && !sliceContains(searchCrates, c.Name) {
			continue
		}
		crateIDs = append(crateIDs, c.ID)
	}
	if len(searchCrates) > 0 && len(crateIDs) == 0 {
		fatal("search failed", fmt.Errorf("none of the requested crates are indexed"))
	}

	var items []db.Item
	if searchKind != "" {
		items, err = itemsByKind(app, crateIDs, query)
	} else {
		items, err = app.db.SearchItems(query, crateIDs, searchLimit)
	}
	if err != nil {
		fatal("search failed", err)
	}

	for _, it := range items {
		crate := byID[it.CrateID]
		fmt.Printf("rsdoc://%s/%s/%s\t%s\n", crate.Name, crate.Version, it.Path, it.Kind)
		if it.Summary != "" {
			fmt.Printf("  %s\n", it.Summary)
		}
	}
}

// itemsByKind lists each crate's items of the requested kind, optionally
// narrowed by a path substring.
func itemsByKind(app *app, crateIDs []int, query string) ([]db.Item, error) {
	var items []db.Item
	for _, id := range crateIDs {
		rows, err := app.db.ListItemsByKind(id, searchKind)
		if err != nil {
			return nil, err
		}
		for _, it := range rows {
			if query != "" && !strings.Contains(it.Path, query) {
				continue
			}
			items = append(items, it)
			if len(items) >= searchLimit {
				return items, nil
			}
		}
	}
	return items, nil
}

func sliceContains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
