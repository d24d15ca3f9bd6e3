package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jcdickinson/cratemap/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the index over the Model Context Protocol on stdio",
	Args:  cobra.NoArgs,
	Run:   runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) {
	app, err := openApp()
	if err != nil {
		fatal("startup failed", err)
	}
	defer app.Close()

	srv := mcp.NewServer(app.db, app.loader, app.indexer, app.reader, app.cfg.DocsRs.Concurrency)
	if err := srv.Run(); err != nil {
		fatal("mcp server failed", err)
	}
}
