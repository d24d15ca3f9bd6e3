package cmd

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcdickinson/cratemap/internal/cache"
	"github.com/jcdickinson/cratemap/internal/cas"
	"github.com/jcdickinson/cratemap/internal/config"
	"github.com/jcdickinson/cratemap/internal/db"
	"github.com/jcdickinson/cratemap/internal/fetch"
	"github.com/jcdickinson/cratemap/internal/index"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "cratemap",
	Short: "Typed index of Rust crate API surfaces from docs.rs",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// app bundles the wired storage and fetch layers the commands share.
type app struct {
	cfg     *config.Config
	db      *db.DB
	store   *cas.Store
	loader  *cache.Loader
	indexer *index.Indexer
	reader  *index.Reader
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	database, err := db.New(config.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := cas.Default()
	loader := cache.NewLoader(cache.Default(), fetch.NewClient(cfg.DocsRs), cfg.Validate.OnFetch)
	indexer := index.New(database, store, loader, slog.Default())
	reader := index.NewReader(database, store, loader)

	return &app{
		cfg:     cfg,
		db:      database,
		store:   store,
		loader:  loader,
		indexer: indexer,
		reader:  reader,
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
