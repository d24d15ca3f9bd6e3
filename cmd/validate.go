package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jcdickinson/cratemap/internal/cache"
	"github.com/jcdickinson/cratemap/internal/fetch"
	"github.com/jcdickinson/cratemap/internal/rustdoc"
)

var validateCmd = &cobra.Command{
	Use:   "validate <crate[@version]>",
	Short: "Check a crate's rustdoc JSON for internal consistency",
	Long: `Fetch a crate's document and verify its format version and reference
closure: every id a non-nullable field carries must resolve within the
document. Reports the first fault found.`,
	Example: `  cratemap validate serde
  cratemap validate tokio@1.35.0`,
	Args: cobra.ExactArgs(1),
	Run:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	app, err := openApp()
	if err != nil {
		fatal("startup failed", err)
	}
	defer app.Close()

	name, version, _ := strings.Cut(args[0], "@")
	if version == "" {
		version = "latest"
	}

	// Validation is the point here; load without the on-fetch check so a
	// faulty document still decodes and can be reported in detail.
	loader := cache.NewLoader(cache.Default(), fetch.NewClient(app.cfg.DocsRs), false)
	crate, err := loader.Load(cmd.Context(), name, version)
	if err != nil {
		var verr *rustdoc.VersionError
		if errors.As(err, &verr) {
			fmt.Printf("unsupported: %v\n", verr)
			return
		}
		fatal("load failed", err)
	}

	if err := rustdoc.Validate(crate); err != nil {
		fmt.Printf("invalid: %v\n", err)
		return
	}
	fmt.Printf("valid: %d items, %d path entries, format version %d\n",
		len(crate.Index), len(crate.Paths), crate.FormatVersion)
}
