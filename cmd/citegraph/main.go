// Package main provides the citegraph CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lmartin/citegraph/internal/citation"
	"github.com/lmartin/citegraph/internal/config"
	"github.com/lmartin/citegraph/internal/crossref"
	"github.com/lmartin/citegraph/internal/importer"
	"github.com/lmartin/citegraph/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	// Optional .env in the working directory supplies CROSSREF_MAILTO and
	// CITEGRAPH_DB overrides.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "citegraph",
	Short: "DOI-seeded citation graph builder",
	Long: `citegraph builds a local citation network from DOIs.

Seeding a DOI fetches its metadata from CrossRef, stores the publication
with its authors, and expands one hop into the works it cites. Further
hops are imported on demand by promoting frontier publications.

Data lives in a local SQLite database. All commands output JSON by
default for scripting; pass --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenDatabase opens the SQLite database, creating its parent directory
// if needed. The caller is responsible for calling Close().
func mustOpenDatabase(cfg *config.Config) *storage.DB {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			exitWithError(ExitError, "creating database directory: %v", err)
		}
	}
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// newImporter wires a CrossRef client per the configuration.
func newImporter(cfg *config.Config, db *storage.DB) *importer.Importer {
	client := crossref.NewClient(
		crossref.WithMailto(cfg.CrossrefMailto),
		crossref.WithTimeout(cfg.FetchTimeout()),
	)
	return importer.New(db, client)
}

// mustResolvePublication accepts either a publication ID or a DOI and
// returns the matching publication, exiting if neither resolves.
func mustResolvePublication(db *storage.DB, arg string) *citation.Publication {
	pub, err := db.GetPublication(arg)
	if err != nil {
		exitWithError(ExitError, "looking up publication: %v", err)
	}
	if pub == nil {
		pub, err = db.GetPublicationByDOI(arg)
		if err != nil {
			exitWithError(ExitError, "looking up publication: %v", err)
		}
	}
	if pub == nil {
		exitWithError(ExitNotFound, "publication not found: %s", arg)
	}
	return pub
}
