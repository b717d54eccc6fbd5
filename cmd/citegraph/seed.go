package main

import (
	"github.com/spf13/cobra"

	"github.com/lmartin/citegraph/internal/citation"
	"github.com/lmartin/citegraph/internal/importer"
	"github.com/lmartin/citegraph/internal/pdf"
)

var seedPDFPath string

func init() {
	seedCmd.Flags().StringVar(&seedPDFPath, "pdf", "", "Extract the DOI from this PDF instead of passing it as an argument")
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed [doi]",
	Short: "Seed the graph with a DOI and expand one hop",
	Long: `Seed the citation graph with a publication.

Fetches the publication's metadata from CrossRef, stores it as a root,
and imports the metadata of every cited work that has a DOI. Seeding an
already known publication re-runs the import and makes it a root.

Examples:
  citegraph seed 10.1093/molbev/msaa123
  citegraph seed --pdf paper.pdf`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSeed,
}

// SeedResponse is the JSON output of the seed command.
type SeedResponse struct {
	Publication *citation.Publication `json:"publication"`
	Report      *importer.Report      `json:"report"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	doi := ""
	switch {
	case seedPDFPath != "":
		if len(args) > 0 {
			exitWithError(ExitError, "pass either a DOI or --pdf, not both")
		}
		extracted, err := pdf.ExtractDOI(seedPDFPath)
		if err != nil {
			exitWithError(ExitError, "reading %s: %v", seedPDFPath, err)
		}
		if extracted == "" {
			exitWithError(ExitNotFound, "no DOI found in %s", seedPDFPath)
		}
		doi = extracted
	case len(args) == 1:
		doi = args[0]
	default:
		exitWithError(ExitError, "a DOI argument or --pdf is required")
	}

	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	imp := newImporter(cfg, db)
	pub, report, err := imp.Seed(cmd.Context(), doi)
	if err != nil {
		exitWithError(ExitError, "seeding %s: %v", doi, err)
	}

	if humanOutput {
		printReportHuman(pub, report)
		return nil
	}
	return outputJSON(SeedResponse{Publication: pub, Report: report})
}

func printReportHuman(pub *citation.Publication, report *importer.Report) {
	outputHuman("%s  %s\n", pub.ID, pub.Label())
	if report.NoMetadata {
		outputHuman("  no metadata available for this DOI\n")
		return
	}
	outputHuman("  authors: %d  references: %d  created: %d\n",
		report.Authors, report.Edges, report.Created)
	if report.ChildImports > 0 {
		outputHuman("  imported metadata for %d cited works\n", report.ChildImports)
	}
	for _, failure := range report.ChildFailures {
		outputHuman("  warning: %s\n", failure)
	}
}
