package main

import (
	"github.com/spf13/cobra"

	"github.com/lmartin/citegraph/internal/citation"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <id|doi>",
	Short: "Show a single publication",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

// PublicationDetail is the JSON output of the get command.
type PublicationDetail struct {
	*citation.Publication
	Authors []citation.Author `json:"authors"`
	Cites   int               `json:"cites"`
	CitedBy int               `json:"cited_by"`
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	pub := mustResolvePublication(db, args[0])

	authors, err := db.AuthorsOf(pub.ID)
	if err != nil {
		exitWithError(ExitError, "loading authors: %v", err)
	}
	outgoing, err := db.OutgoingReferences(pub.ID)
	if err != nil {
		exitWithError(ExitError, "loading references: %v", err)
	}
	incoming, err := db.IncomingReferences(pub.ID)
	if err != nil {
		exitWithError(ExitError, "loading citations: %v", err)
	}

	detail := PublicationDetail{
		Publication: pub,
		Authors:     authors,
		Cites:       len(outgoing),
		CitedBy:     len(incoming),
	}

	if humanOutput {
		printPublicationDetail(detail)
		return nil
	}
	return outputJSON(detail)
}

func printPublicationDetail(d PublicationDetail) {
	outputHuman("%s\n", d.ID)
	outputHuman("Title:     %s\n", d.Title)
	if len(d.Authors) > 0 {
		outputHuman("Authors:   %s\n", formatAuthors(d.Authors))
	}
	outputHuman("Date:      %s\n", formatDate(d.Published))
	if d.DOI != "" {
		outputHuman("DOI:       %s\n", d.DOI)
	}
	outputHuman("Level:     %d\n", d.ReferenceLevel)
	outputHuman("Expanded:  %t\n", d.ExpansionEnabled)
	outputHuman("Cites:     %d\n", d.Cites)
	outputHuman("Cited by:  %d\n", d.CitedBy)
}
