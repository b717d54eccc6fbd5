package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/lmartin/citegraph/internal/author"
	"github.com/lmartin/citegraph/internal/citation"
)

func init() {
	rootCmd.AddCommand(authorsCmd)
}

var authorsCmd = &cobra.Command{
	Use:   "authors [query]",
	Short: "List authors, optionally filtered by name",
	Long: `List stored authors.

An optional query filters by name: a single word matches the last name,
"Last, First" and "First Last" match both parts, with first names
matched by prefix so initials work.

Examples:
  citegraph authors
  citegraph authors "Lovelace, A"`,
	Args: cobra.ArbitraryArgs,
	RunE: runAuthors,
}

// AuthorsResponse is the JSON output of the authors command.
type AuthorsResponse struct {
	Count   int               `json:"count"`
	Authors []citation.Author `json:"authors"`
}

func runAuthors(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	authors, err := db.ListAuthors()
	if err != nil {
		exitWithError(ExitError, "listing authors: %v", err)
	}

	if len(args) > 0 {
		q := author.ParseQuery(strings.Join(args, " "))
		authors = q.Filter(authors)
	}

	if humanOutput {
		for _, a := range authors {
			line := a.DisplayName()
			if a.ORCID != "" {
				line += "  (" + a.ORCID + ")"
			}
			outputHuman("%s  %s\n", a.ID, line)
		}
		outputHuman("%d authors\n", len(authors))
		return nil
	}
	return outputJSON(AuthorsResponse{Count: len(authors), Authors: authors})
}
