package main

import (
	"github.com/spf13/cobra"

	"github.com/lmartin/citegraph/internal/citation"
)

var listLevel int

func init() {
	listCmd.Flags().IntVar(&listLevel, "level", -1, "Only show publications at this breadth level (-1 for all)")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored publications",
	Long: `List stored publications, optionally filtered by breadth level.

Level 0 publications are seeded roots; level N publications were first
reached through N citation hops.

Example:
  citegraph list --level 1`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// ListResponse is the JSON output of the list command.
type ListResponse struct {
	Count        int                    `json:"count"`
	Publications []citation.Publication `json:"publications"`
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	pubs, err := db.ListPublications(listLevel)
	if err != nil {
		exitWithError(ExitError, "listing publications: %v", err)
	}

	if humanOutput {
		for _, p := range pubs {
			outputHuman("%s  L%d  %s\n", p.ID, p.ReferenceLevel, truncateString(p.Label(), ListTitleMaxLen))
		}
		outputHuman("%d publications\n", len(pubs))
		return nil
	}
	return outputJSON(ListResponse{Count: len(pubs), Publications: pubs})
}
