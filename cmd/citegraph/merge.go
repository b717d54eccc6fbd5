package main

import (
	"github.com/spf13/cobra"

	"github.com/lmartin/citegraph/internal/author"
	"github.com/lmartin/citegraph/internal/storage"
)

var (
	mergeFirst string
	mergeLast  string
	mergeORCID string
)

func init() {
	mergeCmd.Flags().StringVar(&mergeFirst, "first", "", "First name to set on the surviving author")
	mergeCmd.Flags().StringVar(&mergeLast, "last", "", "Last name to set on the surviving author")
	mergeCmd.Flags().StringVar(&mergeORCID, "orcid", "", "ORCID to set on the surviving author")
	rootCmd.AddCommand(mergeCmd)
}

var mergeCmd = &cobra.Command{
	Use:   "merge <target-author-id> <source-author-id>...",
	Short: "Merge duplicate authors into one",
	Long: `Merge one or more duplicate author records into a target author.

All authorship edges of the sources are repointed to the target; where
both sides appear on the same publication the earlier author position
wins. The sources are deleted. The --first/--last/--orcid flags update
the surviving author's identity in the same transaction.

Example:
  citegraph merge a1b2 c3d4 e5f6 --orcid 0000-0001-2345-6789`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	req := author.MergeRequest{
		TargetID:  args[0],
		SourceIDs: args[1:],
		Fields: storage.MergeFields{
			First: mergeFirst,
			Last:  mergeLast,
			ORCID: mergeORCID,
		},
	}
	stats, err := author.Merge(db, req)
	if err != nil {
		exitWithError(ExitError, "merging authors: %v", err)
	}

	if humanOutput {
		outputHuman("merged %d authors into %s\n", stats.SourcesDeleted, args[0])
		outputHuman("  repointed: %d  conflicts resolved: %d\n", stats.Repointed, stats.ConflictsResolved)
		return nil
	}
	return outputJSON(stats)
}
