package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(promoteCmd)
}

var promoteCmd = &cobra.Command{
	Use:   "promote <id|doi>",
	Short: "Expand a frontier publication one more hop",
	Long: `Enable expansion for a publication and import its references.

Publications discovered through citation edges are stored without
expansion. Promoting one fetches its reference list and pulls in the
metadata of the works it cites, growing the graph by one hop.

Example:
  citegraph promote 10.1038/s41586-020-2649-2`,
	Args: cobra.ExactArgs(1),
	RunE: runPromote,
}

func runPromote(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	pub := mustResolvePublication(db, args[0])
	imp := newImporter(cfg, db)
	report, err := imp.Promote(cmd.Context(), pub.ID)
	if err != nil {
		exitWithError(ExitError, "promoting %s: %v", pub.Label(), err)
	}

	if humanOutput {
		printReportHuman(pub, report)
		return nil
	}
	return outputJSON(report)
}
