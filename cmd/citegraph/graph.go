package main

import (
	"github.com/spf13/cobra"

	"github.com/lmartin/citegraph/internal/graph"
)

var (
	graphRoots []string
	graphUser  string
)

func init() {
	graphCmd.Flags().StringArrayVar(&graphRoots, "root", nil, "Root publication (ID or DOI); repeatable")
	graphCmd.Flags().StringVar(&graphUser, "user", defaultUser(), "Use this user's pinned publications as roots when --root is not given")
	rootCmd.AddCommand(graphCmd)
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Emit a snapshot of the citation network",
	Long: `Emit a node/edge snapshot of the citation network.

The traversal starts from the given roots and follows outgoing citation
edges. Without --root, the user's pinned publications are the roots.

Examples:
  citegraph graph --root 10.1093/molbev/msaa123
  citegraph graph`,
	Args: cobra.NoArgs,
	RunE: runGraph,
}

func runGraph(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	rootIDs := make([]string, 0, len(graphRoots))
	for _, arg := range graphRoots {
		rootIDs = append(rootIDs, mustResolvePublication(db, arg).ID)
	}
	if len(rootIDs) == 0 {
		pinned, err := db.PinnedPublicationIDs(graphUser)
		if err != nil {
			exitWithError(ExitError, "loading pinned publications: %v", err)
		}
		if len(pinned) == 0 {
			exitWithError(ExitNotFound, "no roots: pass --root or pin a publication first")
		}
		rootIDs = pinned
	}

	g, err := graph.Snapshot(db, rootIDs)
	if err != nil {
		exitWithError(ExitError, "building graph: %v", err)
	}

	if humanOutput {
		printGraphHuman(g)
		return nil
	}
	return outputJSON(g)
}

func printGraphHuman(g *graph.Graph) {
	outputHuman("%d nodes, %d edges\n\n", len(g.Nodes), len(g.Edges))
	for _, n := range g.Nodes {
		marker := " "
		if n.Root {
			marker = "*"
		}
		outputHuman("%s L%d in:%-3d %s\n", marker, n.Level, n.Incoming, truncateString(n.Label, ListTitleMaxLen))
	}
}
