package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lmartin/citegraph/internal/citation"
)

var pinUser string

// defaultUser identifies bookmarks when --user is not given.
func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "default"
}

func init() {
	for _, cmd := range []*cobra.Command{pinCmd, unpinCmd, pinsCmd} {
		cmd.Flags().StringVar(&pinUser, "user", defaultUser(), "User the bookmark belongs to")
		rootCmd.AddCommand(cmd)
	}
}

var pinCmd = &cobra.Command{
	Use:   "pin <id|doi>",
	Short: "Bookmark a publication",
	Long: `Bookmark a publication for a user.

Pinned publications are the default roots of the graph command.`,
	Args: cobra.ExactArgs(1),
	RunE: runPin,
}

var pinsCmd = &cobra.Command{
	Use:   "pins",
	Short: "List a user's bookmarked publications",
	Args:  cobra.NoArgs,
	RunE:  runPins,
}

var unpinCmd = &cobra.Command{
	Use:   "unpin <id|doi>",
	Short: "Remove a publication bookmark",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnpin,
}

func runPin(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	pub := mustResolvePublication(db, args[0])
	if err := db.Pin(pinUser, pub.ID); err != nil {
		exitWithError(ExitError, "pinning %s: %v", pub.Label(), err)
	}

	if humanOutput {
		outputHuman("pinned %s\n", pub.Label())
		return nil
	}
	return outputJSON(StatusResponse{Status: "pinned", ID: pub.ID})
}

func runPins(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	marks, err := db.Bookmarks(pinUser)
	if err != nil {
		exitWithError(ExitError, "listing bookmarks: %v", err)
	}

	if humanOutput {
		for _, m := range marks {
			pub, err := db.GetPublication(m.PublicationID)
			if err != nil || pub == nil {
				continue
			}
			outputHuman("%s  %s\n", m.AddedAt.Format("2006-01-02"), truncateString(pub.Label(), ListTitleMaxLen))
		}
		outputHuman("%d pinned\n", len(marks))
		return nil
	}
	return outputJSON(PinsResponse{Count: len(marks), Bookmarks: marks})
}

// PinsResponse is the JSON output of the pins command.
type PinsResponse struct {
	Count     int                 `json:"count"`
	Bookmarks []citation.Bookmark `json:"bookmarks"`
}

func runUnpin(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	pub := mustResolvePublication(db, args[0])
	if err := db.Unpin(pinUser, pub.ID); err != nil {
		exitWithError(ExitError, "unpinning %s: %v", pub.Label(), err)
	}

	if humanOutput {
		outputHuman("unpinned %s\n", pub.Label())
		return nil
	}
	return outputJSON(StatusResponse{Status: "unpinned", ID: pub.ID})
}
