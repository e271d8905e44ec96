// Package cli's fetch.go implements the "rsprov fetch" command.
//
// The fetch command downloads the companion application repository as a
// branch snapshot archive and unpacks it to the configured destination.
// Any existing copy at the destination is replaced, so the command asks
// for confirmation first unless --yes is given.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/etcdsp/rsprov/internal/companion"
	"github.com/etcdsp/rsprov/internal/config"
	"github.com/etcdsp/rsprov/internal/model"
)

// fetchFlags holds the flag values for the fetch command.
type fetchFlags struct {
	configPath string // --config: explicit configuration file path
	yes        bool   // --yes: replace an existing copy without asking
}

// NewFetchCommand creates the "fetch" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewFetchCommand() *cobra.Command {
	flags := &fetchFlags{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the companion application snapshot",
		Long: `Download the companion application repository as a branch snapshot.

The snapshot is a zip archive of the configured branch with no version
control history. Any existing copy at the destination is deleted and
replaced; local changes there are lost.

Examples:
  rsprov fetch
  rsprov fetch --yes
  rsprov fetch --config ./rsprov.yaml`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Configuration file (default: ./rsprov.{yaml,yml,jsonc})")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Replace an existing copy without asking")

	return cmd
}

// runFetch is the main logic function for the fetch command.
func runFetch(ctx context.Context, flags *fetchFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}

	url := companion.ArchiveURL(cfg.Companion)
	VerboseLog("Snapshot URL: %s", url)
	VerboseLog("Destination:  %s", cfg.Companion.Dest)

	// Replacing an existing copy destroys local changes, so it needs an
	// explicit yes. A missing destination needs no confirmation.
	if !flags.yes {
		if _, statErr := os.Stat(cfg.Companion.Dest); statErr == nil {
			ok, promptErr := promptConfirm(
				"Replace existing copy?",
				fmt.Sprintf("%s already exists and will be deleted. Local changes there are lost.", cfg.Companion.Dest),
			)
			if promptErr != nil {
				return model.WrapCLIError(model.ExitGeneralError, "confirmation prompt failed", promptErr)
			}
			if !ok {
				return model.NewCLIError(model.ExitUserCancelled, "fetch cancelled")
			}
		}
	}

	if err := companion.NewFetcher().Fetch(ctx, cfg.Companion); err != nil {
		return err // Fetch already returns CLIError with ExitDownloadFailed
	}

	printFetchResult(cfg.Companion, url)
	return nil
}

// printFetchResult outputs the fetch result in text or JSON format,
// depending on the global --json flag.
func printFetchResult(cfg config.CompanionConfig, url string) {
	if IsJSONOutput() {
		result := map[string]string{
			"repository":  cfg.Repo,
			"branch":      cfg.Branch,
			"archiveUrl":  url,
			"destination": cfg.Dest,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Fetched %s (branch %s)\n", cfg.Repo, cfg.Branch)
	fmt.Printf("  Destination: %s\n", cfg.Dest)
}
