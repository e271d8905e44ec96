// Package cli's provision.go implements the "rsprov provision" command.
//
// The provision command is the primary user-facing operation. It runs
// the full provisioning sequence against the local host:
//
//  1. Load configuration (file or built-in defaults)
//  2. Probe the host (CPU count, memory) to derive build parallelism
//  3. Build the run context (command runner, environment, prompts)
//  4. Execute the planned step sequence
//  5. Output the run report (text or JSON)
//  6. Reboot the host if the kernel gate demanded it
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/etcdsp/rsprov/internal/config"
	"github.com/etcdsp/rsprov/internal/host"
	"github.com/etcdsp/rsprov/internal/model"
	"github.com/etcdsp/rsprov/internal/provision"
	"github.com/etcdsp/rsprov/internal/sequence"
)

// provisionFlags holds the flag values for the provision command.
// These are bound to cobra flags in NewProvisionCommand.
type provisionFlags struct {
	configPath string // --config: explicit configuration file path
	dryRun     bool   // --dry-run: print commands instead of executing
	yes        bool   // --yes: answer every prompt with yes
	noReboot   bool   // --no-reboot: never reboot, exit with code 8 instead
	jobs       int    // --jobs: override derived build parallelism
}

// NewProvisionCommand creates the "provision" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewProvisionCommand() *cobra.Command {
	flags := &provisionFlags{}

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Run the full provisioning sequence on this host",
		Long: `Provision this host for depth-camera development.

The command runs every provisioning step in order: system update,
kernel version gate, build dependencies, SDK and serialization library
source builds, udev rules, and the Python image-processing stack.

When the running kernel is older than the configured minimum, the run
ends with a reboot (exit code 8 with --no-reboot); re-run provision
after the host comes back up.

Examples:
  rsprov provision
  rsprov provision --dry-run
  rsprov provision --yes --no-reboot
  rsprov provision --config ./rsprov.yaml --jobs 2`,

		Args: cobra.NoArgs,

		// RunE is used instead of Run so we can return errors. Cobra will
		// pass them to the Execute error handler in root.go.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Configuration file (default: ./rsprov.{yaml,yml,jsonc})")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print the commands each step would run without executing them")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Answer yes to all prompts")
	cmd.Flags().BoolVar(&flags.noReboot, "no-reboot", false, "Exit with code 8 instead of rebooting when the kernel is too old")
	cmd.Flags().IntVar(&flags.jobs, "jobs", 0, "Build parallelism (default: derived from CPU count and memory)")

	return cmd
}

// runProvision is the main orchestration function for the provision command.
func runProvision(ctx context.Context, flags *provisionFlags) error {
	// Step 1: Load the effective configuration.
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err // Load already returns CLIError with ExitConfigInvalid
	}
	VerboseLog("Configuration loaded (SDK ref %s, serialization ref %s)",
		cfg.SDK.Ref, cfg.Serialization.Ref)

	// Step 2: Derive build parallelism. The flag beats the config file;
	// both beat the CPU/memory heuristic.
	prober := host.NewProber()
	override := flags.jobs
	if override == 0 {
		override = cfg.Jobs
	}
	jobs := host.DeriveJobs(override, prober.CPUCount(), prober.MemoryTotalBytes())
	VerboseLog("Build parallelism: -j%d", jobs)

	// Step 3: Build the run context.
	sc := sequence.NewContext(host.NewExecRunner(), cfg, os.Stdout)
	sc.Jobs = jobs
	sc.DryRun = flags.dryRun
	sc.Logf = VerboseLog
	if !flags.yes {
		sc.Confirm = promptConfirm
	}

	// Step 4: Execute the sequence. The report always covers every
	// planned step, even when the run ends early.
	runner := sequence.NewRunner(provision.Plan(prober))
	report, runErr := runner.Run(ctx, sc)

	// Step 5: Output the report before acting on the outcome, so the
	// operator sees what happened even when we exit non-zero or reboot.
	printRunReport(report)
	if runErr != nil {
		return runErr
	}

	// Step 6: Act on a reboot verdict.
	if report.RebootRequired() {
		return handleReboot(ctx, sc, flags)
	}
	return nil
}

// handleReboot acts on the kernel gate's verdict: reboot the host, or
// with --no-reboot (or --dry-run) leave the decision to the operator
// and signal it through the exit code.
func handleReboot(ctx context.Context, sc *sequence.Context, flags *provisionFlags) error {
	rerun := model.NewCLIError(model.ExitRebootRequired,
		"kernel upgrade requires a reboot; re-run `rsprov provision` after the host comes back up")

	if flags.noReboot || flags.dryRun {
		return rerun
	}

	// Rebooting someone's board needs an explicit yes unless --yes.
	if !flags.yes {
		ok, err := promptConfirm(
			"Reboot now?",
			"The running kernel is too old for the camera driver. Rebooting applies the upgraded kernel; re-run provision afterwards.",
		)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "confirmation prompt failed", err)
		}
		if !ok {
			return rerun
		}
	}

	fmt.Println("Rebooting now; re-run `rsprov provision` after the host comes back up.")
	if err := host.Reboot(ctx, sc); err != nil {
		return model.WrapCLIError(model.ExitStepFailed, "reboot command failed", err)
	}
	// The reboot is asynchronous: the process usually dies before this
	// returns. Exit code 8 covers the window where it does not.
	return rerun
}

// promptConfirm asks the operator a yes/no question through a terminal
// form. It satisfies the sequence.Context Confirm signature.
func promptConfirm(title, description string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(&ok),
		),
	).Run()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// printRunReport outputs the run report in text or JSON format,
// depending on the global --json flag.
func printRunReport(report *model.RunReport) {
	if IsJSONOutput() {
		printRunReportJSON(report)
	} else {
		printRunReportText(report)
	}
}

// stepReportJSON is the JSON output structure for a single step in the
// provision run report.
type stepReportJSON struct {
	Name     string `json:"name"`
	Policy   string `json:"policy"`
	Status   string `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Duration string `json:"duration"`
}

// printRunReportJSON outputs the run report as structured JSON.
func printRunReportJSON(report *model.RunReport) {
	type resultJSON struct {
		DryRun         bool             `json:"dryRun"`
		RebootRequired bool             `json:"rebootRequired"`
		Failed         bool             `json:"failed"`
		StartedAt      time.Time        `json:"startedAt"`
		FinishedAt     time.Time        `json:"finishedAt"`
		Steps          []stepReportJSON `json:"steps"`
	}

	result := resultJSON{
		DryRun:         report.DryRun,
		RebootRequired: report.RebootRequired(),
		Failed:         report.Failed(),
		StartedAt:      report.StartedAt,
		FinishedAt:     report.FinishedAt,
		Steps:          make([]stepReportJSON, 0, len(report.Steps)),
	}

	for _, sr := range report.Steps {
		result.Steps = append(result.Steps, stepReportJSON{
			Name:     sr.Name,
			Policy:   sr.Policy.String(),
			Status:   sr.Status.String(),
			Detail:   sr.Detail,
			Duration: sr.Duration.Round(time.Millisecond).String(),
		})
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printRunReportText outputs a summary line after the per-step progress
// the sequencer already printed.
func printRunReportText(report *model.RunReport) {
	fmt.Println()
	fmt.Println(SummarizeRunReport(report))
}

// SummarizeRunReport renders the one-line outcome summary for a run.
//
// This function is exported for testing purposes (tested in
// provision_test.go).
func SummarizeRunReport(report *model.RunReport) string {
	var ok, tolerated, failed, skipped int
	for _, sr := range report.Steps {
		switch sr.Status {
		case model.StatusOK:
			ok++
		case model.StatusTolerated:
			tolerated++
		case model.StatusFailed:
			failed++
		case model.StatusSkipped:
			skipped++
		}
	}

	switch {
	case report.Failed():
		return fmt.Sprintf("Provisioning failed: %d ok, %d tolerated, %d failed, %d skipped.",
			ok, tolerated, failed, skipped)
	case report.RebootRequired():
		return fmt.Sprintf("Provisioning paused after %d step(s): reboot required.", ok)
	case report.DryRun:
		return fmt.Sprintf("Dry run complete: %d step(s) previewed.", len(report.Steps))
	default:
		return fmt.Sprintf("Provisioning complete: %d ok, %d tolerated.", ok, tolerated)
	}
}
