// Package cli's check.go implements the "rsprov check" command.
//
// The check command probes the host without changing anything: the
// running kernel against the configured minimum, attached camera
// devices, required build tools on PATH, and the build parallelism a
// provision run would use. It is the non-mutating companion to
// "rsprov provision".
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/etcdsp/rsprov/internal/config"
	"github.com/etcdsp/rsprov/internal/host"
)

// requiredTools are the executables the provisioning sequence invokes.
// apt-get and pip3 come with Raspberry Pi OS; the rest arrive with the
// build-deps step, so a missing tool here is informational, not fatal.
var requiredTools = []string{"apt-get", "bash", "git", "cmake", "make", "python3", "pip3"}

// checkFlags holds the flag values for the check command.
type checkFlags struct {
	configPath string // --config: explicit configuration file path
}

// NewCheckCommand creates the "check" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewCheckCommand() *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe the host without changing it",
		Long: `Probe the host and report what a provision run would find.

Reports the running kernel version and whether it satisfies the
configured minimum, the number of attached video devices, which
required tools are already on PATH, and the derived build parallelism.

Examples:
  rsprov check
  rsprov check --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Configuration file (default: ./rsprov.{yaml,yml,jsonc})")

	return cmd
}

// checkResult collects every probe for a single output pass.
type checkResult struct {
	Kernel       string          `json:"kernel"`
	KernelMin    string          `json:"kernelMinimum"`
	KernelOK     bool            `json:"kernelSatisfied"`
	VideoDevices int             `json:"videoDevices"`
	Jobs         int             `json:"jobs"`
	Tools        map[string]bool `json:"tools"`
}

// runCheck is the main logic function for the check command.
func runCheck(flags *checkFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}

	prober := host.NewProber()

	result := checkResult{
		KernelMin:    fmt.Sprintf("%d.%d", cfg.MinKernel.Major, cfg.MinKernel.Minor),
		VideoDevices: prober.CountVideoDevices(),
		Jobs:         host.DeriveJobs(cfg.Jobs, prober.CPUCount(), prober.MemoryTotalBytes()),
		Tools:        make(map[string]bool, len(requiredTools)),
	}

	v, err := prober.KernelVersion()
	if err != nil {
		result.Kernel = "unknown"
		VerboseLog("kernel probe failed: %v", err)
	} else {
		result.Kernel = v.String()
		result.KernelOK = v.AtLeast(cfg.MinKernel.Major, cfg.MinKernel.Minor)
	}

	for _, tool := range requiredTools {
		_, lookErr := prober.LookTool(tool)
		result.Tools[tool] = lookErr == nil
	}

	printCheckResult(&result)
	return nil
}

// printCheckResult outputs the probe results in text or JSON format,
// depending on the global --json flag.
func printCheckResult(result *checkResult) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	kernelVerdict := "too old, provision will end in a reboot"
	if result.KernelOK {
		kernelVerdict = "ok"
	}

	fmt.Printf("Kernel:        %s (minimum %s: %s)\n", result.Kernel, result.KernelMin, kernelVerdict)
	fmt.Printf("Video devices: %d\n", result.VideoDevices)
	fmt.Printf("Build jobs:    %d\n", result.Jobs)
	fmt.Println("Tools:")
	for _, tool := range requiredTools {
		mark := "missing (installed by provision)"
		if result.Tools[tool] {
			mark = "found"
		}
		fmt.Printf("  %-10s %s\n", tool, mark)
	}
}
