// Package cli's plan.go implements the "rsprov plan" command.
//
// The plan command prints the provisioning sequence without executing
// anything: step names, order, and failure policy. It is the cheapest
// way to see what "rsprov provision" will do.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/etcdsp/rsprov/internal/host"
	"github.com/etcdsp/rsprov/internal/model"
	"github.com/etcdsp/rsprov/internal/provision"
	"github.com/etcdsp/rsprov/internal/sequence"
)

// NewPlanCommand creates the "plan" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the provisioning steps without executing them",
		Long: `Show the ordered provisioning sequence.

Each step is listed with its failure policy: a "fatal" step aborts the
run when it fails, a "tolerate" step logs the failure and continues.

Examples:
  rsprov plan
  rsprov plan --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan()
		},
	}
}

// runPlan builds the sequence and prints it. The prober is never
// exercised here: steps are listed, not run.
func runPlan() error {
	steps := provision.Plan(host.NewProber())
	printPlanResult(steps)
	return nil
}

// printPlanResult outputs the step list in text or JSON format,
// depending on the global --json flag.
func printPlanResult(steps []sequence.Step) {
	if IsJSONOutput() {
		printPlanResultJSON(steps)
	} else {
		printPlanResultText(steps)
	}
}

// planStepJSON is the JSON output structure for a single planned step.
type planStepJSON struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Policy string `json:"policy"`
}

// printPlanResultJSON outputs the step list as structured JSON.
// The top-level key is "steps" containing an array of step objects.
func printPlanResultJSON(steps []sequence.Step) {
	type resultJSON struct {
		Steps []planStepJSON `json:"steps"`
	}

	result := resultJSON{
		Steps: make([]planStepJSON, 0, len(steps)),
	}
	for i, s := range steps {
		result.Steps = append(result.Steps, planStepJSON{
			Index:  i + 1,
			Name:   s.Name,
			Policy: s.Policy.String(),
		})
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printPlanResultText outputs the step list as a numbered table.
//
// The table format is:
//
//	 #  STEP                          ON FAILURE
//	 1  check-attached-devices        abort
//	 9  serialization-self-test       continue
func printPlanResultText(steps []sequence.Step) {
	fmt.Printf("%2s  %-30s %s\n", "#", "STEP", "ON FAILURE")
	for i, s := range steps {
		fmt.Printf("%2d  %-30s %s\n", i+1, s.Name, policyVerb(s.Policy))
	}
}

// policyVerb renders a failure policy as the action the sequencer takes.
func policyVerb(p model.StepPolicy) string {
	if p == model.PolicyTolerate {
		return "continue"
	}
	return "abort"
}
