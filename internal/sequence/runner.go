// runner.go executes a planned step list and records the run report.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/etcdsp/rsprov/internal/model"
)

// Rendering styles for step progress lines.
var (
	stepStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3b82f6"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ef4444"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	titleStyle = lipgloss.NewStyle().Bold(true)
)

// Runner executes steps strictly sequentially.
type Runner struct {
	steps []Step
}

// NewRunner creates a Runner for the given ordered step list.
func NewRunner(steps []Step) *Runner {
	return &Runner{steps: steps}
}

// Steps returns the planned step list, for `rsprov plan` output.
func (r *Runner) Steps() []Step {
	return r.steps
}

// Run executes the sequence against the given context.
//
// The returned report always covers every planned step (later steps are
// marked skipped when the run ends early). The returned error is the
// terminal failure, if any: a fatal step error, or the operator's
// cancellation. A reboot verdict is a terminal outcome but NOT an
// error; callers read it from the report.
func (r *Runner) Run(ctx context.Context, sc *Context) (*model.RunReport, error) {
	report := &model.RunReport{
		DryRun:    sc.DryRun,
		StartedAt: time.Now().UTC(),
		Steps:     make([]model.StepReport, 0, len(r.steps)),
	}

	var terminal error
	for i, step := range r.steps {
		if terminal != nil || reportEnded(report) {
			report.Steps = append(report.Steps, model.StepReport{
				Name:   step.Name,
				Policy: step.Policy,
				Status: model.StatusSkipped,
			})
			continue
		}

		fmt.Fprintf(sc.Out, "%s %s\n",
			stepStyle.Render(fmt.Sprintf("[%d/%d]", i+1, len(r.steps))),
			titleStyle.Render(step.Name))

		started := time.Now()
		err := step.Run(ctx, sc)
		sr := model.StepReport{
			Name:     step.Name,
			Policy:   step.Policy,
			Duration: time.Since(started),
		}

		switch {
		case err == nil:
			sr.Status = model.StatusOK
			fmt.Fprintf(sc.Out, "      %s %s\n",
				okStyle.Render("ok"), dimStyle.Render(sr.Duration.Round(time.Millisecond).String()))

		case isReboot(err):
			var re *RebootError
			errors.As(err, &re)
			sr.Status = model.StatusRebootRequired
			sr.Detail = re.Reason
			fmt.Fprintf(sc.Out, "      %s %s\n",
				warnStyle.Render("reboot required"), dimStyle.Render(re.Reason))

		case errors.Is(err, ErrCancelled):
			sr.Status = model.StatusFailed
			sr.Detail = err.Error()
			terminal = model.WrapCLIError(model.ExitUserCancelled, "provisioning cancelled", err)
			fmt.Fprintf(sc.Out, "      %s\n", failStyle.Render("cancelled"))

		case step.Policy == model.PolicyTolerate:
			sr.Status = model.StatusTolerated
			sr.Detail = err.Error()
			fmt.Fprintf(sc.Out, "      %s %s\n",
				warnStyle.Render("failed (tolerated)"), dimStyle.Render(err.Error()))

		default:
			sr.Status = model.StatusFailed
			sr.Detail = err.Error()
			terminal = asCLIError(step.Name, err)
			fmt.Fprintf(sc.Out, "      %s %s\n",
				failStyle.Render("failed"), dimStyle.Render(err.Error()))
		}

		report.Steps = append(report.Steps, sr)
	}

	report.FinishedAt = time.Now().UTC()
	return report, terminal
}

// reportEnded reports whether an already-recorded step ended the run.
func reportEnded(report *model.RunReport) bool {
	for i := range report.Steps {
		if report.Steps[i].Status.IsTerminal() {
			return true
		}
	}
	return false
}

// isReboot reports whether err is (or wraps) a reboot verdict.
func isReboot(err error) bool {
	var re *RebootError
	return errors.As(err, &re)
}

// asCLIError preserves a step's own CLIError (git, patch, download codes)
// and wraps anything else as a generic step failure.
func asCLIError(stepName string, err error) error {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}
	return model.WrapCLIError(model.ExitStepFailed,
		fmt.Sprintf("step %q failed", stepName), err)
}
