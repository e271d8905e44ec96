// pkg.go wraps the OS and Python package managers.
//
// apt-get is used instead of apt: apt's CLI is explicitly unstable for
// scripting and prints a warning when driven non-interactively.
package host

import "context"

// Apt drives the Debian package manager through a Runner.
type Apt struct {
	runner Runner
}

// NewApt creates an Apt wrapper over the given runner.
func NewApt(r Runner) *Apt {
	return &Apt{runner: r}
}

// Update refreshes the package index.
func (a *Apt) Update(ctx context.Context) error {
	_, err := a.runner.Run(ctx, Cmd{Name: "apt-get", Args: []string{"update"}})
	return err
}

// Upgrade applies pending package upgrades non-interactively.
func (a *Apt) Upgrade(ctx context.Context) error {
	_, err := a.runner.Run(ctx, Cmd{Name: "apt-get", Args: []string{"-y", "upgrade"}})
	return err
}

// Install installs the named packages non-interactively. A nil or empty
// list is a no-op rather than an invalid apt-get invocation.
func (a *Apt) Install(ctx context.Context, packages ...string) error {
	if len(packages) == 0 {
		return nil
	}
	args := append([]string{"-y", "install"}, packages...)
	_, err := a.runner.Run(ctx, Cmd{Name: "apt-get", Args: args})
	return err
}

// Pip drives the Python package installer through a Runner.
type Pip struct {
	runner Runner
}

// NewPip creates a Pip wrapper over the given runner.
func NewPip(r Runner) *Pip {
	return &Pip{runner: r}
}

// Install installs the named Python packages. A nil or empty list is a
// no-op.
func (p *Pip) Install(ctx context.Context, packages ...string) error {
	if len(packages) == 0 {
		return nil
	}
	args := append([]string{"install"}, packages...)
	_, err := p.runner.Run(ctx, Cmd{Name: "pip3", Args: args})
	return err
}
