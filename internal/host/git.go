// git.go wraps the git CLI for the source checkouts.
//
// We shell out to `git` rather than using a Go git library: the checkout
// targets are large third-party trees with submodules and LFS-adjacent
// content, and full CLI compatibility matters more than avoiding a
// process spawn in a tool that spawns processes for a living.
package host

import (
	"context"
	"fmt"
	"os"

	"github.com/etcdsp/rsprov/internal/model"
)

// Git performs source checkouts through a Runner.
type Git struct {
	runner Runner
}

// NewGit creates a Git wrapper over the given runner.
func NewGit(r Runner) *Git {
	return &Git{runner: r}
}

// Clone checks out repo at ref into dest with a shallow single-branch
// clone. The destination must not already exist: a half-provisioned
// host with a stale checkout is exactly the silent-corruption case the
// original flow tripped over, so we refuse rather than reuse.
func (g *Git) Clone(ctx context.Context, repo, ref, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return model.NewCLIError(model.ExitGitError,
			fmt.Sprintf("checkout destination %s already exists; remove it or change the source directory", dest))
	}

	// --depth 1 keeps the clone small on SD-card storage; --branch
	// accepts both tags and branches, which covers the pinned refs.
	_, err := g.runner.Run(ctx, Cmd{
		Name: "git",
		Args: []string{"clone", "--depth", "1", "--branch", ref, repo, dest},
	})
	if err != nil {
		return model.WrapCLIError(model.ExitGitError,
			fmt.Sprintf("failed to clone %s at %s", repo, ref), err)
	}
	return nil
}
