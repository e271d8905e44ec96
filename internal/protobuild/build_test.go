package protobuild

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etcdsp/rsprov/internal/config"
	"github.com/etcdsp/rsprov/internal/host"
	"github.com/etcdsp/rsprov/internal/sequence"
)

// protoTestContext builds a Context with the serialization source
// directory pointed into a temp tree.
func protoTestContext(t *testing.T, f *host.FakeRunner) (*sequence.Context, string) {
	t.Helper()
	cfg := config.Default()
	srcDir := filepath.Join(t.TempDir(), "protobuf")
	cfg.Serialization.SourceDir = srcDir

	sc := sequence.NewContext(f, cfg, &bytes.Buffer{})
	sc.Jobs = 1
	return sc, srcDir
}

// TestClone verifies the pinned clone plus submodule initialization.
func TestClone(t *testing.T) {
	f := &host.FakeRunner{}
	sc, srcDir := protoTestContext(t, f)

	require.NoError(t, Clone(context.Background(), sc))

	lines := f.CommandLines()
	require.Len(t, lines, 2)
	assert.Equal(t,
		"git clone --depth 1 --branch v3.12.0 https://github.com/protocolbuffers/protobuf "+srcDir,
		lines[0])
	assert.Equal(t, "git submodule update --init --recursive", lines[1])
	assert.Equal(t, srcDir, f.Calls[1].Dir)
}

// TestBuild verifies the autogen/configure/make order with the derived
// parallelism.
func TestBuild(t *testing.T) {
	f := &host.FakeRunner{}
	sc, srcDir := protoTestContext(t, f)

	require.NoError(t, Build(context.Background(), sc))

	lines := f.CommandLines()
	require.Len(t, lines, 3)
	assert.Equal(t, "bash ./autogen.sh", lines[0])
	assert.Equal(t, "bash ./configure", lines[1])
	assert.Equal(t, "make -j1", lines[2])
	for _, call := range f.Calls {
		assert.Equal(t, srcDir, call.Dir)
	}
}

// TestSelfTest_FailureIsPlainError verifies the self-test reports a
// plain error (the tolerated policy lives on the step, not here).
func TestSelfTest_FailureIsPlainError(t *testing.T) {
	f := &host.FakeRunner{Responses: []host.FakeResponse{
		{Match: "make -j1 check", Err: errors.New("2 of 7 tests failed")},
	}}
	sc, _ := protoTestContext(t, f)

	err := SelfTest(context.Background(), sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "library remains usable")
}

// TestInstall verifies install + linker cache refresh and the exported
// library path.
func TestInstall(t *testing.T) {
	f := &host.FakeRunner{}
	sc, _ := protoTestContext(t, f)

	require.NoError(t, Install(context.Background(), sc))

	lines := f.CommandLines()
	require.Len(t, lines, 2)
	assert.Equal(t, "make install", lines[0])
	assert.Equal(t, "ldconfig", lines[1])
	assert.Equal(t, "/usr/local/lib", sc.Env["LD_LIBRARY_PATH"])
}

// TestPythonRuntime verifies the C++-implementation switches are
// exported to the run environment and reach the setup.py invocations.
func TestPythonRuntime(t *testing.T) {
	f := &host.FakeRunner{}
	sc, srcDir := protoTestContext(t, f)

	require.NoError(t, PythonRuntime(context.Background(), sc))

	assert.Equal(t, "cpp", sc.Env["PROTOCOL_BUFFERS_PYTHON_IMPLEMENTATION"])
	assert.Equal(t, "2", sc.Env["PROTOCOL_BUFFERS_PYTHON_IMPLEMENTATION_VERSION"])

	require.Len(t, f.Calls, 2)
	for _, call := range f.Calls {
		assert.Equal(t, "python3", call.Name)
		assert.Equal(t, filepath.Join(srcDir, "python"), call.Dir)
		assert.Equal(t, "cpp", call.Env["PROTOCOL_BUFFERS_PYTHON_IMPLEMENTATION"])
	}
	assert.Equal(t, []string{"setup.py", "build", "--cpp_implementation"}, f.Calls[0].Args)
	assert.Equal(t, []string{"setup.py", "install", "--cpp_implementation"}, f.Calls[1].Args)
}
