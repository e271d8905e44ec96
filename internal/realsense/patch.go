// patch.go applies the anchored fix-up to the SDK's Python wrapper
// build file before compilation.
//
// Each replacement names the exact upstream line it targets. A missing
// or ambiguous anchor aborts the patch, and with it the run, because
// it means the pinned SDK revision is not the one the fix was verified
// against. Applying the fix to the known revision must reproduce the
// manually verified reference file byte for byte.
package realsense

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/etcdsp/rsprov/internal/model"
)

// BuildFileRelPath is the wrapper build file the patch targets,
// relative to the SDK source directory.
const BuildFileRelPath = "wrappers/python/CMakeLists.txt"

// Replacement swaps one exact upstream line for corrected content.
type Replacement struct {
	// Anchor is the full upstream line, minus leading/trailing
	// whitespace, that identifies the edit position. It must match
	// exactly one line in the target file.
	Anchor string

	// Replace is the corrected line content. Indentation of the
	// anchored line is preserved.
	Replace string
}

// BuildFilePatch is the fix for the upstream packaging defect: the
// wrapper build file targets Python 2 and installs the bindings outside
// the interpreter's search path. Verified against the pinned SDK ref in
// the default configuration.
var BuildFilePatch = []Replacement{
	{
		Anchor:  "find_package(PythonInterp REQUIRED)",
		Replace: "find_package(PythonInterp 3 REQUIRED)",
	},
	{
		Anchor:  "find_package(PythonLibs REQUIRED)",
		Replace: "find_package(PythonLibs 3 REQUIRED)",
	},
	{
		Anchor:  `set(PYBIND11_PYTHON_VERSION 2.7 CACHE STRING "")`,
		Replace: `set(PYBIND11_PYTHON_VERSION 3 CACHE STRING "")`,
	},
	{
		Anchor:  "set(PYTHON_INSTALL_DIR ${CMAKE_INSTALL_LIBDIR}/python2.7/dist-packages/pyrealsense2)",
		Replace: "set(PYTHON_INSTALL_DIR ${CMAKE_INSTALL_LIBDIR}/python3/dist-packages/pyrealsense2)",
	},
	{
		Anchor:  "target_link_libraries(pybackend2 PRIVATE usb)",
		Replace: "target_link_libraries(pybackend2 PRIVATE usb pthread)",
	},
}

// ApplyReplacements applies the replacements to content and returns the
// patched text. Pure function; file IO lives in PatchFile.
//
// Anchors are matched against whitespace-trimmed lines so the fix is
// insensitive to indentation drift, while the anchored line's own
// indentation is preserved in the output.
func ApplyReplacements(content string, reps []Replacement) (string, error) {
	lines := strings.Split(content, "\n")

	for _, rep := range reps {
		matches := 0
		index := -1
		for i, line := range lines {
			if strings.TrimSpace(line) == rep.Anchor {
				matches++
				index = i
			}
		}
		switch matches {
		case 1:
			indent := indentOf(lines[index])
			lines[index] = indent + rep.Replace
		case 0:
			return "", model.NewCLIError(model.ExitPatchFailed,
				fmt.Sprintf("patch anchor not found: %q (upstream build file has changed, refusing to guess)", rep.Anchor))
		default:
			return "", model.NewCLIError(model.ExitPatchFailed,
				fmt.Sprintf("patch anchor matches %d lines: %q, refusing ambiguous edit", matches, rep.Anchor))
		}
	}

	return strings.Join(lines, "\n"), nil
}

// indentOf returns the leading whitespace of a line.
func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// PatchFile rewrites path in place with the replacements applied.
// The write goes through a temp file in the same directory followed by
// a rename, so a crash mid-write cannot leave a half-patched build file.
func PatchFile(path string, reps []Replacement) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.WrapCLIError(model.ExitPatchFailed,
			fmt.Sprintf("failed to read build file %s", path), err)
	}

	patched, err := ApplyReplacements(string(data), reps)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".rsprov-patch-*")
	if err != nil {
		return model.WrapCLIError(model.ExitPatchFailed, "failed to create temp file for patch", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(patched); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return model.WrapCLIError(model.ExitPatchFailed, "failed to write patched build file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return model.WrapCLIError(model.ExitPatchFailed, "failed to write patched build file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return model.WrapCLIError(model.ExitPatchFailed, "failed to replace build file", err)
	}
	return nil
}
