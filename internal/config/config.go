// config.go defines the provisioning configuration structure and the
// built-in defaults that reproduce the original provisioning behavior.
package config

import (
	"os"
	"path/filepath"
)

// Config is the root provisioning configuration. Zero values are filled
// from Default() before a file is applied, so a partial file only needs
// the fields it wants to change.
type Config struct {
	// SDK configures the depth-camera SDK source build.
	SDK SDKConfig `yaml:"sdk" json:"sdk"`

	// Serialization configures the serialization library source build.
	Serialization SerializationConfig `yaml:"serialization" json:"serialization"`

	// Companion configures the companion repository snapshot fetch.
	Companion CompanionConfig `yaml:"companion" json:"companion"`

	// Packages lists the OS and Python packages installed during the run.
	Packages PackagesConfig `yaml:"packages" json:"packages"`

	// MinKernel is the minimum kernel version (major.minor) required by
	// the SDK's UVC backend. Hosts below it are rebooted after the
	// system update so the upgraded kernel takes effect.
	MinKernel KernelRequirement `yaml:"minKernel" json:"minKernel"`

	// Jobs is the compiler parallelism passed to make. Zero means derive
	// it from the host's CPU count and memory (low-memory boards are
	// derated to avoid OOM-killed compiles).
	Jobs int `yaml:"jobs" json:"jobs"`
}

// SDKConfig pins the depth-camera SDK source and its build layout.
type SDKConfig struct {
	// Repo is the git URL of the SDK source.
	Repo string `yaml:"repo" json:"repo"`

	// Ref is the tag or branch to check out. Pinned by default so a
	// provisioning run is reproducible against a known upstream revision.
	Ref string `yaml:"ref" json:"ref"`

	// SourceDir is the checkout destination.
	SourceDir string `yaml:"sourceDir" json:"sourceDir"`

	// UdevScript is the path, relative to SourceDir, of the SDK's udev
	// rule installation script. It is invoked as-is; only its exit
	// status is observed.
	UdevScript string `yaml:"udevScript" json:"udevScript"`

	// CMakeArgs are the configure arguments for the SDK build.
	CMakeArgs []string `yaml:"cmakeArgs" json:"cmakeArgs"`
}

// SerializationConfig pins the serialization library source build.
type SerializationConfig struct {
	// Repo is the git URL of the serialization library source.
	Repo string `yaml:"repo" json:"repo"`

	// Ref is the tag to check out.
	Ref string `yaml:"ref" json:"ref"`

	// SourceDir is the checkout destination.
	SourceDir string `yaml:"sourceDir" json:"sourceDir"`
}

// CompanionConfig describes the companion repository snapshot fetch.
// There is no versioning and no integrity check: the fetch always takes
// the current tip of the named branch as a zip archive.
type CompanionConfig struct {
	// Repo is the forge URL of the companion repository
	// (e.g., "https://github.com/etcdsp/rs_py").
	Repo string `yaml:"repo" json:"repo"`

	// Branch is the branch whose snapshot is downloaded.
	Branch string `yaml:"branch" json:"branch"`

	// Dest is the extraction destination. Any existing copy is removed
	// before extraction.
	Dest string `yaml:"dest" json:"dest"`
}

// PackagesConfig lists the packages installed by the run.
type PackagesConfig struct {
	// Build are the apt packages needed to compile the SDK and the
	// serialization library.
	Build []string `yaml:"build" json:"build"`

	// Image are the apt packages for the image-processing stack.
	Image []string `yaml:"image" json:"image"`

	// Pip are the Python packages installed after the SDK bindings.
	Pip []string `yaml:"pip" json:"pip"`
}

// KernelRequirement is the major.minor minimum for the kernel gate.
type KernelRequirement struct {
	Major int `yaml:"major" json:"major"`
	Minor int `yaml:"minor" json:"minor"`
}

// Default returns the built-in configuration. Paths live under the
// invoking user's home directory, matching where the original
// provisioning flow placed its checkouts.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		// Provisioning runs as a login user on the board; if the home
		// directory is genuinely unresolvable the path validation will
		// surface it. Fall back to the working directory.
		home = "."
	}

	return &Config{
		SDK: SDKConfig{
			Repo:       "https://github.com/IntelRealSense/librealsense",
			Ref:        "v2.50.0",
			SourceDir:  filepath.Join(home, "librealsense"),
			UdevScript: "scripts/setup_udev_rules.sh",
			CMakeArgs: []string{
				"-DCMAKE_BUILD_TYPE=Release",
				"-DBUILD_EXAMPLES=false",
				"-DBUILD_GRAPHICAL_EXAMPLES=false",
				"-DBUILD_PYTHON_BINDINGS=bool:true",
				"-DPYTHON_EXECUTABLE=/usr/bin/python3",
				"-DFORCE_RSUSB_BACKEND=true",
			},
		},
		Serialization: SerializationConfig{
			Repo:      "https://github.com/protocolbuffers/protobuf",
			Ref:       "v3.12.0",
			SourceDir: filepath.Join(home, "protobuf"),
		},
		Companion: CompanionConfig{
			Repo:   "https://github.com/etcdsp/rs_py",
			Branch: "main",
			Dest:   filepath.Join(home, "rs_py"),
		},
		Packages: PackagesConfig{
			Build: []string{
				"automake", "libtool", "vim", "cmake",
				"libusb-1.0-0-dev", "libx11-dev", "xorg-dev",
				"libglu1-mesa-dev", "libssl-dev",
			},
			Image: []string{
				"python3-opencv", "python3-numpy",
			},
			Pip: []string{
				"opencv-python",
			},
		},
		MinKernel: KernelRequirement{Major: 5, Minor: 10},
		Jobs:      0,
	}
}
