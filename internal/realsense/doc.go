// Package realsense implements the depth-camera SDK provisioning steps:
// checking out the pinned source, installing the SDK's udev rules,
// patching the upstream build file, and running the cmake/make build
// with Python bindings.
//
// The build-file patch is anchored on exact line content rather than
// line numbers. The upstream defect it fixes is positional in nature,
// but a positional edit silently corrupts the file the moment upstream
// shifts a line; anchoring turns that into a hard, named error instead.
package realsense
