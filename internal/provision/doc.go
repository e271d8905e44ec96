// Package provision assembles the ordered provisioning step list that
// takes a freshly imaged board to a working depth-camera setup.
//
// The plan is fixed; configuration changes what the steps act on (refs,
// paths, package lists), never their order. Ordering constraints worth
// naming: the kernel gate runs after the system update so a reboot
// lands on the upgraded kernel; the serialization library is installed
// before the SDK compile because the SDK's Python bindings load it; the
// build-file patch runs between checkout and compile.
package provision
