// Package protobuild compiles the serialization library from source and
// installs its Python runtime with the C++ implementation enabled.
//
// The library is an opaque third-party dependency: nothing here knows
// anything about its wire format. The package only sequences the
// autotools build the upstream project documents, and threads the
// PROTOCOL_BUFFERS_PYTHON_IMPLEMENTATION switches through the run
// environment so the Python runtime binds to the freshly built C++ core
// instead of the slow pure-Python fallback.
package protobuild
