// Package abi defines the syscall ABI table shared by the kernel dispatcher
// and the user-side stubs.
//
// This package contains:
//   - Entry, a syscall name with its return-value trait
//   - Table, an ordered immutable list of entries where position is the
//     syscall number
//   - Validate and CheckAppendOnly, the checks run before code generation
//   - Loaders for the YAML, Starlark and manifest authoring formats
//
// pkg/abi imports only stdlib and the parsers for its authoring formats.
// Both pkg/dispatch and the generators depend on it, never the reverse.
package abi
