// Package domain defines the core types of flexdb.
//
// This package is the innermost layer of the hexagon. It has NO external
// dependencies and defines the fundamental types:
//
//   - Document: A schemaless JSON object supplied by callers
//   - Record: A persisted row holding one Document, its id and creation time
//
// It also owns the rules shared by every storage adapter: which field and
// table names are accepted, which values a field lookup can compare against,
// and which keys are reserved in flattened query output.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
