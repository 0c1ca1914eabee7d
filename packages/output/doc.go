// Package output provides formatters for displaying call results.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output with pretty-printed JSON
//   - JSON: Machine-readable JSON output
package output
