// Package output provides formatters for displaying responses.
//
// Supported output formats:
//   - Console: Content as text, optionally preceded by the redirect chain,
//     colored status line and headers
//   - JSON: The full response record as a JSON document
package output
