// Package cmd implements the hitfetch CLI commands using Cobra.
//
// Available commands:
//   - request: Send a request and print the response
//   - cookie: Read cookies from a cookies file
//   - init: Create a .hitfetch.yaml configuration file
//   - completion: Generate shell completion scripts
//   - version: Show hitfetch version information
package cmd
