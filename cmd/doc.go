// Package cmd provides the command-line interface for quickstart.
//
// This package implements all CLI commands using the Cobra framework. Every
// command operates on the templates root resolved from configuration, so
// the same binary can manage several independent template stores.
//
// # Available Commands
//
//   - init: Store the current directory as a template
//   - create: Create a new project from a template
//   - github: Store a GitHub repository as a template
//   - list: List stored templates
//   - info: Show the metadata of one template
//   - update: Rename a template or change its description
//   - remove: Delete a template
//   - export: Pack a template into a .qst archive
//   - import: Store the template held in a .qst archive
//   - config: Read and write the configuration file
//   - version: Show build information
//
// # Command Examples
//
//	// Store the current directory as "api"
//	quickstart init --name api --variable author! --variable license=MIT
//
//	// Create a project, answering a required variable
//	quickstart create api -d ./billing --var author=Ada
//
//	// Share a template
//	quickstart export api -o api.qst
//	quickstart import api.qst --force
//
// # Configuration
//
// Configuration is read from ~/.quickstart/config.yaml (or --config).
// Every key can be overridden with a QUICKSTART_ environment variable such
// as QUICKSTART_TEMPLATES_DIR, and the persistent flags --templates-dir,
// --log-level and --log-format override both.
package cmd
