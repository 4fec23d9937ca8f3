// Package internal contains the core implementation packages for quickstart.
//
// The packages follow Go's internal convention and are only consumed by the
// cmd package.
//
// # Package Organization
//
//   - archive: versioned, compressed single-file template archives
//   - config: viper-backed user configuration under ~/.quickstart
//   - errors: structured error types with stable codes
//   - exec: command runner abstraction used for git and post-creation scripts
//   - fsutil: atomic writes and copy helpers
//   - github: shallow clones of owner/repo references
//   - logging: slog-based structured logger
//   - pathrewrite: renames files and directories whose names hold placeholders
//   - scaffolding: project generation from a stored template
//   - scripts: ordered execution of post-creation scripts
//   - store: the templates root and its CRUD, import and export operations
//   - substitute: {{variable}} replacement in names and file contents
//   - types: template metadata, variables and scripts
//   - validation: path, name and repository checks for untrusted input
//   - version: build information reporting
//   - watcher: debounced fsnotify watcher used by export --watch
//
// # Data Flow
//
// A template enters the store through init, github or import. The store keeps
// one directory per template with a metadata file beside the copied tree.
// Export packs that directory into an archive; import unpacks it back. Create
// copies a stored tree into a staging directory, substitutes variables in file
// contents, rewrites placeholder names, then moves the result into the target
// and runs the selected post-creation scripts there.
package internal
