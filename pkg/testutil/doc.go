// Package testutil provides the shared fixtures for changepack tests.
//
// Key components:
//   - FakeBackend: in-memory version-control backend with builder methods
//     for changesets and file content
//   - MockVersionControl: function-field mock for error and call-order cases
//   - TestEnvironment: a deployment root, backup directory and output
//     directory on either an in-memory or a temp-dir filesystem
//
// Most tests should use EnvMemoryOnly. Use EnvIsolated when the code under
// test needs the real filesystem (synthfs pipelines, the CLI).
package testutil
