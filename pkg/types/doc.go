// Package types defines the core types and interfaces used throughout changepack.
// This includes the version-control model (Changeset, Change, Item and the
// ChangeType flag set) and the interfaces the engine consumes: VersionControl,
// Workspace, Backend and FS.
package types
