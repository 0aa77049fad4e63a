// Package filesystem implements types.FS on top of afero. The OS filesystem
// backs real runs; an in-memory filesystem backs most tests.
package filesystem
