// Package instanceset parses user-supplied instance paths into a
// deduplicated set of Instance records: list files and shell-style globs
// are expanded, each instance is assigned a unique human-readable short
// name, and an optional 16-byte digest is extracted from its header.
package instanceset
