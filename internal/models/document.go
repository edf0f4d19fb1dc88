// Package models defines the domain types for Ansuz.
package models

import "time"

// Document represents one Markdown file in the workspace collection.
// Content is the full raw text, frontmatter header included.
type Document struct {
	Path     string       `json:"path"`
	Content  string       `json:"content"`
	Metadata DocumentMeta `json:"metadata"`
}

// DocumentMeta carries store-owned timestamps. The store sets these on every
// mutation; callers never write them directly.
type DocumentMeta struct {
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// Snapshot is the serialized form of the whole collection, as handed to the
// persistence collaborator and produced by export.
type Snapshot struct {
	Version  string                  `json:"version"`
	Exported time.Time               `json:"exported"`
	Files    map[string]SnapshotFile `json:"files"`
}

// SnapshotFile is one collection entry inside a Snapshot.
type SnapshotFile struct {
	Content  string       `json:"content"`
	Metadata DocumentMeta `json:"metadata"`
}

// SnapshotVersion is written into every exported snapshot.
const SnapshotVersion = "1.0.0"
