// Package models defines the domain types shared across docsite packages.
package models

import "time"

// Document is one manifest record describing a markdown file under the
// content root. Records are immutable once the manifest is written.
type Document struct {
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	Category     string   `json:"category"`
	Tags         []string `json:"tags"`
	Date         string   `json:"date"`
	Description  string   `json:"description"`
	ReadingTime  int      `json:"readingTime"`
	LastModified string   `json:"lastModified"`
	FilePath     string   `json:"filePath"`
}

// Manifest is the ordered document collection, most recent first.
type Manifest []Document

// FileMetadata is a lightweight description of a content file on disk.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultCategory is assigned to documents that do not declare one.
const DefaultCategory = "General"
