// Package storage gives read access to the markdown content tree.
package storage

import "github.com/starford/docsite/internal/models"

// Provider is the interface for content file operations. Paths are
// relative to the content root and use forward slashes.
type Provider interface {
	// Root returns the absolute content root.
	Root() string
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
}
