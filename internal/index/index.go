package index

// DocIndex defines the full-text index operations. Consumers depend on
// this interface rather than the concrete *DB type.
type DocIndex interface {
	UpsertDoc(d DocRow, body string) error
	DeleteDoc(path string) error
	GetChecksum(path string) (string, error)
	GetDoc(slug string) (*DocRow, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Count() (int, error)
	Close() error
}

// Verify *DB satisfies DocIndex at compile time.
var _ DocIndex = (*DB)(nil)
