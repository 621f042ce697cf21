package catalog

import "context"

// Source supplies a normalized catalog. The CSV implementation lives in
// internal/normalize; the MDM/Cegid adapters implement the same interface
// outside of this repository.
type Source interface {
	Load(ctx context.Context) (*Catalog, []Diagnostic, error)
}
