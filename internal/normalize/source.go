package normalize

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mounirtms/techno-etl/internal/catalog"
	"github.com/mounirtms/techno-etl/internal/csvengine"
)

// CSVSource loads the catalog from a CSV export. It is the in-core
// implementation of catalog.Source; the MDM/Cegid adapters plug in the
// same way.
type CSVSource struct {
	Path string
	Opts Options
}

func (s *CSVSource) Load(ctx context.Context) (*catalog.Catalog, []catalog.Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "cancelled before csv load")
	}

	doc, err := csvengine.ReadFile(s.Path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed in csvengine.ReadFile(%s)", s.Path)
	}

	cat, diags := New(s.Opts).Run(doc.Rows)
	return cat, diags, nil
}
