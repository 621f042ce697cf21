package csvengine

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/mounirtms/techno-etl/internal/catalog"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

// Document is a parsed CSV file: canonical column order plus one
// SourceRow per data record. Row indexes are 1-based with the header
// counted as row 1.
type Document struct {
	Columns []string
	Rows    []catalog.SourceRow
}

func ReadFile(path string) (*Document, error) {
	logger := logging.GetLogger()
	logger.Debugf("Start ReadFile %s", path)
	defer logger.Debug("End ReadFile")

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed in os.Open(%s)", path)
	}
	defer func() {
		err := f.Close()
		if err != nil {
			logger.Errorf("failed f.Close(); %v", err)
		}
	}()

	return Read(f)
}

func Read(r io.Reader) (*Document, error) {
	logger := logging.GetLogger()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // short rows are flagged, not rejected

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed reading header row")
	}
	if len(header) == 0 {
		return nil, errors.New("empty header row")
	}

	doc := &Document{Columns: make([]string, len(header))}
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		c := CanonicalColumn(h)
		if seen[c] {
			return nil, errors.Errorf("duplicate column %q after canonicalization", c)
		}
		seen[c] = true
		doc.Columns[i] = c
	}
	if !seen["sku"] {
		return nil, errors.New("required column sku (or alias ref/reference/code) not found")
	}

	index := 1 // header
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed reading record after row %d", index)
		}
		index++

		row := catalog.SourceRow{
			Index:  index,
			Fields: make(map[string]string, len(doc.Columns)),
			Short:  len(record) < len(doc.Columns),
		}
		for i, col := range doc.Columns {
			if i < len(record) {
				row.Fields[col] = record[i]
			}
		}
		doc.Rows = append(doc.Rows, row)
	}

	logger.Debugf("parsed %d rows, %d columns", len(doc.Rows), len(doc.Columns))
	return doc, nil
}

// Get returns a field by canonical column name; aliases are resolved at
// read time, so lookups here are exact.
func Get(row catalog.SourceRow, column string) string {
	return row.Fields[column]
}
