package csvengine

import (
	"encoding/csv"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/mounirtms/techno-etl/internal/catalog"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

// Write emits the document as RFC-4180 UTF-8. Column order comes from
// doc.Columns; when empty it is derived from the first row's keys.
// Row order is preserved. encoding/csv handles quoting and doubled
// quotes for fields containing separators, quotes or newlines.
func Write(w io.Writer, doc *Document) error {
	columns := doc.Columns
	if len(columns) == 0 && len(doc.Rows) > 0 {
		for col := range doc.Rows[0].Fields {
			columns = append(columns, col)
		}
		sort.Strings(columns)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return errors.Wrap(err, "failed writing header row")
	}

	record := make([]string, len(columns))
	for _, row := range doc.Rows {
		for i, col := range columns {
			record[i] = row.Fields[col]
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "failed writing row %d", row.Index)
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "failed flushing csv writer")
}

func WriteFile(path string, doc *Document) error {
	logger := logging.GetLogger()
	logger.Debugf("Start WriteFile %s", path)
	defer logger.Debug("End WriteFile")

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed in os.Create(%s)", path)
	}

	if err := Write(f, doc); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "failed closing csv file")
}

// RowsToDocument rebuilds a document from rows, keeping the given column
// order. Used by the fixer/export path after normalization.
func RowsToDocument(columns []string, rows []catalog.SourceRow) *Document {
	return &Document{Columns: columns, Rows: rows}
}
