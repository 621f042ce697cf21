package catalog

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// WriteSnapshot freezes the normalized catalog to disk so a resumed job
// replays against identical input even when the CSV changed in between.
// The write goes through a temp file so a crash never leaves a truncated
// snapshot behind.
func WriteSnapshot(path string, c *Catalog) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed in json.MarshalIndent")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "failed in os.WriteFile")
	}
	return errors.Wrap(os.Rename(tmp, path), "failed in os.Rename")
}

// LoadSnapshot reads a catalog frozen by WriteSnapshot. The sku index is
// rebuilt lazily on the first BySKU call.
func LoadSnapshot(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed in os.ReadFile")
	}
	c := &Catalog{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "failed in json.Unmarshal")
	}
	return c, nil
}
