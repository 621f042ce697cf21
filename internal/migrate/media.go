package migrate

import (
	"context"
	"encoding/base64"
	"fmt"
	"runtime"
	"sync"

	"github.com/mounirtms/techno-etl/internal/catalog"
	"github.com/mounirtms/techno-etl/internal/imageproc"
	"github.com/mounirtms/techno-etl/internal/magento/models"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

// runMedia uploads the matched images. Files are decoded and resized
// ahead of the upload loop by a small worker pool; the uploads
// themselves stay sequential under the shared rate limiter. A gallery
// slot is identified by (label, position); a slot already present in
// the store is skipped, which makes reruns upload nothing twice.
func (o *Orchestrator) runMedia(ctx context.Context) error {
	logger := logging.GetLogger()
	logger.Debug("Start runMedia")
	defer logger.Debug("End runMedia")

	if len(o.bindings) == 0 {
		return nil
	}

	opts, err := imageproc.OptionsFromConfig(o.cfg)
	if err != nil {
		return err
	}
	processed, procErrs := processFiles(o.bindings, opts)

	keys := make([]string, 0, len(o.bindings))
	bindings := make(map[string]catalog.MediaBinding, len(o.bindings))
	for _, b := range o.bindings {
		key := mediaKey(b.SKU, b.Position)
		keys = append(keys, key)
		bindings[key] = b
	}

	existing := map[string]map[string]bool{}

	return o.processItems(ctx, StageMedia, keys, o.cfg.BATCH.Media,
		func(ctx context.Context, key string) (string, error) {
			b := bindings[key]

			if err, ok := procErrs[b.File.Path]; ok {
				return "", validationError(fmt.Sprintf("image %s rejected: %v", b.File.Name, err))
			}

			slots, ok := existing[b.SKU]
			if !ok {
				entries, err := o.api.GetProductMedia(ctx, b.SKU)
				if err != nil {
					return "", err
				}
				slots = make(map[string]bool, len(entries))
				for _, e := range entries {
					slots[slotKey(e.Label, e.Position)] = true
				}
				existing[b.SKU] = slots
			}
			label := mediaLabel(o.cat, b.SKU)
			if slots[slotKey(label, b.Position)] {
				return "skipped", nil
			}

			img := processed[b.File.Path]
			entry := &models.MediaEntry{
				MediaType: "image",
				Label:     label,
				Position:  b.Position,
				Content: &models.MediaContent{
					Base64EncodedData: base64.StdEncoding.EncodeToString(img.Data),
					Type:              img.MimeType,
					Name:              img.Filename,
				},
			}
			if b.Role == catalog.RoleMain {
				entry.Types = models.MainImageTypes
			}

			if _, err := o.api.UploadProductMedia(ctx, b.SKU, entry); err != nil {
				return "", err
			}
			slots[slotKey(label, b.Position)] = true
			return "created", nil
		})
}

// processFiles runs the image pipeline over every distinct file with a
// bounded worker pool. Failures are returned per path so the upload
// loop can report them against the right item.
func processFiles(bindings []catalog.MediaBinding, opts imageproc.Options) (map[string]*imageproc.Processed, map[string]error) {
	paths := map[string]bool{}
	var queue []string
	for _, b := range bindings {
		if !paths[b.File.Path] {
			paths[b.File.Path] = true
			queue = append(queue, b.File.Path)
		}
	}

	workers := runtime.NumCPU()
	if workers > 4 {
		workers = 4
	}

	var mu sync.Mutex
	results := make(map[string]*imageproc.Processed, len(queue))
	failures := make(map[string]error)

	jobs := make(chan string)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				img, err := imageproc.Process(path, opts)
				mu.Lock()
				if err != nil {
					failures[path] = err
				} else {
					results[path] = img
				}
				mu.Unlock()
			}
		}()
	}
	for _, path := range queue {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	return results, failures
}

func mediaKey(sku string, position int) string {
	return fmt.Sprintf("%s#%d", sku, position)
}

func slotKey(label string, position int) string {
	return fmt.Sprintf("%s#%d", label, position)
}

func mediaLabel(cat *catalog.Catalog, sku string) string {
	if p, ok := cat.BySKU(sku); ok {
		return p.Name
	}
	return sku
}
