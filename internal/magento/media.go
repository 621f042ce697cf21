package magento

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"github.com/mounirtms/techno-etl/internal/magento/models"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

func (c *Client) GetProductMedia(ctx context.Context, sku string) ([]*models.MediaEntry, error) {
	logger := logging.GetLogger()
	logger.Debugf("Start GetProductMedia %s", sku)
	defer logger.Debug("End GetProductMedia")

	var entries []*models.MediaEntry
	err := c.do(ctx, "GET", "/V1/products/"+url.PathEscape(sku)+"/media", nil, nil, &entries)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed in GetProductMedia(%s)", sku)
	}
	return entries, nil
}

// UploadProductMedia pushes one gallery entry with base64 content and
// returns the new media id.
func (c *Client) UploadProductMedia(ctx context.Context, sku string, entry *models.MediaEntry) (int, error) {
	logger := logging.GetLogger()
	logger.Debugf("Start UploadProductMedia %s pos=%d", sku, entry.Position)
	defer logger.Debug("End UploadProductMedia")

	var id int
	err := c.do(ctx, "POST", "/V1/products/"+url.PathEscape(sku)+"/media", nil,
		&models.MediaEntryRequest{Entry: entry}, &id)
	if err != nil {
		return 0, errors.Wrapf(err, "failed in UploadProductMedia(%s, pos=%d)", sku, entry.Position)
	}
	return id, nil
}
