package magento

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"github.com/mounirtms/techno-etl/internal/magento/models"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

// GetProductBySku returns (product, true) when the sku exists and
// (nil, false) on 404; 404 is a control signal here, not an error.
func (c *Client) GetProductBySku(ctx context.Context, sku string) (*models.Product, bool, error) {
	logger := logging.GetLogger()
	logger.Debugf("Start GetProductBySku %s", sku)
	defer logger.Debug("End GetProductBySku")

	var product models.Product
	err := c.do(ctx, "GET", "/V1/products/"+url.PathEscape(sku), nil, nil, &product)
	if err != nil {
		if IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "failed in GetProductBySku(%s)", sku)
	}
	return &product, true, nil
}

func (c *Client) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	logger := logging.GetLogger()
	logger.Debugf("Start CreateProduct %s", p.SKU)
	defer logger.Debug("End CreateProduct")

	var created models.Product
	err := c.do(ctx, "POST", "/V1/products", nil,
		&models.ProductRequest{Product: p, SaveOptions: true}, &created)
	if err != nil {
		return nil, errors.Wrapf(err, "failed in CreateProduct(%s)", p.SKU)
	}
	return &created, nil
}

func (c *Client) UpdateProduct(ctx context.Context, sku string, p *models.Product) (*models.Product, error) {
	logger := logging.GetLogger()
	logger.Debugf("Start UpdateProduct %s", sku)
	defer logger.Debug("End UpdateProduct")

	var updated models.Product
	err := c.do(ctx, "PUT", "/V1/products/"+url.PathEscape(sku), nil,
		&models.ProductRequest{Product: p, SaveOptions: true}, &updated)
	if err != nil {
		return nil, errors.Wrapf(err, "failed in UpdateProduct(%s)", sku)
	}
	return &updated, nil
}

func (c *Client) DeleteProduct(ctx context.Context, sku string) error {
	logger := logging.GetLogger()
	logger.Debugf("Start DeleteProduct %s", sku)
	defer logger.Debug("End DeleteProduct")

	err := c.do(ctx, "DELETE", "/V1/products/"+url.PathEscape(sku), nil, nil, nil)
	return errors.Wrapf(err, "failed in DeleteProduct(%s)", sku)
}

func (c *Client) ListProducts(ctx context.Context, sc *models.SearchCriteria) (*models.ProductList, error) {
	logger := logging.GetLogger()
	logger.Debug("Start ListProducts")
	defer logger.Debug("End ListProducts")

	var list models.ProductList
	err := c.do(ctx, "GET", "/V1/products", sc.Values(), nil, &list)
	if err != nil {
		return nil, errors.Wrap(err, "failed in ListProducts")
	}
	return &list, nil
}
