package magento

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pkg/errors"

	"github.com/mounirtms/techno-etl/internal/magento/models"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

func (c *Client) ListCategories(ctx context.Context, sc *models.SearchCriteria) (*models.CategoryList, error) {
	logger := logging.GetLogger()
	logger.Debug("Start ListCategories")
	defer logger.Debug("End ListCategories")

	var list models.CategoryList
	err := c.do(ctx, "GET", "/V1/categories/list", sc.Values(), nil, &list)
	if err != nil {
		return nil, errors.Wrap(err, "failed in ListCategories")
	}
	return &list, nil
}

func (c *Client) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	logger := logging.GetLogger()
	logger.Debugf("Start CreateCategory %s", category.Name)
	defer logger.Debug("End CreateCategory")

	var created models.Category
	err := c.do(ctx, "POST", "/V1/categories", nil,
		&models.CategoryRequest{Category: category}, &created)
	if err != nil {
		return nil, errors.Wrapf(err, "failed in CreateCategory(%s)", category.Name)
	}
	return &created, nil
}

func (c *Client) AssignProductToCategory(ctx context.Context, categoryID int, sku string, position int) error {
	logger := logging.GetLogger()
	logger.Debugf("Start AssignProductToCategory %d <- %s", categoryID, sku)
	defer logger.Debug("End AssignProductToCategory")

	link := &models.ProductLink{
		SKU:        sku,
		Position:   position,
		CategoryID: fmt.Sprintf("%d", categoryID),
	}
	err := c.do(ctx, "POST", fmt.Sprintf("/V1/categories/%d/products", categoryID), nil,
		&models.ProductLinkRequest{ProductLink: link}, nil)
	return errors.Wrapf(err, "failed in AssignProductToCategory(%d, %s)", categoryID, sku)
}

func (c *Client) RemoveProductFromCategory(ctx context.Context, categoryID int, sku string) error {
	logger := logging.GetLogger()
	logger.Debugf("Start RemoveProductFromCategory %d -> %s", categoryID, sku)
	defer logger.Debug("End RemoveProductFromCategory")

	err := c.do(ctx, "DELETE",
		fmt.Sprintf("/V1/categories/%d/products/%s", categoryID, url.PathEscape(sku)), nil, nil, nil)
	return errors.Wrapf(err, "failed in RemoveProductFromCategory(%d, %s)", categoryID, sku)
}
