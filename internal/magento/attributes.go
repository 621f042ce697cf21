package magento

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"github.com/mounirtms/techno-etl/internal/magento/models"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

func (c *Client) GetAttribute(ctx context.Context, code string) (*models.Attribute, bool, error) {
	logger := logging.GetLogger()
	logger.Debugf("Start GetAttribute %s", code)
	defer logger.Debug("End GetAttribute")

	var attr models.Attribute
	err := c.do(ctx, "GET", "/V1/products/attributes/"+url.PathEscape(code), nil, nil, &attr)
	if err != nil {
		if IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "failed in GetAttribute(%s)", code)
	}
	return &attr, true, nil
}

func (c *Client) CreateAttribute(ctx context.Context, a *models.Attribute) (*models.Attribute, error) {
	logger := logging.GetLogger()
	logger.Debugf("Start CreateAttribute %s", a.AttributeCode)
	defer logger.Debug("End CreateAttribute")

	var created models.Attribute
	err := c.do(ctx, "POST", "/V1/products/attributes", nil,
		&models.AttributeRequest{Attribute: a}, &created)
	if err != nil {
		return nil, errors.Wrapf(err, "failed in CreateAttribute(%s)", a.AttributeCode)
	}
	return &created, nil
}

func (c *Client) AddAttributeOption(ctx context.Context, code string, option *models.AttributeOption) error {
	logger := logging.GetLogger()
	logger.Debugf("Start AddAttributeOption %s=%s", code, option.Label)
	defer logger.Debug("End AddAttributeOption")

	err := c.do(ctx, "POST", "/V1/products/attributes/"+url.PathEscape(code)+"/options", nil,
		&models.AttributeOptionRequest{Option: option}, nil)
	return errors.Wrapf(err, "failed in AddAttributeOption(%s, %s)", code, option.Label)
}

func (c *Client) ListAttributeSets(ctx context.Context, sc *models.SearchCriteria) (*models.AttributeSetList, error) {
	logger := logging.GetLogger()
	logger.Debug("Start ListAttributeSets")
	defer logger.Debug("End ListAttributeSets")

	var list models.AttributeSetList
	err := c.do(ctx, "GET", "/V1/products/attribute-sets/sets/list", sc.Values(), nil, &list)
	if err != nil {
		return nil, errors.Wrap(err, "failed in ListAttributeSets")
	}
	return &list, nil
}

func (c *Client) CreateAttributeSet(ctx context.Context, name string, skeletonID int) (*models.AttributeSet, error) {
	logger := logging.GetLogger()
	logger.Debugf("Start CreateAttributeSet %s", name)
	defer logger.Debug("End CreateAttributeSet")

	var created models.AttributeSet
	err := c.do(ctx, "POST", "/V1/products/attribute-sets", nil,
		&models.AttributeSetRequest{
			AttributeSet: &models.AttributeSet{AttributeSetName: name, EntityTypeID: 4},
			SkeletonID:   skeletonID,
		}, &created)
	if err != nil {
		return nil, errors.Wrapf(err, "failed in CreateAttributeSet(%s)", name)
	}
	return &created, nil
}
