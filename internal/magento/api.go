package magento

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/mounirtms/techno-etl/internal/config"
	"github.com/mounirtms/techno-etl/internal/magento/models"
	"github.com/mounirtms/techno-etl/internal/ratelimit"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

// API is the typed contract against the commerce store. The orchestrator
// only sees this interface so tests can substitute a fake.
type API interface {
	Login(ctx context.Context) error

	GetProductBySku(ctx context.Context, sku string) (*models.Product, bool, error)
	CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, sku string, p *models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, sku string) error
	ListProducts(ctx context.Context, sc *models.SearchCriteria) (*models.ProductList, error)

	ListCategories(ctx context.Context, sc *models.SearchCriteria) (*models.CategoryList, error)
	CreateCategory(ctx context.Context, c *models.Category) (*models.Category, error)
	AssignProductToCategory(ctx context.Context, categoryID int, sku string, position int) error
	RemoveProductFromCategory(ctx context.Context, categoryID int, sku string) error

	GetAttribute(ctx context.Context, code string) (*models.Attribute, bool, error)
	CreateAttribute(ctx context.Context, a *models.Attribute) (*models.Attribute, error)
	AddAttributeOption(ctx context.Context, code string, option *models.AttributeOption) error
	ListAttributeSets(ctx context.Context, sc *models.SearchCriteria) (*models.AttributeSetList, error)
	CreateAttributeSet(ctx context.Context, name string, skeletonID int) (*models.AttributeSet, error)

	GetProductMedia(ctx context.Context, sku string) ([]*models.MediaEntry, error)
	UploadProductMedia(ctx context.Context, sku string, entry *models.MediaEntry) (int, error)
}

type ClientConfig struct {
	BaseURL        string
	Username       string
	Password       string
	StoreView      string
	Timeout        time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	TokenTTL       time.Duration
}

func ClientConfigFromConfig(cfg *config.Config) ClientConfig {
	return ClientConfig{
		BaseURL:        cfg.MAGENTO.URL,
		Username:       cfg.MAGENTO.User,
		Password:       cfg.MAGENTO.Pass,
		StoreView:      cfg.MAGENTO.StoreView,
		Timeout:        time.Duration(cfg.MAGENTO.TimeoutMs) * time.Millisecond,
		RetryAttempts:  cfg.MAGENTO.RetryAttempts,
		RetryBaseDelay: time.Duration(cfg.MAGENTO.RetryBaseDelayMs) * time.Millisecond,
		TokenTTL:       time.Duration(cfg.MAGENTO.TokenTTLMinutes) * time.Minute,
	}
}

// Client is the process-scoped API client: admin token lifecycle, retry
// with exponential backoff and error classification live here, nowhere
// else.
type Client struct {
	cfg     ClientConfig
	http    *resty.Client
	limiter *ratelimit.Limiter

	mu        sync.RWMutex
	token     string
	refreshAt time.Time
}

func NewAPI(cfg ClientConfig, limiter *ratelimit.Limiter) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 3 * time.Hour
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: limiter,
	}
}

// Close drops the cached token.
func (c *Client) Close() {
	c.mu.Lock()
	c.token = ""
	c.refreshAt = time.Time{}
	c.mu.Unlock()
}

// endpoint builds /rest[/storeView]/V1/... paths.
func (c *Client) endpoint(path string) string {
	if c.cfg.StoreView != "" {
		return "/rest/" + c.cfg.StoreView + path
	}
	return "/rest" + path
}

// Login exchanges the admin credentials for a bearer token. The token is
// cached and refreshed proactively at 90% of its TTL.
func (c *Client) Login(ctx context.Context) error {
	logger := logging.GetLogger()
	logger.Debug("Start Login")
	defer logger.Debug("End Login")

	release, err := c.limiter.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"username": c.cfg.Username,
			"password": c.cfg.Password,
		}).
		Post(c.endpoint("/V1/integration/admin/token"))
	if err != nil {
		return &APIError{
			Class: ClassTransient, Method: "POST",
			Endpoint: "/V1/integration/admin/token",
			Message:  "network error during login",
		}
	}
	if resp.StatusCode() != 200 {
		return &APIError{
			Class:    classify(resp.StatusCode()),
			Status:   resp.StatusCode(),
			Method:   "POST",
			Endpoint: "/V1/integration/admin/token",
			Message:  "login rejected",
		}
	}

	var token string
	if err := json.Unmarshal(resp.Body(), &token); err != nil {
		return errors.Wrap(err, "failed unmarshalling admin token")
	}

	c.mu.Lock()
	c.token = token
	c.refreshAt = time.Now().Add(c.cfg.TokenTTL * 9 / 10)
	c.mu.Unlock()

	logger.Info("admin token acquired")
	return nil
}

func (c *Client) currentToken() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" || time.Now().After(c.refreshAt) {
		return "", false
	}
	return c.token, true
}

func (c *Client) ensureToken(ctx context.Context) (string, error) {
	if token, ok := c.currentToken(); ok {
		return token, nil
	}
	if err := c.Login(ctx); err != nil {
		return "", errors.Wrap(err, "failed in Login")
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, nil
}

// do executes one request with the full policy: limiter permit, token,
// classification, single re-login on 401, exponential backoff for
// retryable failures. out, when non-nil, receives the unmarshalled 2xx
// body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	logger := logging.GetLogger()

	reloggedIn := false
	var lastErr error

	for attempt := 1; attempt <= c.cfg.RetryAttempts; attempt++ {
		if attempt > 1 {
			delay := c.cfg.RetryBaseDelay * time.Duration(1<<(attempt-2))
			logger.Debugf("retry %d for %s %s after %s", attempt, method, path, delay)
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return errors.Wrap(ratelimit.ErrCancelled, ctx.Err().Error())
			}
		}

		err := c.doOnce(ctx, method, path, query, body, out)
		if err == nil {
			return nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			return err
		}

		if apiErr.Class == ClassAuthExpired && !reloggedIn {
			logger.Info("token rejected, re-login and retry once")
			reloggedIn = true
			c.Close()
			if loginErr := c.Login(ctx); loginErr != nil {
				return errors.Wrap(loginErr, "failed re-login after 401")
			}
			attempt-- // the re-login retry does not consume the budget
			continue
		}

		networkErr := apiErr.Status == 0
		if !retryable(apiErr.Class, method, apiErr.Status, networkErr) {
			return err
		}
	}

	return lastErr
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	release, err := c.limiter.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, c.endpoint(path))
	if err != nil {
		return &APIError{
			Class:    ClassTransient,
			Method:   method,
			Endpoint: path,
			Message:  fmt.Sprintf("network error: %v", err),
		}
	}

	status := resp.StatusCode()
	if status >= 200 && status < 300 {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return errors.Wrapf(err, "failed unmarshalling %s %s response", method, path)
		}
		return nil
	}

	message := "request failed"
	var errBody models.ErrorResponse
	if err := json.Unmarshal(resp.Body(), &errBody); err == nil && errBody.Message != "" {
		message = errBody.Message
	}

	return &APIError{
		Class:    classify(status),
		Status:   status,
		Method:   method,
		Endpoint: path,
		Message:  message,
	}
}
