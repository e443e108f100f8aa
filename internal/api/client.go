package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/KirillAyvazov/BotShop/internal/domain"
)

const defaultTimeout = 10 * time.Second

// ErrRemoteUnavailable covers every way a backend call can fail: transport
// errors, non-200 statuses and malformed payloads. Callers recover locally
// and never treat it as fatal.
var ErrRemoteUnavailable = errors.New("shop backend unavailable")

// Config holds the backend base URLs.
type Config struct {
	UserURL     string
	OrderURL    string
	ProductURL  string
	CategoryURL string
	Timeout     time.Duration
}

// Client talks JSON to the remote shop backend.
type Client struct {
	httpClient  *http.Client
	userURL     string
	orderURL    string
	productURL  string
	categoryURL string
	validate    *validator.Validate
	logger      *zap.Logger
}

// New creates a backend client with one uniform timeout for every call.
func New(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		userURL:     cfg.UserURL,
		orderURL:    cfg.OrderURL,
		productURL:  cfg.ProductURL,
		categoryURL: cfg.CategoryURL,
		validate:    validator.New(),
		logger:      logger,
	}
}

// doJSON performs one request and decodes the response body into out when it
// is non-nil. Any status other than 200 is an error.
func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s %s: status %d", ErrRemoteUnavailable, method, url, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrRemoteUnavailable, err)
	}
	return nil
}

// GetUser fetches a user profile by chat id.
func (c *Client) GetUser(ctx context.Context, tgID int64) (*domain.Account, error) {
	var data UserData
	url := c.userURL + "/" + strconv.FormatInt(tgID, 10)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &data); err != nil {
		c.logger.Info("failed to fetch user from backend",
			zap.Int64("user_id", tgID),
			zap.Error(err),
		)
		return nil, err
	}
	if err := c.validate.Struct(data); err != nil {
		return nil, fmt.Errorf("%w: invalid user payload: %v", ErrRemoteUnavailable, err)
	}
	return userToDomain(data), nil
}

// CreateUser registers a new user profile on the backend.
func (c *Client) CreateUser(ctx context.Context, a *domain.Account) error {
	if err := c.doJSON(ctx, http.MethodPost, c.userURL, userFromDomain(a), nil); err != nil {
		c.logger.Warn("failed to create user on backend",
			zap.Int64("user_id", a.TgID),
			zap.Error(err),
		)
		return err
	}
	c.logger.Debug("user created on backend", zap.Int64("user_id", a.TgID))
	return nil
}

// UpdateUser pushes changed profile fields to the backend.
func (c *Client) UpdateUser(ctx context.Context, a *domain.Account) error {
	if err := c.doJSON(ctx, http.MethodPut, c.userURL, userFromDomain(a), nil); err != nil {
		c.logger.Warn("failed to update user on backend",
			zap.Int64("user_id", a.TgID),
			zap.Error(err),
		)
		return err
	}
	c.logger.Debug("user updated on backend", zap.Int64("user_id", a.TgID))
	return nil
}

// GetOrders fetches every order of one user.
func (c *Client) GetOrders(ctx context.Context, tgID int64) ([]*domain.Order, error) {
	var data []OrderData
	url := c.orderURL + "/" + strconv.FormatInt(tgID, 10)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &data); err != nil {
		return nil, err
	}
	return c.ordersToDomain(data)
}

// GetSellerOrders fetches a page of orders of one seller bucket ("new",
// "current" or "completed").
func (c *Client) GetSellerOrders(ctx context.Context, bucket string, start, stop int) ([]*domain.Order, error) {
	var data []OrderData
	url := fmt.Sprintf("%s/%s/%d/%d", c.orderURL, bucket, start, stop)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &data); err != nil {
		return nil, err
	}
	return c.ordersToDomain(data)
}

func (c *Client) ordersToDomain(data []OrderData) ([]*domain.Order, error) {
	orders := make([]*domain.Order, 0, len(data))
	for _, d := range data {
		if err := c.validate.Struct(d); err != nil {
			return nil, fmt.Errorf("%w: invalid order payload: %v", ErrRemoteUnavailable, err)
		}
		orders = append(orders, orderToDomain(d))
	}
	return orders, nil
}

// CreateOrder posts a new order and returns the id assigned by the backend,
// zero when the response carries none.
func (c *Client) CreateOrder(ctx context.Context, o *domain.Order) (int64, error) {
	var assigned struct {
		ID int64 `json:"idOrder"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.orderURL, orderFromDomain(o), &assigned); err != nil {
		c.logger.Warn("failed to create order on backend",
			zap.Int64("user_id", o.TgID),
			zap.Error(err),
		)
		return 0, err
	}
	c.logger.Debug("order created on backend",
		zap.Int64("user_id", o.TgID),
		zap.Int64("order_id", assigned.ID),
	)
	return assigned.ID, nil
}

// UpdateOrder pushes a changed order to the backend.
func (c *Client) UpdateOrder(ctx context.Context, o *domain.Order) error {
	if err := c.doJSON(ctx, http.MethodPut, c.orderURL, orderFromDomain(o), nil); err != nil {
		c.logger.Warn("failed to update order on backend",
			zap.Int64("user_id", o.TgID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// GetProduct fetches one product by id.
func (c *Client) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var data ProductData
	if err := c.doJSON(ctx, http.MethodGet, c.productURL+"/"+productID, nil, &data); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(data); err != nil {
		return nil, fmt.Errorf("%w: invalid product payload: %v", ErrRemoteUnavailable, err)
	}
	p := productToDomain(data)
	return &p, nil
}

// GetCategories fetches the category list, without products.
func (c *Client) GetCategories(ctx context.Context) ([]domain.Category, error) {
	var data []CategoryData
	if err := c.doJSON(ctx, http.MethodGet, c.categoryURL, nil, &data); err != nil {
		return nil, err
	}
	categories := make([]domain.Category, 0, len(data))
	for _, d := range data {
		if err := c.validate.Struct(d); err != nil {
			return nil, fmt.Errorf("%w: invalid category payload: %v", ErrRemoteUnavailable, err)
		}
		categories = append(categories, domain.Category{
			ID:          d.ID,
			Name:        d.Name,
			Variability: d.Variability,
		})
	}
	return categories, nil
}

// GetCategoryProducts fetches the products of one category.
func (c *Client) GetCategoryProducts(ctx context.Context, categoryID int) ([]domain.Product, error) {
	var data []ProductData
	url := c.categoryURL + "/" + strconv.Itoa(categoryID)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &data); err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(data))
	for _, d := range data {
		if err := c.validate.Struct(d); err != nil {
			return nil, fmt.Errorf("%w: invalid product payload: %v", ErrRemoteUnavailable, err)
		}
		products = append(products, productToDomain(d))
	}
	return products, nil
}
