package catalog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KirillAyvazov/BotShop/internal/cache"
	"github.com/KirillAyvazov/BotShop/internal/domain"
)

// API is the slice of the backend client the catalog mirror needs.
type API interface {
	GetCategories(ctx context.Context) ([]domain.Category, error)
	GetCategoryProducts(ctx context.Context, categoryID int) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
}

// CategoryPool is a read-through mirror of the shop catalog: the category
// list with products, refreshed periodically, plus a by-id index consumed by
// the order pools to resolve product data.
type CategoryPool struct {
	api     API
	cache   *cache.Cache
	period  time.Duration
	logger  *zap.Logger
	mu      sync.RWMutex
	catalog []domain.Category
	index   map[string]domain.Product
}

// New creates a catalog mirror. The cache bounds direct product lookups for
// ids missing from the mirror; period drives the background refresh.
func New(api API, productCache *cache.Cache, period time.Duration, logger *zap.Logger) *CategoryPool {
	return &CategoryPool{
		api:    api,
		cache:  productCache,
		period: period,
		logger: logger,
		index:  make(map[string]domain.Product),
	}
}

// Update refetches the catalog. The mirror is swapped only when the backend
// returned a non-empty category list, so a flaky backend never wipes a
// previously good catalog.
func (p *CategoryPool) Update(ctx context.Context) {
	categories, err := p.api.GetCategories(ctx)
	if err != nil {
		p.logger.Info("failed to refresh catalog", zap.Error(err))
		return
	}
	if len(categories) == 0 {
		return
	}

	for i := range categories {
		products, err := p.api.GetCategoryProducts(ctx, categories[i].ID)
		if err != nil {
			p.logger.Info("failed to fetch category products",
				zap.Int("category_id", categories[i].ID),
				zap.Error(err),
			)
			continue
		}
		categories[i].Products = products
	}

	index := make(map[string]domain.Product)
	for _, category := range categories {
		for _, product := range category.Products {
			index[product.ID] = product
		}
	}

	p.mu.Lock()
	p.catalog = categories
	p.index = index
	p.mu.Unlock()

	p.logger.Debug("catalog refreshed",
		zap.Int("categories", len(categories)),
		zap.Int("products", len(index)),
	)
}

// Categories returns the mirrored catalog.
func (p *CategoryPool) Categories() []domain.Category {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.Category, len(p.catalog))
	copy(out, p.catalog)
	return out
}

// ResolveProduct returns the product with the given id, preferring the
// mirror and falling back to a cached backend lookup. Returns nil without an
// error when the product is unknown on both sides.
func (p *CategoryPool) ResolveProduct(ctx context.Context, productID string) (*domain.Product, error) {
	p.mu.RLock()
	product, ok := p.index[productID]
	p.mu.RUnlock()
	if ok {
		return &product, nil
	}

	value, err := p.cache.GetOrCompute(cache.Key("product", productID), func() (any, error) {
		fetched, err := p.api.GetProduct(ctx, productID)
		if err != nil {
			p.logger.Info("product lookup failed",
				zap.String("product_id", productID),
				zap.Error(err),
			)
			return nil, err
		}
		if fetched == nil {
			return nil, nil
		}
		return fetched, nil
	})
	if err != nil || value == nil {
		return nil, err
	}
	return value.(*domain.Product), nil
}

// Run refreshes the catalog on the configured period until ctx is cancelled.
// A zero period disables the loop.
func (p *CategoryPool) Run(ctx context.Context) {
	if p.period <= 0 {
		p.logger.Info("catalog refresh disabled")
		return
	}

	ticker := time.NewTicker(p.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("catalog refresh stopped")
			return
		case <-ticker.C:
			p.Update(ctx)
		}
	}
}
