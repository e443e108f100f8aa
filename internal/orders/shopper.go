package orders

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KirillAyvazov/BotShop/internal/domain"
)

// API is the slice of the backend client the order pools need.
type API interface {
	GetOrders(ctx context.Context, tgID int64) ([]*domain.Order, error)
	GetSellerOrders(ctx context.Context, bucket string, start, stop int) ([]*domain.Order, error)
	CreateOrder(ctx context.Context, o *domain.Order) (int64, error)
	UpdateOrder(ctx context.Context, o *domain.Order) error
}

// ProductResolver resolves a product id into catalog data. Implemented by the
// catalog mirror.
type ProductResolver interface {
	ResolveProduct(ctx context.Context, productID string) (*domain.Product, error)
}

// ShopperOrders holds every order of one shopper plus the single mutable
// basket. Exactly one order with the basket status exists per user; placing
// an order moves the basket into the order list and installs a fresh one.
type ShopperOrders struct {
	tgID     int64
	api      API
	resolver ProductResolver
	logger   *zap.Logger

	mu     sync.Mutex
	orders []*domain.Order
	basket *domain.Order
}

// NewShopperOrders fetches the orders of a user and partitions out the
// basket. A backend failure degrades to an empty order list and a fresh
// basket.
func NewShopperOrders(ctx context.Context, api API, resolver ProductResolver, tgID int64, logger *zap.Logger) *ShopperOrders {
	p := &ShopperOrders{
		tgID:     tgID,
		api:      api,
		resolver: resolver,
		logger:   logger,
	}

	fetched, err := api.GetOrders(ctx, tgID)
	if err != nil {
		logger.Info("failed to fetch orders, starting with an empty list",
			zap.Int64("user_id", tgID),
			zap.Error(err),
		)
	}

	for _, o := range fetched {
		p.resolvePrices(ctx, o)
		if o.Status == domain.StatusBasket && p.basket == nil {
			p.basket = o
			continue
		}
		p.orders = append(p.orders, o)
	}
	if p.basket == nil {
		p.basket = domain.NewBasket(tgID)
	}
	return p
}

// resolvePrices fills line-item prices from the catalog. Prices are not part
// of the server-persisted order state, so this never dirties the order.
func (p *ShopperOrders) resolvePrices(ctx context.Context, o *domain.Order) {
	for i := range o.Items {
		product, err := p.resolver.ResolveProduct(ctx, o.Items[i].ProductID)
		if err != nil || product == nil {
			p.logger.Info("product of an order line could not be resolved",
				zap.Int64("user_id", o.TgID),
				zap.String("product_id", o.Items[i].ProductID),
				zap.Error(err),
			)
			continue
		}
		o.Items[i].Price = product.Price
	}
}

// Orders returns the placed orders of the user.
func (p *ShopperOrders) Orders() []*domain.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*domain.Order, len(p.orders))
	copy(out, p.orders)
	return out
}

// Basket returns the current basket.
func (p *ShopperOrders) Basket() *domain.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.basket
}

// CreateNewOrder places the basket as a new order: its status moves to
// pending confirmation, it is persisted on the backend and appended to the
// order list, and a fresh empty basket takes its place.
func (p *ShopperOrders) CreateNewOrder(ctx context.Context) error {
	p.mu.Lock()
	basket := p.basket
	p.mu.Unlock()

	basket.CreatedAt = time.Now().Format(domain.TimeLayout)
	if err := basket.SetStatus(domain.StatusPendingConfirm); err != nil {
		return err
	}
	if err := p.SaveOnServer(ctx, basket); err != nil {
		p.logger.Warn("new order could not be persisted on the backend, keeping it for retry",
			zap.Int64("user_id", p.tgID),
			zap.Error(err),
		)
	}

	p.mu.Lock()
	p.orders = append(p.orders, basket)
	p.basket = domain.NewBasket(p.tgID)
	p.mu.Unlock()
	return nil
}

// SaveOnServer persists an order on the backend when needed: POST for an
// order the backend has never confirmed, PUT when local edits are pending.
func (p *ShopperOrders) SaveOnServer(ctx context.Context, o *domain.Order) error {
	switch {
	case !o.RegisteredOnServer():
		now := time.Now().Format(domain.TimeLayout)
		o.UpdatedAt = &now
		id, err := p.api.CreateOrder(ctx, o)
		if err != nil {
			return err
		}
		if id != 0 {
			o.ID = &id
		}
		o.SetRegistered(true)
		o.MarkSynced()

	case o.IsUpdated():
		now := time.Now().Format(domain.TimeLayout)
		o.UpdatedAt = &now
		if err := p.api.UpdateOrder(ctx, o); err != nil {
			return err
		}
		o.MarkSynced()
	}
	return nil
}

// CancelOrder marks an order as cancelled by the buyer and persists the
// change immediately.
func (p *ShopperOrders) CancelOrder(ctx context.Context, o *domain.Order) error {
	if err := o.Cancel(); err != nil {
		return err
	}
	return p.SaveOnServer(ctx, o)
}

// Flush pushes every pending order change, basket included, to the backend.
// Used by the pool sweep before a shopper is evicted.
func (p *ShopperOrders) Flush(ctx context.Context) {
	for _, o := range append(p.Orders(), p.Basket()) {
		if err := p.SaveOnServer(ctx, o); err != nil {
			p.logger.Warn("failed to flush order to backend",
				zap.Int64("user_id", p.tgID),
				zap.Error(err),
			)
		}
	}
}
