package orders

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KirillAyvazov/BotShop/internal/domain"
)

// Seller bucket names understood by the backend.
const (
	BucketNew       = "new"
	BucketCurrent   = "current"
	BucketCompleted = "completed"
)

const sellerPageSize = 100

// SellerOrders partitions the shop's orders by processing stage: new orders
// awaiting confirmation, current orders being worked on and completed or
// cancelled ones.
type SellerOrders struct {
	api      API
	resolver ProductResolver
	logger   *zap.Logger

	mu        sync.Mutex
	new       []*domain.Order
	current   []*domain.Order
	completed []*domain.Order
}

// NewSellerOrders fetches the three buckets from the backend concurrently.
// A failed bucket degrades to an empty list.
func NewSellerOrders(ctx context.Context, api API, resolver ProductResolver, logger *zap.Logger) *SellerOrders {
	p := &SellerOrders{
		api:      api,
		resolver: resolver,
		logger:   logger,
	}

	g, gctx := errgroup.WithContext(ctx)
	results := make([][]*domain.Order, 3)
	for i, bucket := range []string{BucketNew, BucketCurrent, BucketCompleted} {
		i, bucket := i, bucket
		g.Go(func() error {
			fetched, err := api.GetSellerOrders(gctx, bucket, 1, sellerPageSize)
			if err != nil {
				logger.Info("failed to fetch seller orders",
					zap.String("bucket", bucket),
					zap.Error(err),
				)
				return nil
			}
			results[i] = fetched
			return nil
		})
	}
	// The goroutines report failures through the log and never return an
	// error, so the group cannot fail.
	_ = g.Wait()

	for _, fetched := range results {
		for _, o := range fetched {
			p.resolvePrices(ctx, o)
			p.appendLocked(o)
		}
	}
	return p
}

func (p *SellerOrders) resolvePrices(ctx context.Context, o *domain.Order) {
	for i := range o.Items {
		product, err := p.resolver.ResolveProduct(ctx, o.Items[i].ProductID)
		if err != nil || product == nil {
			continue
		}
		o.Items[i].Price = product.Price
	}
}

func bucketOf(status domain.OrderStatus) string {
	switch {
	case status == domain.StatusPendingConfirm:
		return BucketNew
	case status >= domain.StatusPendingPayment && status <= domain.StatusReadyForPickup:
		return BucketCurrent
	default:
		return BucketCompleted
	}
}

func (p *SellerOrders) appendLocked(o *domain.Order) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch bucketOf(o.Status) {
	case BucketNew:
		p.new = append(p.new, o)
	case BucketCurrent:
		p.current = append(p.current, o)
	default:
		p.completed = append(p.completed, o)
	}
}

func remove(list []*domain.Order, o *domain.Order) []*domain.Order {
	for i := range list {
		if list[i] == o {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// New returns the orders awaiting confirmation.
func (p *SellerOrders) New() []*domain.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*domain.Order, len(p.new))
	copy(out, p.new)
	return out
}

// Current returns the orders in progress.
func (p *SellerOrders) Current() []*domain.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*domain.Order, len(p.current))
	copy(out, p.current)
	return out
}

// Completed returns the finished and cancelled orders.
func (p *SellerOrders) Completed() []*domain.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*domain.Order, len(p.completed))
	copy(out, p.completed)
	return out
}

// MoveOrder re-buckets an order after its status changed.
func (p *SellerOrders) MoveOrder(o *domain.Order) {
	p.mu.Lock()
	p.new = remove(p.new, o)
	p.current = remove(p.current, o)
	p.completed = remove(p.completed, o)
	p.mu.Unlock()
	p.appendLocked(o)
}

// UpdateStatus validates and applies a seller-side status transition,
// persists the order and re-buckets it.
func (p *SellerOrders) UpdateStatus(ctx context.Context, o *domain.Order, next domain.OrderStatus) error {
	if err := o.SetStatus(next); err != nil {
		return err
	}
	now := time.Now().Format(domain.TimeLayout)
	o.UpdatedAt = &now
	if err := p.api.UpdateOrder(ctx, o); err != nil {
		p.logger.Warn("failed to push seller status change",
			zap.Int64("user_id", o.TgID),
			zap.Error(err),
		)
	} else {
		o.MarkSynced()
	}
	p.MoveOrder(o)
	return nil
}
