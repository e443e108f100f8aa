package pool

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KirillAyvazov/BotShop/internal/domain"
	"github.com/KirillAyvazov/BotShop/internal/orders"
	"github.com/KirillAyvazov/BotShop/internal/repository"
)

// UserAPI is the slice of the backend client the pools need.
type UserAPI interface {
	GetUser(ctx context.Context, tgID int64) (*domain.Account, error)
	CreateUser(ctx context.Context, a *domain.Account) error
	UpdateUser(ctx context.Context, a *domain.Account) error
}

// Sink is the bot surface a pool notifies during eviction.
type Sink interface {
	CloseSession(userID int64)
	DeleteMessage(chatID int64, messageID int)
}

// ShopperOrdersFactory builds the orders pool of one shopper.
type ShopperOrdersFactory func(ctx context.Context, tgID int64) *orders.ShopperOrders

// Shopper is an account with its orders and basket. The orders pool is
// created lazily on first access.
type Shopper struct {
	*domain.Account

	newOrders ShopperOrdersFactory
	ordersMu  sync.Mutex
	orders    *orders.ShopperOrders
}

// Orders returns the shopper's orders pool, fetching it from the backend on
// first access.
func (s *Shopper) Orders(ctx context.Context) *orders.ShopperOrders {
	s.ordersMu.Lock()
	defer s.ordersMu.Unlock()
	if s.orders == nil {
		s.orders = s.newOrders(ctx, s.TgID)
	}
	return s.orders
}

// loadedOrders returns the orders pool only if it has been fetched already.
// Sweeps use it so eviction never forces an order fetch.
func (s *Shopper) loadedOrders() *orders.ShopperOrders {
	s.ordersMu.Lock()
	defer s.ordersMu.Unlock()
	return s.orders
}

// ShopperPool caches shopper objects by chat id. Misses are populated from
// the backend or with a blank account; idle shoppers are periodically
// reconciled with the backend and dropped from memory.
type ShopperPool struct {
	api           UserAPI
	states        repository.UserStateRepository
	notifications repository.NotificationRepository
	newOrders     ShopperOrdersFactory
	sessionTime   time.Duration
	logger        *zap.Logger

	mu   sync.Mutex
	pool map[int64]*Shopper
	sink Sink
}

// NewShopperPool creates an empty pool. A zero sessionTime disables the
// eviction loop.
func NewShopperPool(
	api UserAPI,
	states repository.UserStateRepository,
	notifications repository.NotificationRepository,
	newOrders ShopperOrdersFactory,
	sessionTime time.Duration,
	logger *zap.Logger,
) *ShopperPool {
	return &ShopperPool{
		api:           api,
		states:        states,
		notifications: notifications,
		newOrders:     newOrders,
		sessionTime:   sessionTime,
		logger:        logger,
		pool:          make(map[int64]*Shopper),
	}
}

// AddBot registers the bot surface used to close sessions and delete
// notification messages during eviction.
func (p *ShopperPool) AddBot(sink Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = sink
}

// Get returns the shopper with the given chat id. A cache hit returns the
// same instance as before; a miss tries the backend and falls back to a
// blank unregistered account. The activity time is updated on every call.
func (p *ShopperPool) Get(ctx context.Context, tgID int64) *Shopper {
	p.mu.Lock()
	if s, ok := p.pool[tgID]; ok {
		p.mu.Unlock()
		s.UpdateActivityTime()
		return s
	}
	p.mu.Unlock()

	// The backend fetch runs outside the pool lock so a slow remote does not
	// serialize unrelated users.
	account, err := p.api.GetUser(ctx, tgID)
	if err != nil || account == nil {
		account = domain.NewAccount(tgID)
	} else {
		account.RegisteredOnServer = true
		account.MarkSynced()
	}

	s := &Shopper{Account: account, newOrders: p.newOrders}
	p.restoreLocalState(s)

	p.mu.Lock()
	if existing, ok := p.pool[tgID]; ok {
		p.mu.Unlock()
		existing.UpdateActivityTime()
		return existing
	}
	p.pool[tgID] = s
	p.mu.Unlock()

	s.UpdateActivityTime()
	return s
}

// restoreLocalState refills the message queues and last-session timestamp
// from the local store. Failures are logged and ignored.
func (p *ShopperPool) restoreLocalState(s *Shopper) {
	state, err := p.states.GetState(s.TgID)
	if err != nil {
		p.logger.Warn("failed to read local user state",
			zap.Int64("user_id", s.TgID),
			zap.Error(err),
		)
		return
	}
	if state == nil {
		return
	}
	s.RestoreMessageIDs(domain.SourceBot, state.BotMessageIDs)
	s.RestoreMessageIDs(domain.SourceUser, state.UserMessageIDs)
	s.SetLastSession(state.LastSession)
}

// Size returns the number of cached shoppers.
func (p *ShopperPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pool)
}

// IsActive reports whether the user currently has a cached session.
func (p *ShopperPool) IsActive(tgID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.pool[tgID]
	return ok
}

// Run drives the eviction loop until ctx is cancelled, sweeping twice per
// session lifetime. A zero session time disables eviction entirely.
func (p *ShopperPool) Run(ctx context.Context) {
	if p.sessionTime <= 0 {
		p.logger.Info("shopper eviction disabled")
		return
	}

	ticker := time.NewTicker(p.sessionTime / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shopper eviction stopped")
			return
		case <-ticker.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep processes every shopper idle for longer than the session time: the
// session is closed, local state saved, profile and orders reconciled with
// the backend, and the shopper dropped from the pool unless it is still
// dirty, in which case it stays resident and is retried next cycle.
func (p *ShopperPool) Sweep(ctx context.Context) {
	p.mu.Lock()
	snapshot := make(map[int64]*Shopper, len(p.pool))
	for id, s := range p.pool {
		snapshot[id] = s
	}
	sink := p.sink
	p.mu.Unlock()

	idle := make(map[int64]*Shopper)
	for id, s := range snapshot {
		if time.Since(s.LastSession()) > p.sessionTime {
			idle[id] = s
		}
	}
	if len(idle) == 0 {
		return
	}

	for _, s := range idle {
		if sink != nil {
			sink.CloseSession(s.TgID)
			p.deleteNotifications(sink, s)
		}
		s.DropSteps()
		p.saveLocal(s)
		p.reconcile(ctx, s)
	}

	p.mu.Lock()
	next := make(map[int64]*Shopper, len(p.pool))
	for id, s := range p.pool {
		if _, evicted := idle[id]; evicted && !s.IsChanged() {
			continue
		}
		next[id] = s
	}
	before := len(p.pool)
	p.pool = next
	p.mu.Unlock()

	p.logger.Debug("shopper pool swept",
		zap.Int("before", before),
		zap.Int("after", len(next)),
	)
}

// reconcile pushes a shopper's profile and orders to the backend.
func (p *ShopperPool) reconcile(ctx context.Context, s *Shopper) {
	reconcileAccount(ctx, p.api, s.Account)

	if op := s.loadedOrders(); op != nil {
		op.Flush(ctx)
	}
}

// saveLocal persists the message queues and activity timestamp. Local
// persistence failure is non-fatal to the in-memory object.
func (p *ShopperPool) saveLocal(s *Shopper) {
	botIDs, _ := s.MessageIDs(domain.SourceBot)
	userIDs, _ := s.MessageIDs(domain.SourceUser)
	err := p.states.SaveState(repository.UserState{
		TgID:           s.TgID,
		BotMessageIDs:  botIDs,
		UserMessageIDs: userIDs,
		LastSession:    s.LastSession(),
	})
	if err != nil {
		p.logger.Warn("failed to save local user state",
			zap.Int64("user_id", s.TgID),
			zap.Error(err),
		)
	}
}

// deleteNotifications removes the user's stored notification messages from
// the chat and forgets them locally.
func (p *ShopperPool) deleteNotifications(sink Sink, s *Shopper) {
	ids, err := p.notifications.ListNotifications(s.TgID)
	if err != nil {
		p.logger.Warn("failed to list notifications",
			zap.Int64("user_id", s.TgID),
			zap.Error(err),
		)
		return
	}
	for _, id := range ids {
		sink.DeleteMessage(s.TgID, int(id))
	}
	if err := p.notifications.DeleteNotifications(s.TgID); err != nil {
		p.logger.Warn("failed to delete notifications",
			zap.Int64("user_id", s.TgID),
			zap.Error(err),
		)
	}
}

// AddNotification stores the id of a notification message sent to a user.
func (p *ShopperPool) AddNotification(userID, notificationID int64) {
	if err := p.notifications.AddNotification(userID, notificationID); err != nil {
		p.logger.Warn("failed to store notification id",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}
