package pool

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KirillAyvazov/BotShop/internal/domain"
	"github.com/KirillAyvazov/BotShop/internal/orders"
	"github.com/KirillAyvazov/BotShop/internal/repository"
)

// ErrNotSeller is returned for a chat id missing from the configured seller
// list.
var ErrNotSeller = errors.New("user is not a seller")

// SellerOrdersFactory builds the shared seller order buckets.
type SellerOrdersFactory func(ctx context.Context) *orders.SellerOrders

// Seller is an account with the seller-side order buckets. The buckets are
// fetched lazily on first access and shared between sellers.
type Seller struct {
	*domain.Account

	newOrders SellerOrdersFactory
	ordersMu  sync.Mutex
	orders    *orders.SellerOrders
}

// Orders returns the seller order buckets, fetching them on first access.
func (s *Seller) Orders(ctx context.Context) *orders.SellerOrders {
	s.ordersMu.Lock()
	defer s.ordersMu.Unlock()
	if s.orders == nil {
		s.orders = s.newOrders(ctx)
	}
	return s.orders
}

// SellerPool caches seller objects by chat id. Only ids present in the
// configured seller list are served. Idle sellers are reconciled and evicted
// the same way shoppers are.
type SellerPool struct {
	api         UserAPI
	states      repository.UserStateRepository
	newOrders   SellerOrdersFactory
	allowed     map[int64]struct{}
	sessionTime time.Duration
	logger      *zap.Logger

	mu   sync.Mutex
	pool map[int64]*Seller
	sink Sink
}

// NewSellerPool creates an empty seller pool serving only the given ids.
func NewSellerPool(
	api UserAPI,
	states repository.UserStateRepository,
	newOrders SellerOrdersFactory,
	sellerIDs []int64,
	sessionTime time.Duration,
	logger *zap.Logger,
) *SellerPool {
	allowed := make(map[int64]struct{}, len(sellerIDs))
	for _, id := range sellerIDs {
		allowed[id] = struct{}{}
	}
	return &SellerPool{
		api:         api,
		states:      states,
		newOrders:   newOrders,
		allowed:     allowed,
		sessionTime: sessionTime,
		logger:      logger,
		pool:        make(map[int64]*Seller),
	}
}

// AddBot registers the bot surface used during eviction.
func (p *SellerPool) AddBot(sink Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = sink
}

// Get returns the seller with the given chat id, or ErrNotSeller for ids
// outside the configured list.
func (p *SellerPool) Get(ctx context.Context, tgID int64) (*Seller, error) {
	if _, ok := p.allowed[tgID]; !ok {
		return nil, ErrNotSeller
	}

	p.mu.Lock()
	if s, ok := p.pool[tgID]; ok {
		p.mu.Unlock()
		s.UpdateActivityTime()
		return s, nil
	}
	p.mu.Unlock()

	account, err := p.api.GetUser(ctx, tgID)
	if err != nil || account == nil {
		account = domain.NewAccount(tgID)
	} else {
		account.RegisteredOnServer = true
		account.MarkSynced()
	}

	s := &Seller{Account: account, newOrders: p.newOrders}
	p.restoreLocalState(s)

	p.mu.Lock()
	if existing, ok := p.pool[tgID]; ok {
		p.mu.Unlock()
		existing.UpdateActivityTime()
		return existing, nil
	}
	p.pool[tgID] = s
	p.mu.Unlock()

	s.UpdateActivityTime()
	return s, nil
}

// restoreLocalState refills the message queues and last-session timestamp
// from the local store. Failures are logged and ignored.
func (p *SellerPool) restoreLocalState(s *Seller) {
	state, err := p.states.GetState(s.TgID)
	if err != nil {
		p.logger.Warn("failed to read local seller state",
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

// Size returns the number of cached sellers.
func (p *SellerPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pool)
}

// Run drives the eviction loop until ctx is cancelled. A zero session time
// disables it.
func (p *SellerPool) Run(ctx context.Context) {
	if p.sessionTime <= 0 {
		p.logger.Info("seller eviction disabled")
		return
	}

	ticker := time.NewTicker(p.sessionTime / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("seller eviction stopped")
			return
		case <-ticker.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep reconciles and evicts idle sellers, keeping any that are still
// dirty after a failed backend write.
func (p *SellerPool) Sweep(ctx context.Context) {
	p.mu.Lock()
	snapshot := make(map[int64]*Seller, len(p.pool))
	for id, s := range p.pool {
		snapshot[id] = s
	}
	sink := p.sink
	p.mu.Unlock()

	idle := make(map[int64]*Seller)
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
		}
		s.DropSteps()
		p.saveLocal(s)
		p.reconcile(ctx, s)
	}

	p.mu.Lock()
	next := make(map[int64]*Seller, len(p.pool))
	for id, s := range p.pool {
		if _, evicted := idle[id]; evicted && !s.IsChanged() {
			continue
		}
		next[id] = s
	}
	p.pool = next
	p.mu.Unlock()
}

func (p *SellerPool) reconcile(ctx context.Context, s *Seller) {
	reconcileAccount(ctx, p.api, s.Account)
}

func (p *SellerPool) saveLocal(s *Seller) {
	botIDs, _ := s.MessageIDs(domain.SourceBot)
	userIDs, _ := s.MessageIDs(domain.SourceUser)
	err := p.states.SaveState(repository.UserState{
		TgID:           s.TgID,
		BotMessageIDs:  botIDs,
		UserMessageIDs: userIDs,
		LastSession:    s.LastSession(),
	})
	if err != nil {
		p.logger.Warn("failed to save local seller state",
			zap.Int64("user_id", s.TgID),
			zap.Error(err),
		)
	}
}
