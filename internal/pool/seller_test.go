package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/KirillAyvazov/BotShop/internal/domain"
	"github.com/KirillAyvazov/BotShop/internal/orders"
	"github.com/KirillAyvazov/BotShop/internal/repository"
	"github.com/KirillAyvazov/BotShop/internal/testutil"
)

type sellerPoolFixture struct {
	api          *testutil.MockUserAPI
	states       *testutil.MockUserStateRepository
	sink         *testutil.FakeSink
	pool         *SellerPool
	factoryCalls int
}

func newSellerPoolFixture(t *testing.T, sellerIDs []int64, sessionTime time.Duration) *sellerPoolFixture {
	t.Helper()
	f := &sellerPoolFixture{
		api:    new(testutil.MockUserAPI),
		states: new(testutil.MockUserStateRepository),
		sink:   testutil.NewFakeSink(),
	}
	orderAPI := new(testutil.MockOrderAPI)
	orderAPI.On("GetSellerOrders", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*domain.Order{}, nil)
	resolver := new(testutil.MockResolver)

	factory := func(ctx context.Context) *orders.SellerOrders {
		f.factoryCalls++
		return orders.NewSellerOrders(ctx, orderAPI, resolver, testutil.NewTestLogger())
	}
	f.pool = NewSellerPool(f.api, f.states, factory, sellerIDs, sessionTime, testutil.NewTestLogger())
	f.pool.AddBot(f.sink)
	return f
}

func TestSellerPool_Get_RejectsUnknownID(t *testing.T) {
	f := newSellerPoolFixture(t, []int64{111}, time.Hour)

	s, err := f.pool.Get(context.Background(), 999)

	assert.ErrorIs(t, err, ErrNotSeller)
	assert.Nil(t, s)
	assert.Equal(t, 0, f.pool.Size())
	f.api.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
}

func TestSellerPool_Get_ConfiguredSeller(t *testing.T) {
	f := newSellerPoolFixture(t, []int64{111}, time.Hour)

	remote := testutil.NewTestAccount(111, "Anna", "+79990001122")
	f.api.On("GetUser", mock.Anything, int64(111)).Return(remote, nil).Once()
	f.states.On("GetState", int64(111)).Return(nil, nil)

	s, err := f.pool.Get(context.Background(), 111)

	require.NoError(t, err)
	require.NotNil(t, s)
	assert.True(t, s.RegisteredOnServer)
	assert.False(t, s.IsChanged())

	again, err := f.pool.Get(context.Background(), 111)
	require.NoError(t, err)
	assert.Same(t, s, again)
	f.api.AssertExpectations(t)
}

func TestSellerPool_Get_BackendDownFallsBackToBlank(t *testing.T) {
	f := newSellerPoolFixture(t, []int64{111}, time.Hour)

	f.api.On("GetUser", mock.Anything, int64(111)).Return(nil, errors.New("remote down"))
	f.states.On("GetState", int64(111)).Return(nil, nil)

	s, err := f.pool.Get(context.Background(), 111)

	require.NoError(t, err)
	assert.False(t, s.RegisteredOnServer)
}

func TestSellerPool_Get_RestoresLocalState(t *testing.T) {
	f := newSellerPoolFixture(t, []int64{111}, time.Hour)

	lastSession := time.Now().Add(-10 * time.Minute)
	f.api.On("GetUser", mock.Anything, int64(111)).Return(nil, errors.New("remote down"))
	f.states.On("GetState", int64(111)).Return(&repository.UserState{
		TgID:           111,
		BotMessageIDs:  "5,6",
		UserMessageIDs: "7",
		LastSession:    lastSession,
	}, nil)

	s, err := f.pool.Get(context.Background(), 111)
	require.NoError(t, err)

	botIDs, err := s.MessageIDs(domain.SourceBot)
	require.NoError(t, err)
	assert.Equal(t, "5,6", botIDs)
	userIDs, err := s.MessageIDs(domain.SourceUser)
	require.NoError(t, err)
	assert.Equal(t, "7", userIDs)
	// Get counts as activity, so the restored timestamp is already superseded
	assert.True(t, s.LastSession().After(lastSession))
}

func TestSeller_Orders_LazySingleFetch(t *testing.T) {
	f := newSellerPoolFixture(t, []int64{111}, time.Hour)

	f.api.On("GetUser", mock.Anything, int64(111)).Return(nil, errors.New("remote down"))
	f.states.On("GetState", int64(111)).Return(nil, nil)

	s, err := f.pool.Get(context.Background(), 111)
	require.NoError(t, err)
	assert.Equal(t, 0, f.factoryCalls)

	first := s.Orders(context.Background())
	second := s.Orders(context.Background())

	assert.Same(t, first, second)
	assert.Equal(t, 1, f.factoryCalls)
}

func TestSellerPool_Run_DisabledWithoutSessionTime(t *testing.T) {
	f := newSellerPoolFixture(t, []int64{111}, 0)

	done := make(chan struct{})
	go func() {
		f.pool.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run must return immediately when eviction is disabled")
	}
}

func TestSellerPool_Run_StopsOnContextCancel(t *testing.T) {
	f := newSellerPoolFixture(t, []int64{111}, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.pool.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run must stop once the context is cancelled")
	}
}

func TestSellerPool_Sweep_EvictsIdleSeller(t *testing.T) {
	f := newSellerPoolFixture(t, []int64{111}, time.Minute)

	f.api.On("GetUser", mock.Anything, int64(111)).Return(nil, errors.New("remote down"))
	f.states.On("GetState", int64(111)).Return(nil, nil)
	f.states.On("SaveState", mock.Anything).Return(nil)
	f.api.On("CreateUser", mock.Anything, mock.Anything).Return(nil)

	s, err := f.pool.Get(context.Background(), 111)
	require.NoError(t, err)
	s.SetLastSession(time.Now().Add(-time.Hour))

	f.pool.Sweep(context.Background())

	assert.Equal(t, 0, f.pool.Size())
	assert.Equal(t, []int64{111}, f.sink.Closed)
}

func TestSellerPool_Sweep_DirtySellerSurvivesBackendOutage(t *testing.T) {
	f := newSellerPoolFixture(t, []int64{111}, time.Minute)

	remote := testutil.NewTestAccount(111, "Anna", "+79990001122")
	f.api.On("GetUser", mock.Anything, int64(111)).Return(remote, nil).Once()
	f.states.On("GetState", int64(111)).Return(nil, nil)
	f.states.On("SaveState", mock.Anything).Return(nil)
	f.api.On("UpdateUser", mock.Anything, mock.Anything).Return(errors.New("remote down")).Once()

	s, err := f.pool.Get(context.Background(), 111)
	require.NoError(t, err)
	nickname := "anna_bakes"
	s.UpdateProfile(func(p *domain.Profile) { p.Nickname = &nickname })
	s.SetLastSession(time.Now().Add(-time.Hour))

	f.pool.Sweep(context.Background())

	assert.Equal(t, 1, f.pool.Size(), "dirty seller stays resident")
	assert.True(t, s.IsChanged())

	s.SetLastSession(time.Now().Add(-time.Hour))
	f.api.On("UpdateUser", mock.Anything, mock.Anything).Return(nil).Once()
	f.pool.Sweep(context.Background())

	assert.Equal(t, 0, f.pool.Size())
	assert.False(t, s.IsChanged())
	f.api.AssertExpectations(t)
}

func TestSellerPool_Sweep_UnregisteredDirtyMergesRemote(t *testing.T) {
	f := newSellerPoolFixture(t, []int64{111}, time.Minute)

	// The initial fetch fails, so the account starts blank and unregistered
	f.api.On("GetUser", mock.Anything, int64(111)).Return(nil, errors.New("remote down")).Once()
	f.states.On("GetState", int64(111)).Return(nil, nil)
	f.states.On("SaveState", mock.Anything).Return(nil)

	s, err := f.pool.Get(context.Background(), 111)
	require.NoError(t, err)
	phone := "+79995556677"
	s.UpdateProfile(func(p *domain.Profile) { p.PhoneNumber = &phone })
	s.SetLastSession(time.Now().Add(-time.Hour))

	// The create collides with the record the backend already holds. The pool
	// merges the remote profile into the unset fields and retries as update.
	remote := testutil.NewTestAccount(111, "Anna", "+79990001122")
	f.api.On("CreateUser", mock.Anything, mock.Anything).Return(errors.New("already exists")).Once()
	f.api.On("GetUser", mock.Anything, int64(111)).Return(remote, nil).Once()
	f.api.On("UpdateUser", mock.Anything, mock.MatchedBy(func(a *domain.Account) bool {
		p := a.Profile()
		return p.FirstName != nil && *p.FirstName == "Anna" &&
			p.PhoneNumber != nil && *p.PhoneNumber == "+79995556677"
	})).Return(nil).Once()

	f.pool.Sweep(context.Background())

	assert.True(t, s.RegisteredOnServer)
	assert.False(t, s.IsChanged())
	assert.Equal(t, 0, f.pool.Size())
	f.api.AssertExpectations(t)
}

func TestSellerPool_Sweep_KeepsActiveSeller(t *testing.T) {
	f := newSellerPoolFixture(t, []int64{111}, time.Minute)

	f.api.On("GetUser", mock.Anything, int64(111)).Return(nil, errors.New("remote down"))
	f.states.On("GetState", int64(111)).Return(nil, nil)

	_, err := f.pool.Get(context.Background(), 111)
	require.NoError(t, err)

	f.pool.Sweep(context.Background())

	assert.Equal(t, 1, f.pool.Size())
	assert.Empty(t, f.sink.Closed)
}
