package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/KirillAyvazov/BotShop/internal/domain"
	"github.com/KirillAyvazov/BotShop/internal/testutil"
)

func TestBucketOf(t *testing.T) {
	tests := []struct {
		status   domain.OrderStatus
		expected string
	}{
		{domain.StatusPendingConfirm, BucketNew},
		{domain.StatusPendingPayment, BucketCurrent},
		{domain.StatusPaid, BucketCurrent},
		{domain.StatusInProduction, BucketCurrent},
		{domain.StatusReadyForDelivery, BucketCurrent},
		{domain.StatusReadyForPickup, BucketCurrent},
		{domain.StatusCompleted, BucketCompleted},
		{domain.StatusCancelledBySeller, BucketCompleted},
		{domain.StatusCancelledByBuyer, BucketCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, bucketOf(tt.status))
		})
	}
}

func TestNewSellerOrders_FetchesAllBuckets(t *testing.T) {
	api := new(testutil.MockOrderAPI)
	resolver := new(testutil.MockResolver)

	api.On("GetSellerOrders", mock.Anything, BucketNew, 1, sellerPageSize).
		Return([]*domain.Order{placedOrder(1, 10, domain.StatusPendingConfirm)}, nil)
	api.On("GetSellerOrders", mock.Anything, BucketCurrent, 1, sellerPageSize).
		Return([]*domain.Order{
			placedOrder(2, 11, domain.StatusPaid),
			placedOrder(3, 12, domain.StatusInProduction),
		}, nil)
	api.On("GetSellerOrders", mock.Anything, BucketCompleted, 1, sellerPageSize).
		Return([]*domain.Order{placedOrder(4, 13, domain.StatusCompleted)}, nil)

	p := NewSellerOrders(context.Background(), api, resolver, testutil.NewTestLogger())

	assert.Len(t, p.New(), 1)
	assert.Len(t, p.Current(), 2)
	assert.Len(t, p.Completed(), 1)
	api.AssertExpectations(t)
}

func TestNewSellerOrders_FailedBucketDegrades(t *testing.T) {
	api := new(testutil.MockOrderAPI)
	resolver := new(testutil.MockResolver)

	api.On("GetSellerOrders", mock.Anything, BucketNew, 1, sellerPageSize).
		Return(nil, errors.New("remote down"))
	api.On("GetSellerOrders", mock.Anything, BucketCurrent, 1, sellerPageSize).
		Return([]*domain.Order{placedOrder(2, 11, domain.StatusPaid)}, nil)
	api.On("GetSellerOrders", mock.Anything, BucketCompleted, 1, sellerPageSize).
		Return([]*domain.Order{}, nil)

	p := NewSellerOrders(context.Background(), api, resolver, testutil.NewTestLogger())

	assert.Empty(t, p.New())
	assert.Len(t, p.Current(), 1)
	assert.Empty(t, p.Completed())
}

func TestSellerOrders_UpdateStatus(t *testing.T) {
	api := new(testutil.MockOrderAPI)
	resolver := new(testutil.MockResolver)

	order := placedOrder(1, 10, domain.StatusPendingConfirm)
	api.On("GetSellerOrders", mock.Anything, BucketNew, 1, sellerPageSize).
		Return([]*domain.Order{order}, nil)
	api.On("GetSellerOrders", mock.Anything, BucketCurrent, 1, sellerPageSize).
		Return([]*domain.Order{}, nil)
	api.On("GetSellerOrders", mock.Anything, BucketCompleted, 1, sellerPageSize).
		Return([]*domain.Order{}, nil)
	api.On("UpdateOrder", mock.Anything, order).Return(nil)

	p := NewSellerOrders(context.Background(), api, resolver, testutil.NewTestLogger())
	require.Len(t, p.New(), 1)

	require.NoError(t, p.UpdateStatus(context.Background(), order, domain.StatusPaid))

	assert.Equal(t, domain.StatusPaid, order.Status)
	assert.False(t, order.IsUpdated())
	require.NotNil(t, order.UpdatedAt)
	assert.Empty(t, p.New())
	assert.Len(t, p.Current(), 1)
	api.AssertExpectations(t)
}

func TestSellerOrders_UpdateStatus_InvalidTransition(t *testing.T) {
	api := new(testutil.MockOrderAPI)
	resolver := new(testutil.MockResolver)

	order := placedOrder(1, 10, domain.StatusCompleted)
	api.On("GetSellerOrders", mock.Anything, BucketNew, 1, sellerPageSize).
		Return([]*domain.Order{}, nil)
	api.On("GetSellerOrders", mock.Anything, BucketCurrent, 1, sellerPageSize).
		Return([]*domain.Order{}, nil)
	api.On("GetSellerOrders", mock.Anything, BucketCompleted, 1, sellerPageSize).
		Return([]*domain.Order{order}, nil)

	p := NewSellerOrders(context.Background(), api, resolver, testutil.NewTestLogger())

	err := p.UpdateStatus(context.Background(), order, domain.StatusPaid)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Len(t, p.Completed(), 1)
	api.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything)
}

func TestSellerOrders_UpdateStatus_BackendDownKeepsDirty(t *testing.T) {
	api := new(testutil.MockOrderAPI)
	resolver := new(testutil.MockResolver)

	order := placedOrder(1, 10, domain.StatusPendingConfirm)
	api.On("GetSellerOrders", mock.Anything, BucketNew, 1, sellerPageSize).
		Return([]*domain.Order{order}, nil)
	api.On("GetSellerOrders", mock.Anything, BucketCurrent, 1, sellerPageSize).
		Return([]*domain.Order{}, nil)
	api.On("GetSellerOrders", mock.Anything, BucketCompleted, 1, sellerPageSize).
		Return([]*domain.Order{}, nil)
	api.On("UpdateOrder", mock.Anything, order).Return(errors.New("remote down"))

	p := NewSellerOrders(context.Background(), api, resolver, testutil.NewTestLogger())

	require.NoError(t, p.UpdateStatus(context.Background(), order, domain.StatusCancelledBySeller))

	assert.Equal(t, domain.StatusCancelledBySeller, order.Status)
	assert.True(t, order.IsUpdated(), "unpushed change stays pending")
	assert.Len(t, p.Completed(), 1)
}

func TestSellerOrders_MoveOrder(t *testing.T) {
	api := new(testutil.MockOrderAPI)
	resolver := new(testutil.MockResolver)

	order := placedOrder(1, 10, domain.StatusPendingConfirm)
	api.On("GetSellerOrders", mock.Anything, BucketNew, 1, sellerPageSize).
		Return([]*domain.Order{order}, nil)
	api.On("GetSellerOrders", mock.Anything, BucketCurrent, 1, sellerPageSize).
		Return([]*domain.Order{}, nil)
	api.On("GetSellerOrders", mock.Anything, BucketCompleted, 1, sellerPageSize).
		Return([]*domain.Order{}, nil)

	p := NewSellerOrders(context.Background(), api, resolver, testutil.NewTestLogger())

	order.Status = domain.StatusCompleted
	p.MoveOrder(order)

	assert.Empty(t, p.New())
	assert.Empty(t, p.Current())
	require.Len(t, p.Completed(), 1)
	assert.Same(t, order, p.Completed()[0])
}
