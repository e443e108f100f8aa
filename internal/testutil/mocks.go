package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/KirillAyvazov/BotShop/internal/domain"
	"github.com/KirillAyvazov/BotShop/internal/repository"
)

// MockUserAPI is a mock for the user side of the backend client
type MockUserAPI struct {
	mock.Mock
}

func (m *MockUserAPI) GetUser(ctx context.Context, tgID int64) (*domain.Account, error) {
	args := m.Called(ctx, tgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockUserAPI) CreateUser(ctx context.Context, a *domain.Account) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockUserAPI) UpdateUser(ctx context.Context, a *domain.Account) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// MockOrderAPI is a mock for the order side of the backend client
type MockOrderAPI struct {
	mock.Mock
}

func (m *MockOrderAPI) GetOrders(ctx context.Context, tgID int64) ([]*domain.Order, error) {
	args := m.Called(ctx, tgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *MockOrderAPI) GetSellerOrders(ctx context.Context, bucket string, start, stop int) ([]*domain.Order, error) {
	args := m.Called(ctx, bucket, start, stop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *MockOrderAPI) CreateOrder(ctx context.Context, o *domain.Order) (int64, error) {
	args := m.Called(ctx, o)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderAPI) UpdateOrder(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

// MockUserStateRepository is a mock for repository.UserStateRepository
type MockUserStateRepository struct {
	mock.Mock
}

func (m *MockUserStateRepository) SaveState(state repository.UserState) error {
	args := m.Called(state)
	return args.Error(0)
}

func (m *MockUserStateRepository) GetState(tgID int64) (*repository.UserState, error) {
	args := m.Called(tgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.UserState), args.Error(1)
}

// MockNotificationRepository is a mock for repository.NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) AddNotification(userID, notificationID int64) error {
	args := m.Called(userID, notificationID)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListNotifications(userID int64) ([]int64, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockNotificationRepository) DeleteNotifications(userID int64) error {
	args := m.Called(userID)
	return args.Error(0)
}

// MockResolver is a mock for the catalog product resolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ResolveProduct(ctx context.Context, productID string) (*domain.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

// MockCatalogAPI is a mock for the catalog slice of the backend client
type MockCatalogAPI struct {
	mock.Mock
}

func (m *MockCatalogAPI) GetCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *MockCatalogAPI) GetCategoryProducts(ctx context.Context, categoryID int) ([]domain.Product, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockCatalogAPI) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

// FakeSink records session-close and delete-message calls
type FakeSink struct {
	Closed  []int64
	Deleted map[int64][]int
}

func NewFakeSink() *FakeSink {
	return &FakeSink{Deleted: make(map[int64][]int)}
}

func (f *FakeSink) CloseSession(userID int64) {
	f.Closed = append(f.Closed, userID)
}

func (f *FakeSink) DeleteMessage(chatID int64, messageID int) {
	f.Deleted[chatID] = append(f.Deleted[chatID], messageID)
}
