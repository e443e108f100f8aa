package testutil

import (
	"go.uber.org/zap"

	"github.com/KirillAyvazov/BotShop/internal/domain"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// Str returns a pointer to the given string
func Str(s string) *string {
	return &s
}

// NewTestAccount creates an account with the given profile fields set
func NewTestAccount(tgID int64, firstName, phone string) *domain.Account {
	a := domain.NewAccount(tgID)
	a.SetProfile(domain.Profile{FirstName: Str(firstName), PhoneNumber: Str(phone)})
	return a
}

// NewTestProduct creates a catalog product
func NewTestProduct(id, name string, price int) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     name,
		Price:    price,
		Delivery: true,
		Category: "test",
	}
}

// NewTestOrder creates a placed order with one line item
func NewTestOrder(tgID, orderID int64, status domain.OrderStatus) *domain.Order {
	o := domain.NewBasket(tgID)
	o.ID = &orderID
	o.Status = status
	o.Items = []domain.OrderItem{{ProductID: "p-1", Count: 1, Price: 100}}
	o.TotalCost = 100
	o.SetRegistered(true)
	o.MarkSynced()
	return o
}
