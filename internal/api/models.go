package api

import (
	"github.com/KirillAyvazov/BotShop/internal/domain"
)

// UserData is the wire form of a user profile.
type UserData struct {
	TgID        int64   `json:"tgId" validate:"required"`
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Nickname    *string `json:"nickname"`
	PhoneNumber *string `json:"phoneNumber"`
	HomeAddress *string `json:"homeAddress"`
}

// OrderItemData is the wire form of one order line.
type OrderItemData struct {
	ProductID string `json:"productsId" validate:"required"`
	Count     int    `json:"count" validate:"required,min=1"`
}

// OrderData is the wire form of an order.
type OrderData struct {
	TgID           int64           `json:"tgId"`
	ID             *int64          `json:"idOrder,omitempty"`
	Status         int             `json:"status" validate:"min=0,max=9"`
	CreatedAt      string          `json:"datetimeCreation"`
	UpdatedAt      *string         `json:"datetimeUpdate,omitempty"`
	UserComment    *string         `json:"userComment,omitempty" validate:"omitempty,max=200"`
	SellerComment  *string         `json:"sellerComment,omitempty" validate:"omitempty,max=500"`
	CompletionDate *string         `json:"completionDate,omitempty"`
	TotalCost      int             `json:"totalCost"`
	Delivery       bool            `json:"delivery"`
	Products       []OrderItemData `json:"products"`
}

// ProductData is the wire form of a catalog product.
type ProductData struct {
	ID          string   `json:"productId" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       int      `json:"price" validate:"min=0"`
	Images      []string `json:"image"`
	Delivery    bool     `json:"delivery"`
	Category    string   `json:"category"`
}

// CategoryData is the wire form of a catalog category.
type CategoryData struct {
	ID          int    `json:"categoryId" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Variability bool   `json:"variability"`
}

func userToDomain(d UserData) *domain.Account {
	acc := domain.NewAccount(d.TgID)
	acc.SetProfile(domain.Profile{
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		Nickname:    d.Nickname,
		PhoneNumber: d.PhoneNumber,
		HomeAddress: d.HomeAddress,
	})
	return acc
}

func userFromDomain(a *domain.Account) UserData {
	p := a.Profile()
	return UserData{
		TgID:        a.TgID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Nickname:    p.Nickname,
		PhoneNumber: p.PhoneNumber,
		HomeAddress: p.HomeAddress,
	}
}

func orderToDomain(d OrderData) *domain.Order {
	o := &domain.Order{
		TgID:           d.TgID,
		ID:             d.ID,
		Status:         domain.OrderStatus(d.Status),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
		CompletionDate: d.CompletionDate,
		TotalCost:      d.TotalCost,
		Delivery:       d.Delivery,
		UserComment:    d.UserComment,
		SellerComment:  d.SellerComment,
	}
	for _, item := range d.Products {
		o.Items = append(o.Items, domain.OrderItem{ProductID: item.ProductID, Count: item.Count})
	}
	o.SetRegistered(true)
	o.MarkSynced()
	return o
}

func orderFromDomain(o *domain.Order) OrderData {
	d := OrderData{
		TgID:           o.TgID,
		ID:             o.ID,
		Status:         int(o.Status),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		UserComment:    o.UserComment,
		SellerComment:  o.SellerComment,
		CompletionDate: o.CompletionDate,
		TotalCost:      o.TotalCost,
		Delivery:       o.Delivery,
		Products:       make([]OrderItemData, 0, len(o.Items)),
	}
	for _, item := range o.Items {
		d.Products = append(d.Products, OrderItemData{ProductID: item.ProductID, Count: item.Count})
	}
	return d
}

func productToDomain(d ProductData) domain.Product {
	return domain.Product{
		ID:          d.ID,
		Name:        d.Name,
		Price:       d.Price,
		Description: d.Description,
		Images:      d.Images,
		Delivery:    d.Delivery,
		Category:    d.Category,
	}
}
