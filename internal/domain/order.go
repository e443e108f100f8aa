package domain

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"time"
)

// TimeLayout is the wire format of order timestamps used by the backend.
const TimeLayout = "02.01.2006 15:04"

// OrderStatus is the lifecycle stage of an order. The basket is an order
// that has not been placed yet.
type OrderStatus int

const (
	StatusBasket OrderStatus = iota
	StatusPendingConfirm
	StatusPendingPayment
	StatusPaid
	StatusInProduction
	StatusReadyForDelivery
	StatusReadyForPickup
	StatusCompleted
	StatusCancelledBySeller
	StatusCancelledByBuyer
)

// ErrInvalidTransition is returned for a status change that would move an
// order backwards or out of a terminal state.
var ErrInvalidTransition = errors.New("invalid order status transition")

func (s OrderStatus) String() string {
	switch s {
	case StatusBasket:
		return "basket"
	case StatusPendingConfirm:
		return "pending confirmation"
	case StatusPendingPayment:
		return "pending payment"
	case StatusPaid:
		return "paid"
	case StatusInProduction:
		return "in production"
	case StatusReadyForDelivery:
		return "ready for delivery"
	case StatusReadyForPickup:
		return "ready for pickup"
	case StatusCompleted:
		return "completed"
	case StatusCancelledBySeller:
		return "cancelled by seller"
	case StatusCancelledByBuyer:
		return "cancelled by buyer"
	}
	return "unknown"
}

// Terminal reports whether no further transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelledBySeller || s == StatusCancelledByBuyer
}

// CanTransitionTo reports whether the status may change to next. Statuses
// move forward only; the cancel statuses are reachable from any non-terminal
// state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusCancelledBySeller || next == StatusCancelledByBuyer {
		return true
	}
	return next > s
}

// OrderItem is one line of an order. Price is resolved from the catalog after
// the order is loaded and is not part of the server-persisted state.
type OrderItem struct {
	ProductID string
	Count     int
	Price     int
}

// Order is a user's order, or their basket when Status is StatusBasket. The
// control hash tracks the server-persisted fields so local edits can be
// detected and pushed back.
type Order struct {
	TgID           int64
	ID             *int64
	Status         OrderStatus
	CreatedAt      string
	UpdatedAt      *string
	CompletionDate *string
	TotalCost      int
	Delivery       bool
	UserComment    *string
	SellerComment  *string
	Items          []OrderItem

	registered  bool
	controlHash uint64
}

// NewBasket creates an empty basket for the given user.
func NewBasket(tgID int64) *Order {
	o := &Order{
		TgID:      tgID,
		Status:    StatusBasket,
		CreatedAt: time.Now().Format(TimeLayout),
	}
	o.MarkSynced()
	return o
}

// Hash sums the server-persisted scalar fields and the line items.
func (o *Order) Hash() uint64 {
	h := fnv.New64a()
	write := func(name, value string) {
		h.Write([]byte(name))
		h.Write([]byte{'='})
		h.Write([]byte(value))
		h.Write([]byte{';'})
	}

	write("tgId", strconv.FormatInt(o.TgID, 10))
	if o.ID != nil {
		write("idOrder", strconv.FormatInt(*o.ID, 10))
	}
	write("status", strconv.Itoa(int(o.Status)))
	write("datetimeCreation", o.CreatedAt)
	if o.UpdatedAt != nil {
		write("datetimeUpdate", *o.UpdatedAt)
	}
	if o.CompletionDate != nil {
		write("completionDate", *o.CompletionDate)
	}
	write("totalCost", strconv.Itoa(o.TotalCost))
	write("delivery", strconv.FormatBool(o.Delivery))
	if o.UserComment != nil {
		write("userComment", *o.UserComment)
	}
	if o.SellerComment != nil {
		write("sellerComment", *o.SellerComment)
	}
	for _, item := range o.Items {
		write(item.ProductID, strconv.Itoa(item.Count))
	}
	return h.Sum64()
}

// IsUpdated reports whether the order differs from the last synced state.
func (o *Order) IsUpdated() bool {
	return o.Hash() != o.controlHash
}

// MarkSynced records the current state as the last synced state.
func (o *Order) MarkSynced() {
	o.controlHash = o.Hash()
}

// RegisteredOnServer reports whether the backend has confirmed a create for
// this order.
func (o *Order) RegisteredOnServer() bool {
	return o.registered
}

// SetRegistered flags the order as known to the backend.
func (o *Order) SetRegistered(registered bool) {
	o.registered = registered
}

// SetStatus validates and applies a status transition.
func (o *Order) SetStatus(next OrderStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	o.Status = next
	return nil
}

// Cancel marks the order as cancelled by the buyer. Terminal.
func (o *Order) Cancel() error {
	return o.SetStatus(StatusCancelledByBuyer)
}

// IsActual reports whether the order is still in flight.
func (o *Order) IsActual() bool {
	return o.Status != StatusBasket && !o.Status.Terminal()
}

// ProductCount returns the quantity of the given product in the order, zero
// when absent.
func (o *Order) ProductCount(productID string) int {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return item.Count
		}
	}
	return 0
}

// AddProduct puts count units of a product into the order, merging with an
// existing line item for the same product, and recomputes the total cost.
func (o *Order) AddProduct(p Product, count int) {
	for i := range o.Items {
		if o.Items[i].ProductID == p.ID {
			o.Items[i].Count += count
			o.Items[i].Price = p.Price
			o.recalcTotal()
			return
		}
	}
	o.Items = append(o.Items, OrderItem{ProductID: p.ID, Count: count, Price: p.Price})
	o.recalcTotal()
}

// RemoveProduct deletes the line item of the given product.
func (o *Order) RemoveProduct(productID string) bool {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			o.recalcTotal()
			return true
		}
	}
	return false
}

// Clear removes all line items.
func (o *Order) Clear() {
	o.Items = nil
	o.recalcTotal()
}

func (o *Order) recalcTotal() {
	total := 0
	for _, item := range o.Items {
		total += item.Count * item.Price
	}
	o.TotalCost = total
}
