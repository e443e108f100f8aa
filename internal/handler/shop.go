package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"github.com/KirillAyvazov/BotShop/internal/domain"
	"github.com/KirillAyvazov/BotShop/internal/pool"
)

// handleCatalog lists the catalog with one inline button per product.
func (h *Handler) handleCatalog(c tele.Context) error {
	s := h.shopper(c)

	categories := h.catalog.Categories()
	if len(categories) == 0 {
		return h.send(s.Account, "Каталог пока пуст, загляните позже.", mainMenuMarkup())
	}

	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, category := range categories {
		for _, product := range category.Products {
			btn := markup.Data(
				fmt.Sprintf("%s: %s — %d руб.", category.Name, product.Name, product.Price),
				"add_product",
				product.ID,
			)
			rows = append(rows, markup.Row(btn))
		}
	}
	rows = append(rows, markup.Row(btnBasket), markup.Row(btnMainMenu))
	markup.Inline(rows...)

	return h.send(s.Account, "Выберите товар, чтобы добавить его в корзину:", markup)
}

// handleAddProduct puts the chosen product into the basket.
func (h *Handler) handleAddProduct(c tele.Context) error {
	s := h.shopper(c)
	productID := strings.TrimSpace(c.Data())

	product, err := h.catalog.ResolveProduct(context.Background(), productID)
	if err != nil || product == nil {
		h.logger.Warn("product missing from catalog",
			zap.String("product_id", productID),
			zap.Error(err),
		)
		return h.send(s.Account, "Этот товар сейчас недоступен.", mainMenuMarkup())
	}

	basket := s.Orders(context.Background()).Basket()
	basket.AddProduct(*product, s.Count)

	return h.send(s.Account,
		fmt.Sprintf("Добавлено: %s x %d\n\n%s", product.Name, s.Count, basketText(basket)),
		basketMarkup(),
	)
}

// handleBasket shows the basket contents.
func (h *Handler) handleBasket(c tele.Context) error {
	s := h.shopper(c)
	basket := s.Orders(context.Background()).Basket()

	if len(basket.Items) == 0 {
		return h.send(s.Account, "Корзина пуста.", mainMenuMarkup())
	}
	return h.send(s.Account, basketText(basket), basketMarkup())
}

func basketText(basket *domain.Order) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("Всего %d товаров на сумму %d рублей:", len(basket.Items), basket.TotalCost))
	for i, item := range basket.Items {
		lines = append(lines, fmt.Sprintf("%d. %s x %d = %d", i+1, item.ProductID, item.Count, item.Count*item.Price))
	}
	return strings.Join(lines, "\n")
}

// handlePlaceOrder turns the basket into a new order.
func (h *Handler) handlePlaceOrder(c tele.Context) error {
	s := h.shopper(c)
	ordersPool := s.Orders(context.Background())

	if len(ordersPool.Basket().Items) == 0 {
		return h.send(s.Account, "Корзина пуста — нечего заказывать.", mainMenuMarkup())
	}

	if err := ordersPool.CreateNewOrder(context.Background()); err != nil {
		h.logger.Error("failed to place order",
			zap.Int64("user_id", s.TgID),
			zap.Error(err),
		)
		return h.send(s.Account, "Не удалось оформить заказ. Попробуйте позже.", mainMenuMarkup())
	}

	return h.send(s.Account, "✅ Заказ оформлен! Продавец свяжется с вами.", mainMenuMarkup())
}

// handleClearBasket drops every item from the basket.
func (h *Handler) handleClearBasket(c tele.Context) error {
	s := h.shopper(c)
	s.Orders(context.Background()).Basket().Clear()
	return h.send(s.Account, "Корзина очищена.", mainMenuMarkup())
}

// handleOrders lists the shopper's placed orders.
func (h *Handler) handleOrders(c tele.Context) error {
	s := h.shopper(c)
	list := s.Orders(context.Background()).Orders()

	if len(list) == 0 {
		return h.send(s.Account, "У вас пока нет заказов.", mainMenuMarkup())
	}

	var lines []string
	for _, o := range list {
		lines = append(lines, orderTitle(o))
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnCancelOrder),
		markup.Row(btnMainMenu),
	)
	return h.send(s.Account, strings.Join(lines, "\n"), markup)
}

func orderTitle(o *domain.Order) string {
	id := "—"
	if o.ID != nil {
		id = strconv.FormatInt(*o.ID, 10)
	}
	return fmt.Sprintf("Заказ №%s — %s, %d руб.", id, statusText(o.Status), o.TotalCost)
}

func statusText(s domain.OrderStatus) string {
	switch s {
	case domain.StatusBasket:
		return "корзина"
	case domain.StatusPendingConfirm:
		return "ожидает подтверждения"
	case domain.StatusPendingPayment:
		return "ожидает оплаты"
	case domain.StatusPaid:
		return "оплачен"
	case domain.StatusInProduction:
		return "изготавливается"
	case domain.StatusReadyForDelivery:
		return "готов к доставке"
	case domain.StatusReadyForPickup:
		return "готов к выдаче"
	case domain.StatusCompleted:
		return "завершен"
	case domain.StatusCancelledBySeller:
		return "отменен продавцом"
	case domain.StatusCancelledByBuyer:
		return "отменен покупателем"
	}
	return "неизвестен"
}

// handleCancelOrder cancels the most recent order that is still in flight.
func (h *Handler) handleCancelOrder(c tele.Context) error {
	s := h.shopper(c)
	ordersPool := s.Orders(context.Background())

	list := ordersPool.Orders()
	for i := len(list) - 1; i >= 0; i-- {
		if !list[i].IsActual() {
			continue
		}
		if err := ordersPool.CancelOrder(context.Background(), list[i]); err != nil {
			h.logger.Error("failed to cancel order",
				zap.Int64("user_id", s.TgID),
				zap.Error(err),
			)
			return h.send(s.Account, "Не удалось отменить заказ.", mainMenuMarkup())
		}
		return h.send(s.Account, "Заказ отменен: "+orderTitle(list[i]), mainMenuMarkup())
	}
	return h.send(s.Account, "Нет заказов, которые можно отменить.", mainMenuMarkup())
}

// handleSellerOrders shows the order buckets to a seller.
func (h *Handler) handleSellerOrders(c tele.Context) error {
	seller, err := h.sellers.Get(context.Background(), c.Sender().ID)
	if errors.Is(err, pool.ErrNotSeller) {
		return c.Send("Этот раздел доступен только продавцам.")
	}
	if err != nil {
		return c.Send("Произошла ошибка. Попробуйте позже.")
	}

	buckets := seller.Orders(context.Background())
	var lines []string
	lines = append(lines, fmt.Sprintf("<b>Новые:</b> %d", len(buckets.New())))
	for _, o := range buckets.New() {
		lines = append(lines, orderTitle(o))
	}
	lines = append(lines, fmt.Sprintf("<b>В работе:</b> %d", len(buckets.Current())))
	for _, o := range buckets.Current() {
		lines = append(lines, orderTitle(o))
	}
	lines = append(lines, fmt.Sprintf("<b>Завершенные:</b> %d", len(buckets.Completed())))

	return c.Send(strings.Join(lines, "\n"), &tele.SendOptions{ParseMode: tele.ModeHTML})
}
