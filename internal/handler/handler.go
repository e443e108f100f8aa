package handler

import (
	"context"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"github.com/KirillAyvazov/BotShop/internal/catalog"
	"github.com/KirillAyvazov/BotShop/internal/domain"
	"github.com/KirillAyvazov/BotShop/internal/pool"
)

// Handler manages all bot interactions
type Handler struct {
	bot      *Bot
	shoppers *pool.ShopperPool
	sellers  *pool.SellerPool
	catalog  *catalog.CategoryPool
	logger   *zap.Logger

	disappearing bool
	messageLimit int
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *Bot,
	shoppers *pool.ShopperPool,
	sellers *pool.SellerPool,
	categories *catalog.CategoryPool,
	disappearing bool,
	messageLimit int,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:          bot,
		shoppers:     shoppers,
		sellers:      sellers,
		catalog:      categories,
		disappearing: disappearing,
		messageLimit: messageLimit,
		logger:       logger,
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleStart)

	// Text messages
	h.bot.Handle(tele.OnText, h.handleText)

	// Callback queries (inline buttons)
	h.bot.Handle(&btnCatalog, h.handleCatalog)
	h.bot.Handle(&btnBasket, h.handleBasket)
	h.bot.Handle(&btnOrders, h.handleOrders)
	h.bot.Handle(&btnProfile, h.handleProfile)
	h.bot.Handle(&btnEditProfile, h.handleEditProfile)
	h.bot.Handle(&btnPlaceOrder, h.handlePlaceOrder)
	h.bot.Handle(&btnClearBasket, h.handleClearBasket)
	h.bot.Handle(&btnCancelOrder, h.handleCancelOrder)
	h.bot.Handle(&btnMainMenu, h.handleStart)
	h.bot.Handle(&btnSellerOrders, h.handleSellerOrders)
	h.bot.Handle(&tele.Btn{Unique: "add_product"}, h.handleAddProduct)
}

// track records a message id in the shopper's queue and, when disappearing
// messages are enabled, deletes whatever overflows the limit.
func (h *Handler) track(account *domain.Account, messageID int, source domain.MessageSource) {
	if err := account.AppendMessage(messageID, source); err != nil {
		h.logger.Error("failed to track message",
			zap.Int64("user_id", account.TgID),
			zap.Error(err),
		)
		return
	}
	if !h.disappearing {
		return
	}
	overflow, err := account.PopOverflow(source, h.messageLimit)
	if err != nil {
		h.logger.Error("failed to pop message overflow",
			zap.Int64("user_id", account.TgID),
			zap.Error(err),
		)
		return
	}
	for _, id := range overflow {
		h.bot.DeleteMessage(account.TgID, id)
	}
}

// send delivers a bot message to the user and tracks its id.
func (h *Handler) send(account *domain.Account, what any, opts ...any) error {
	msg, err := h.bot.Send(tele.ChatID(account.TgID), what, opts...)
	if err != nil {
		return err
	}
	h.track(account, msg.ID, domain.SourceBot)
	return nil
}

// shopper resolves the sender of an update through the pool and tracks the
// inbound message.
func (h *Handler) shopper(c tele.Context) *pool.Shopper {
	s := h.shoppers.Get(context.Background(), c.Sender().ID)
	if m := c.Message(); m != nil {
		h.track(s.Account, m.ID, domain.SourceUser)
	}
	return s
}

// Inline keyboard buttons
var (
	btnCatalog = tele.Btn{
		Unique: "catalog",
		Text:   "🛍 Каталог",
	}
	btnBasket = tele.Btn{
		Unique: "basket",
		Text:   "🧺 Корзина",
	}
	btnOrders = tele.Btn{
		Unique: "orders",
		Text:   "📦 Мои заказы",
	}
	btnProfile = tele.Btn{
		Unique: "profile",
		Text:   "👤 Профиль",
	}
	btnEditProfile = tele.Btn{
		Unique: "edit_profile",
		Text:   "✏️ Изменить данные",
	}
	btnPlaceOrder = tele.Btn{
		Unique: "place_order",
		Text:   "✅ Оформить заказ",
	}
	btnClearBasket = tele.Btn{
		Unique: "clear_basket",
		Text:   "🗑 Очистить корзину",
	}
	btnCancelOrder = tele.Btn{
		Unique: "cancel_order",
		Text:   "❌ Отменить заказ",
	}
	btnMainMenu = tele.Btn{
		Unique: "main_menu",
		Text:   "🏠 Главное меню",
	}
	btnSellerOrders = tele.Btn{
		Unique: "seller_orders",
		Text:   "📋 Заказы магазина",
	}
)

// mainMenuMarkup returns the main menu keyboard
func mainMenuMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnCatalog),
		menu.Row(btnBasket, btnOrders),
		menu.Row(btnProfile),
	)
	return menu
}

// basketMarkup returns the basket management keyboard
func basketMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnPlaceOrder),
		menu.Row(btnClearBasket),
		menu.Row(btnMainMenu),
	)
	return menu
}
