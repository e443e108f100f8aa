package handler

import (
	"errors"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"github.com/KirillAyvazov/BotShop/internal/domain"
)

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	s := h.shopper(c)

	h.logger.Info("user opened the shop",
		zap.Int64("user_id", s.TgID),
		zap.String("username", c.Sender().Username),
	)

	s.DropSteps()
	return h.send(s.Account, "🏠 Главное меню\n\nВыберите действие:", mainMenuMarkup())
}

// handleText feeds a free-form message into the user's pending dialog step,
// if any.
func (h *Handler) handleText(c tele.Context) error {
	s := h.shopper(c)
	text := strings.TrimSpace(c.Text())

	// Ignore commands (starting with /)
	if strings.HasPrefix(text, "/") {
		return nil
	}

	_, err := s.PerformSavedStep(c.Message())
	if errors.Is(err, domain.ErrEmptyStepStack) {
		return h.send(s.Account, "Не понял вас. Вернитесь в главное меню:", mainMenuMarkup())
	}
	if err != nil {
		h.logger.Error("saved step failed",
			zap.Int64("user_id", s.TgID),
			zap.Error(err),
		)
		return h.send(s.Account, "Произошла ошибка. Попробуйте позже.")
	}
	return nil
}
