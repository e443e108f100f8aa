package handler

import (
	"strconv"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Bot wraps the telebot instance with the session-closing surface the pools
// need during eviction.
type Bot struct {
	*tele.Bot
	logger *zap.Logger
}

// NewBot wraps a telebot instance
func NewBot(b *tele.Bot, logger *zap.Logger) *Bot {
	return &Bot{Bot: b, logger: logger}
}

// CloseSession tells the user their session ended. The parting message makes
// any half-filled form in the chat visibly stale.
func (b *Bot) CloseSession(userID int64) {
	_, err := b.Send(tele.ChatID(userID), "Всего хорошего! Возвращайтесь к нам скорее!")
	if err != nil {
		b.logger.Info("failed to send session-close message",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}

// DeleteMessage removes a message from a chat. Best effort: the message may
// already be gone.
func (b *Bot) DeleteMessage(chatID int64, messageID int) {
	err := b.Delete(&tele.StoredMessage{
		ChatID:    chatID,
		MessageID: strconv.Itoa(messageID),
	})
	if err != nil {
		b.logger.Debug("failed to delete message",
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
			zap.Error(err),
		)
	}
}
