package repository

import "time"

// UserState is the locally persisted slice of an account: the message-id
// queues (comma-joined) and the last activity timestamp. It survives pool
// eviction so disappearing messages keep working across sessions.
type UserState struct {
	TgID           int64
	BotMessageIDs  string
	UserMessageIDs string
	LastSession    time.Time
}

// UserStateRepository defines local persistence of account state.
type UserStateRepository interface {
	SaveState(state UserState) error
	GetState(tgID int64) (*UserState, error)
}

// NotificationRepository tracks ids of notification messages sent to users
// so they can be cleaned out of the chat when a session closes.
type NotificationRepository interface {
	AddNotification(userID, notificationID int64) error
	ListNotifications(userID int64) ([]int64, error)
	DeleteNotifications(userID int64) error
}
