package postgres

import (
	"database/sql"
)

// NotificationRepo implements repository.NotificationRepository
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo creates a new notification repository
func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// AddNotification stores the id of a notification message sent to a user
func (r *NotificationRepo) AddNotification(userID, notificationID int64) error {
	query := `INSERT INTO notifications (user_id, notification_id) VALUES ($1, $2)`
	_, err := r.db.Exec(query, userID, notificationID)
	return err
}

// ListNotifications returns every stored notification id of a user
func (r *NotificationRepo) ListNotifications(userID int64) ([]int64, error) {
	query := `SELECT notification_id FROM notifications WHERE user_id = $1 ORDER BY id`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteNotifications removes every stored notification id of a user
func (r *NotificationRepo) DeleteNotifications(userID int64) error {
	query := `DELETE FROM notifications WHERE user_id = $1`
	_, err := r.db.Exec(query, userID)
	return err
}
