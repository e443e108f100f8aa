package postgres

import (
	"database/sql"

	"github.com/KirillAyvazov/BotShop/internal/repository"
)

// UserStateRepo implements repository.UserStateRepository
type UserStateRepo struct {
	db *sql.DB
}

// NewUserStateRepo creates a new user state repository
func NewUserStateRepo(db *sql.DB) *UserStateRepo {
	return &UserStateRepo{db: db}
}

// SaveState upserts the locally persisted account state
func (r *UserStateRepo) SaveState(state repository.UserState) error {
	query := `
		INSERT INTO users (tg_id, message_id_bot_to_user, message_id_user_to_bot, last_session)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tg_id)
		DO UPDATE SET
			message_id_bot_to_user = EXCLUDED.message_id_bot_to_user,
			message_id_user_to_bot = EXCLUDED.message_id_user_to_bot,
			last_session = EXCLUDED.last_session
	`
	_, err := r.db.Exec(query, state.TgID, state.BotMessageIDs, state.UserMessageIDs, state.LastSession)
	return err
}

// GetState reads the persisted state of a user, nil when none is stored yet
func (r *UserStateRepo) GetState(tgID int64) (*repository.UserState, error) {
	state := repository.UserState{TgID: tgID}
	query := `
		SELECT message_id_bot_to_user, message_id_user_to_bot, last_session
		FROM users
		WHERE tg_id = $1
	`
	err := r.db.QueryRow(query, tgID).Scan(&state.BotMessageIDs, &state.UserMessageIDs, &state.LastSession)

	if err == sql.ErrNoRows {
		// User hasn't been stored yet
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &state, nil
}
