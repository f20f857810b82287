package repository

import (
	"database/sql"
	"errors"
	"time"

	"instagram-bot/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// UserRepository provides find-or-create semantics over the 'users' table.
// Users are created on first sighting via either identity channel (PSID for
// DMs, Instagram id for comments); on every later sighting last_interaction_at
// is refreshed. The unique constraints on psid and instagram_id are the only
// backstop against concurrent duplicate creation.
type UserRepository interface {
	FindOrCreateByPSID(psid string, seenAt time.Time) (*models.User, error)
	FindOrCreateByInstagramID(instagramID, username string, seenAt time.Time) (*models.User, error)
	GetByPSID(psid string) (*models.User, error)
}

type userRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewUserRepository(db *sqlx.DB, logger *zap.Logger) UserRepository {
	return &userRepository{db: db, logger: logger}
}

func (r *userRepository) FindOrCreateByPSID(psid string, seenAt time.Time) (*models.User, error) {
	var user models.User
	err := r.db.Get(&user, `SELECT * FROM users WHERE psid = $1`, psid)
	if err == nil {
		if _, err := r.db.Exec(`UPDATE users SET last_interaction_at = $1 WHERE id = $2`, seenAt, user.ID); err != nil {
			return nil, err
		}
		user.LastInteractionAt = seenAt
		return &user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	query := `INSERT INTO users (psid, created_at, last_interaction_at, conversation_state)
	          VALUES ($1, $2, $2, $3) RETURNING *`
	if err := r.db.QueryRowx(query, psid, seenAt, models.ConversationStateIdle).StructScan(&user); err != nil {
		return nil, err
	}

	r.logger.Info("New DM user created", zap.String("psid", psid))
	return &user, nil
}

func (r *userRepository) FindOrCreateByInstagramID(instagramID, username string, seenAt time.Time) (*models.User, error) {
	var user models.User
	err := r.db.Get(&user, `SELECT * FROM users WHERE instagram_id = $1`, instagramID)
	if err == nil {
		// Refresh last interaction and pick up username changes.
		if _, err := r.db.Exec(`UPDATE users SET last_interaction_at = $1, instagram_username = $2 WHERE id = $3`,
			seenAt, username, user.ID); err != nil {
			return nil, err
		}
		user.LastInteractionAt = seenAt
		user.InstagramUsername = &username
		return &user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	query := `INSERT INTO users (instagram_id, instagram_username, created_at, last_interaction_at, conversation_state)
	          VALUES ($1, $2, $3, $3, $4) RETURNING *`
	if err := r.db.QueryRowx(query, instagramID, username, seenAt, models.ConversationStateIdle).StructScan(&user); err != nil {
		return nil, err
	}

	r.logger.Info("New comment user created", zap.String("instagram_id", instagramID), zap.String("username", username))
	return &user, nil
}

// GetByPSID returns (nil, nil) when no user with the given PSID exists.
func (r *userRepository) GetByPSID(psid string) (*models.User, error) {
	var user models.User
	err := r.db.Get(&user, `SELECT * FROM users WHERE psid = $1`, psid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
