package repository

import (
	"instagram-bot/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// MessageRepository appends to the 'messages' log. Rows are never updated or
// deleted; each insert commits immediately.
type MessageRepository interface {
	SaveMessage(msg *models.Message) error
}

type messageRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewMessageRepository(db *sqlx.DB, logger *zap.Logger) MessageRepository {
	return &messageRepository{db: db, logger: logger}
}

func (r *messageRepository) SaveMessage(msg *models.Message) error {
	query := `INSERT INTO messages (user_id, message_type, message_text, timestamp, raw_payload)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	return r.db.QueryRowx(query, msg.UserID, msg.MessageType, msg.MessageText, msg.Timestamp, msg.RawPayload).Scan(&msg.ID)
}
