package repository

import (
	"database/sql"
	"errors"

	"instagram-bot/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// CommentRepository appends to the 'comments' log. comment_id carries a
// uniqueness constraint so a webhook redelivery of the same comment never
// produces a second row.
type CommentRepository interface {
	// SaveComment inserts the comment and reports whether a row was created.
	// created == false means the comment_id was already stored (duplicate
	// delivery); callers should skip automation in that case.
	SaveComment(comment *models.Comment) (created bool, err error)
}

type commentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewCommentRepository(db *sqlx.DB, logger *zap.Logger) CommentRepository {
	return &commentRepository{db: db, logger: logger}
}

func (r *commentRepository) SaveComment(comment *models.Comment) (bool, error) {
	query := `INSERT INTO comments (user_id, comment_id, media_id, comment_text, timestamp, raw_payload)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (comment_id) DO NOTHING
	          RETURNING id`
	err := r.db.QueryRowx(query, comment.UserID, comment.CommentID, comment.MediaID,
		comment.CommentText, comment.Timestamp, comment.RawPayload).Scan(&comment.ID)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Duplicate comment delivery ignored", zap.String("comment_id", comment.CommentID))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
