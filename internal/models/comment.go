package models

import "time"

// Comment represents one detected Instagram comment stored in the 'comments'
// table. CommentID carries Instagram's id for the comment itself and is
// unique: a webhook redelivery of the same comment must not produce a second
// row.
type Comment struct {
	ID          int64     `db:"id"`
	UserID      *int64    `db:"user_id"`
	CommentID   string    `db:"comment_id"`
	MediaID     string    `db:"media_id"` // The Reel/Post the comment was made on
	CommentText *string   `db:"comment_text"`
	Timestamp   time.Time `db:"timestamp"`
	RawPayload  *string   `db:"raw_payload"`
}
