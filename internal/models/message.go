package models

import "time"

// Message types stored in messages.message_type.
const (
	MessageTypeInboundDM       = "inbound_dm"
	MessageTypeOutboundDM      = "outbound_dm"
	MessageTypeInboundPostback = "inbound_postback"
	MessageTypePrivateReply    = "private_reply_comment"
)

// Message represents one direct-message interaction stored in the 'messages'
// table. The table is an append-only log; rows are never updated or deleted.
type Message struct {
	ID          int64     `db:"id"`
	UserID      *int64    `db:"user_id"` // Nullable: outbound private replies have no user linkage
	MessageType string    `db:"message_type"`
	MessageText *string   `db:"message_text"`
	Timestamp   time.Time `db:"timestamp"`
	RawPayload  *string   `db:"raw_payload"` // Original event JSON, for debugging/analysis
}
