package models

import "time"

// Conversation states. Only "idle" is used today; the column is reserved
// for future conversation flow management.
const (
	ConversationStateIdle = "idle"
)

// User represents an Instagram user interacting with the bot, stored in the
// 'users' table. A user can be known by a PSID (direct messages), by an
// Instagram user id (comments and mentions), or both. The two identities are
// not linked even when they belong to the same real account.
type User struct {
	ID                int64     `db:"id"`
	PSID              *string   `db:"psid"`               // Page-Scoped ID, unique, nullable
	InstagramID       *string   `db:"instagram_id"`       // Global Instagram user id, unique, nullable
	InstagramUsername *string   `db:"instagram_username"` // Nullable, refreshed on comment events
	CreatedAt         time.Time `db:"created_at"`
	LastInteractionAt time.Time `db:"last_interaction_at"`
	ConversationState string    `db:"conversation_state"`
}

// Username returns the display name used in reply templates, falling back to
// the given default when the username is unknown.
func (u *User) Username(fallback string) string {
	if u != nil && u.InstagramUsername != nil && *u.InstagramUsername != "" {
		return *u.InstagramUsername
	}
	return fallback
}
