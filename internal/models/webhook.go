package models

// Webhook payload shapes delivered by the Meta Graph API. Only the fields the
// bot acts on are mapped; everything else survives in the raw payload column.

// WebhookPayload is the top-level POST body: one delivery can carry events for
// several receiving accounts, one entry per account.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry is one top-level unit within a delivery. Messaging events and
// field changes never appear together in practice, but both are mapped.
type WebhookEntry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []MessagingEvent `json:"messaging"`
	Changes   []Change         `json:"changes"`
}

// MessagingEvent is a direct-message sub-event (text message or postback).
// Timestamp is epoch milliseconds.
type MessagingEvent struct {
	Sender    Participant    `json:"sender"`
	Recipient Participant    `json:"recipient"`
	Timestamp int64          `json:"timestamp"`
	Message   *MessageEvent  `json:"message"`
	Postback  *PostbackEvent `json:"postback"`
}

// Participant identifies a messaging sender or recipient by PSID (for users)
// or page id (for the receiving account).
type Participant struct {
	ID string `json:"id"`
}

// MessageEvent carries the text of an inbound DM. IsEcho marks echoes of our
// own outbound sends, which must not be answered.
type MessageEvent struct {
	MID    string `json:"mid"`
	Text   string `json:"text"`
	IsEcho bool   `json:"is_echo"`
}

// PostbackEvent is a click on a quick-reply button or persistent menu item.
type PostbackEvent struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// Change is one field change within an entry (comments, mentions, ...).
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue is the union of the value shapes the bot handles. Comments use
// ID/Text/Media/From; mentions use Item/User/Text. CreatedTime is epoch
// milliseconds.
type ChangeValue struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	PageID      string       `json:"page_id"`
	Media       *MediaRef    `json:"media"`
	From        *EventUser   `json:"from"`
	User        *EventUser   `json:"user"`
	Item        *MentionItem `json:"item"`
	CreatedTime int64        `json:"created_time"`
}

// MediaRef points at the Reel/Post a comment was made on.
type MediaRef struct {
	ID        string `json:"id"`
	MediaType string `json:"media_type"`
}

// EventUser identifies the acting Instagram user in comment/mention events.
type EventUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// MentionItem is the media referenced by a mention event.
type MentionItem struct {
	ID        string `json:"id"`
	MediaType string `json:"media_type"` // "STORY", "IMAGE" or "VIDEO"
}
