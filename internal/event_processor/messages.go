package event_processor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"instagram-bot/internal/accounts"
	"instagram-bot/internal/models"

	"go.uber.org/zap"
)

const defaultDMReply = "I'm a bot! I'm still learning. Try 'hello', 'help', or 'products'."

func (p *Processor) handleMessagingEvent(ctx context.Context, account accounts.Account, event *models.MessagingEvent) {
	switch {
	case event.Message != nil && event.Message.Text != "" && !event.Message.IsEcho:
		p.handleInboundDM(ctx, account, event)
	case event.Postback != nil:
		p.handlePostback(ctx, account, event)
	}
}

func (p *Processor) handleInboundDM(ctx context.Context, account accounts.Account, event *models.MessagingEvent) {
	senderPSID := event.Sender.ID
	text := event.Message.Text
	seenAt := eventTime(event.Timestamp)

	p.logger.Info("Received DM",
		zap.String("sender_psid", senderPSID),
		zap.String("page_id", account.PageID),
		zap.String("text", text))

	user, err := p.userRepo.FindOrCreateByPSID(senderPSID, seenAt)
	if err != nil {
		p.logger.Error("Failed to find or create DM user", zap.String("psid", senderPSID), zap.Error(err))
		return
	}

	p.logInboundMessage(user.ID, models.MessageTypeInboundDM, text, seenAt, event)

	reply := dmReplyFor(text, user.Username("friend"))
	if err := p.sender.SendMessage(ctx, account, senderPSID, reply); err != nil {
		p.logger.Error("Failed to dispatch DM reply", zap.String("psid", senderPSID), zap.Error(err))
	}
}

func (p *Processor) handlePostback(ctx context.Context, account accounts.Account, event *models.MessagingEvent) {
	senderPSID := event.Sender.ID
	payload := event.Postback.Payload
	seenAt := eventTime(event.Timestamp)

	p.logger.Info("Received postback",
		zap.String("sender_psid", senderPSID),
		zap.String("page_id", account.PageID),
		zap.String("payload", payload))

	// Postbacks find-or-create the user just like inbound DMs do.
	user, err := p.userRepo.FindOrCreateByPSID(senderPSID, seenAt)
	if err != nil {
		p.logger.Error("Failed to find or create postback user", zap.String("psid", senderPSID), zap.Error(err))
		return
	}

	p.logInboundMessage(user.ID, models.MessageTypeInboundPostback, "POSTBACK: "+payload, seenAt, event)

	ack := fmt.Sprintf("You chose: %s. How else can I assist?", payload)
	if err := p.sender.SendMessage(ctx, account, senderPSID, ack); err != nil {
		p.logger.Error("Failed to dispatch postback reply", zap.String("psid", senderPSID), zap.Error(err))
	}
}

func (p *Processor) logInboundMessage(userID int64, messageType, text string, ts time.Time, event *models.MessagingEvent) {
	raw := marshalEvent(event)
	msg := &models.Message{
		UserID:      &userID,
		MessageType: messageType,
		MessageText: &text,
		Timestamp:   ts,
		RawPayload:  raw,
	}
	if err := p.messageRepo.SaveMessage(msg); err != nil {
		p.logger.Error("Failed to store inbound message", zap.String("message_type", messageType), zap.Error(err))
	}
}

// dmReplyFor picks the automated DM response by scanning the lowercased text
// for fixed trigger substrings in priority order.
func dmReplyFor(text, username string) string {
	textLower := strings.ToLower(text)
	switch {
	case strings.Contains(textLower, "hello") || strings.Contains(textLower, "hi"):
		return fmt.Sprintf("Hi there, %s! How can I help you today?", username)
	case strings.Contains(textLower, "help"):
		return "I can help with common questions. Try asking about 'products' or 'support'."
	case strings.Contains(textLower, "products"):
		return "We offer a range of exciting products! Visit our website to learn more: example.com"
	default:
		return defaultDMReply
	}
}

// eventTime converts an epoch-millisecond webhook timestamp, falling back to
// the current time when the field is absent.
func eventTime(millis int64) time.Time {
	if millis <= 0 {
		return time.Now().UTC()
	}
	return time.UnixMilli(millis).UTC()
}

func marshalEvent(v any) *string {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(raw)
	return &s
}
