package event_processor

import (
	"context"

	"instagram-bot/internal/accounts"
	"instagram-bot/internal/follower_gate"
	"instagram-bot/internal/keywords"
	"instagram-bot/internal/models"
	"instagram-bot/internal/repository"

	"go.uber.org/zap"
)

// Sender dispatches outbound messages through the Graph API. Satisfied by
// *instagram_client.Client.
type Sender interface {
	SendMessage(ctx context.Context, account accounts.Account, recipientPSID, text string) error
	SendPrivateReply(ctx context.Context, account accounts.Account, commentID, text string) error
}

// Processor routes webhook entries to the right account and handler, persists
// interactions and drives the reply automation. Internal failures are logged
// and swallowed at the smallest possible unit (entry or sub-event): the
// platform retries any non-2xx response, so the webhook must acknowledge
// receipt no matter what happened inside.
type Processor struct {
	registry    *accounts.Registry
	keywords    keywords.Table
	userRepo    repository.UserRepository
	messageRepo repository.MessageRepository
	commentRepo repository.CommentRepository
	sender      Sender
	gate        follower_gate.Checker
	logger      *zap.Logger
}

// NewProcessor creates a new webhook event processor.
func NewProcessor(
	registry *accounts.Registry,
	keywordTable keywords.Table,
	userRepo repository.UserRepository,
	messageRepo repository.MessageRepository,
	commentRepo repository.CommentRepository,
	sender Sender,
	gate follower_gate.Checker,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		registry:    registry,
		keywords:    keywordTable,
		userRepo:    userRepo,
		messageRepo: messageRepo,
		commentRepo: commentRepo,
		sender:      sender,
		gate:        gate,
		logger:      logger,
	}
}

// ProcessPayload handles one webhook delivery. Entries are processed
// sequentially in array order; one entry's failure never aborts the batch.
func (p *Processor) ProcessPayload(ctx context.Context, payload *models.WebhookPayload) {
	for i := range payload.Entry {
		entry := &payload.Entry[i]

		pageID := resolvePageID(entry)
		if pageID == "" {
			p.logger.Warn("Could not determine recipient page id for entry, skipping")
			continue
		}

		account, ok := p.registry.Resolve(pageID)
		if !ok {
			p.logger.Warn("No configured account for recipient page id, skipping entry",
				zap.String("page_id", pageID))
			continue
		}

		if len(entry.Messaging) > 0 {
			for j := range entry.Messaging {
				p.handleMessagingEvent(ctx, account, &entry.Messaging[j])
			}
			continue
		}

		for j := range entry.Changes {
			p.handleChange(ctx, account, &entry.Changes[j])
		}
	}
}

// resolvePageID determines which configured account a webhook entry belongs
// to, in priority order: the entry-level id, the recipient of the first
// messaging sub-event, then the page_id inside the first change's value.
func resolvePageID(entry *models.WebhookEntry) string {
	if entry.ID != "" {
		return entry.ID
	}
	if len(entry.Messaging) > 0 && entry.Messaging[0].Recipient.ID != "" {
		return entry.Messaging[0].Recipient.ID
	}
	if len(entry.Changes) > 0 && entry.Changes[0].Value.PageID != "" {
		return entry.Changes[0].Value.PageID
	}
	return ""
}
