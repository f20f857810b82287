package event_processor

import (
	"context"
	"fmt"

	"instagram-bot/internal/accounts"
	"instagram-bot/internal/models"

	"go.uber.org/zap"
)

func (p *Processor) handleChange(ctx context.Context, account accounts.Account, change *models.Change) {
	switch change.Field {
	case "comments":
		p.handleComment(ctx, account, change)
	case "mentions":
		p.handleMention(account, change)
	}
}

func (p *Processor) handleComment(ctx context.Context, account accounts.Account, change *models.Change) {
	value := &change.Value

	commentID := value.ID
	commentText := value.Text
	var mediaID, mediaType string
	if value.Media != nil {
		mediaID = value.Media.ID
		mediaType = value.Media.MediaType
	}
	var senderID, senderUsername string
	if value.From != nil {
		senderID = value.From.ID
		senderUsername = value.From.Username
	}

	// Required fields per the comment webhook shape; anything partial is
	// dropped without noise.
	if commentID == "" || commentText == "" || senderID == "" || mediaID == "" {
		return
	}

	seenAt := eventTime(value.CreatedTime)

	p.logger.Info("Detected comment",
		zap.String("username", senderUsername),
		zap.String("instagram_id", senderID),
		zap.String("media_id", mediaID),
		zap.String("media_type", mediaType),
		zap.String("comment_id", commentID),
		zap.String("page_id", account.PageID))

	user, err := p.userRepo.FindOrCreateByInstagramID(senderID, senderUsername, seenAt)
	if err != nil {
		p.logger.Error("Failed to find or create comment user", zap.String("instagram_id", senderID), zap.Error(err))
		return
	}

	comment := &models.Comment{
		UserID:      &user.ID,
		CommentID:   commentID,
		MediaID:     mediaID,
		CommentText: &commentText,
		Timestamp:   seenAt,
		RawPayload:  marshalEvent(change),
	}
	created, err := p.commentRepo.SaveComment(comment)
	if err != nil {
		p.logger.Error("Failed to store comment", zap.String("comment_id", commentID), zap.Error(err))
		return
	}
	if !created {
		// Redelivered comment: already logged and possibly already answered.
		return
	}

	rule, ok := p.keywords.Resolve(mediaID, commentText)
	if !ok || rule.PrivateReplyMessage == "" {
		p.logger.Info("No keyword rule matched for comment, no reply sent",
			zap.String("comment_id", commentID),
			zap.String("media_id", mediaID))
		return
	}

	isFollower, err := p.gate.IsFollower(ctx, senderID, account)
	if err != nil {
		p.logger.Error("Follower check failed, proceeding as follower",
			zap.String("instagram_id", senderID), zap.Error(err))
		isFollower = true
	}

	var reply string
	if isFollower {
		reply = rule.RenderReply(senderUsername)
	} else {
		reply = fmt.Sprintf("Hi @%s, thanks for your comment! To get the link, please follow our page first. "+
			"Once you follow, comment again or send us a DM, and we'll send it right over!", senderUsername)
	}

	if err := p.sender.SendPrivateReply(ctx, account, commentID, reply); err != nil {
		p.logger.Error("Failed to dispatch private reply", zap.String("comment_id", commentID), zap.Error(err))
		return
	}

	p.logger.Info("Sent private reply for comment",
		zap.String("comment_id", commentID),
		zap.String("username", senderUsername),
		zap.Bool("is_follower", isFollower))
}

// handleMention classifies story vs comment mentions and logs the detection.
// No automated reply is issued for mentions.
func (p *Processor) handleMention(account accounts.Account, change *models.Change) {
	value := &change.Value
	if value.Item == nil || value.User == nil {
		return
	}

	switch value.Item.MediaType {
	case "STORY":
		p.logger.Info("Detected story mention",
			zap.String("username", value.User.Username),
			zap.String("instagram_id", value.User.ID),
			zap.String("story_id", value.Item.ID),
			zap.String("page_id", account.PageID))
	case "IMAGE", "VIDEO":
		p.logger.Info("Detected comment mention",
			zap.String("username", value.User.Username),
			zap.String("instagram_id", value.User.ID),
			zap.String("comment_id", value.Item.ID),
			zap.String("text", value.Text),
			zap.String("page_id", account.PageID))
	}
}
