package instagram_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"instagram-bot/internal/accounts"
	"instagram-bot/internal/models"
	"instagram-bot/internal/repository"

	"go.uber.org/zap"
)

// Client wraps the Meta Graph API calls used to send outbound messages. On a
// successful send it appends the outbound message to the interaction log; on
// failure it logs status and body and returns the error. There is no retry
// queue — a failed dispatch is terminal for that attempt.
type Client struct {
	baseURL     string
	version     string
	httpClient  *http.Client
	userRepo    repository.UserRepository
	messageRepo repository.MessageRepository
	logger      *zap.Logger
}

// NewClient creates a new Graph API client.
func NewClient(baseURL, version string, userRepo repository.UserRepository, messageRepo repository.MessageRepository, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		version: version,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		userRepo:    userRepo,
		messageRepo: messageRepo,
		logger:      logger,
	}
}

// SendMessage sends a text message to a user's direct-message inbox, using
// the credentials of the account that received the original event. The
// outbound row is linked to the user looked up by PSID at send time; an
// unknown PSID skips the log entry with a warning.
func (c *Client) SendMessage(ctx context.Context, account accounts.Account, recipientPSID, text string) error {
	body := map[string]any{
		"recipient": map[string]string{"id": recipientPSID},
		"message":   map[string]string{"text": text},
	}

	if err := c.post(ctx, fmt.Sprintf("%s/messages", account.PageID), account.AccessToken, body); err != nil {
		c.logger.Error("Failed to send DM",
			zap.String("recipient_psid", recipientPSID),
			zap.String("page_id", account.PageID),
			zap.Error(err))
		return err
	}

	c.logger.Info("DM sent", zap.String("recipient_psid", recipientPSID), zap.String("page_id", account.PageID))

	user, err := c.userRepo.GetByPSID(recipientPSID)
	if err != nil {
		c.logger.Error("Failed to look up user for outbound DM log", zap.String("psid", recipientPSID), zap.Error(err))
		return nil
	}
	if user == nil {
		c.logger.Warn("User not found when storing outbound DM", zap.String("psid", recipientPSID))
		return nil
	}

	raw := marshalRaw(body)
	msg := &models.Message{
		UserID:      &user.ID,
		MessageType: models.MessageTypeOutboundDM,
		MessageText: &text,
		Timestamp:   time.Now().UTC(),
		RawPayload:  &raw,
	}
	if err := c.messageRepo.SaveMessage(msg); err != nil {
		c.logger.Error("Failed to store outbound DM", zap.Error(err))
	}
	return nil
}

// SendPrivateReply sends a private message to the author of a comment; the DM
// appears linked to the comment in the recipient's inbox. Comment webhooks do
// not carry a PSID, so the logged row has no user linkage.
func (c *Client) SendPrivateReply(ctx context.Context, account accounts.Account, commentID, text string) error {
	body := map[string]any{
		"message": text,
	}

	if err := c.post(ctx, fmt.Sprintf("%s/private_replies", commentID), account.AccessToken, body); err != nil {
		c.logger.Error("Failed to send private reply",
			zap.String("comment_id", commentID),
			zap.String("page_id", account.PageID),
			zap.Error(err))
		return err
	}

	c.logger.Info("Private reply sent", zap.String("comment_id", commentID), zap.String("page_id", account.PageID))

	raw := marshalRaw(body)
	msg := &models.Message{
		MessageType: models.MessageTypePrivateReply,
		MessageText: &text,
		Timestamp:   time.Now().UTC(),
		RawPayload:  &raw,
	}
	if err := c.messageRepo.SaveMessage(msg); err != nil {
		c.logger.Error("Failed to store private reply", zap.Error(err))
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, accessToken string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s?access_token=%s", c.baseURL, c.version, path, url.QueryEscape(accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request to Graph API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("graph API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func marshalRaw(body any) string {
	raw, err := json.Marshal(body)
	if err != nil {
		return ""
	}
	return string(raw)
}
