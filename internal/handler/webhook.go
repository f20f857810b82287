package handler

import (
	"net/http"

	"instagram-bot/internal/event_processor"
	"instagram-bot/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WebhookHandler interface {
	Verify(c *gin.Context)
	Receive(c *gin.Context)
}

type webhookHandler struct {
	verifyToken string
	processor   *event_processor.Processor
	logger      *zap.Logger
}

func NewWebhookHandler(verifyToken string, processor *event_processor.Processor, logger *zap.Logger) WebhookHandler {
	return &webhookHandler{
		verifyToken: verifyToken,
		processor:   processor,
		logger:      logger,
	}
}

// Verify handles GET /webhook, the webhook verification handshake. Meta sends
// hub.mode, hub.verify_token and hub.challenge; the challenge is echoed back
// iff the mode is "subscribe" and the token matches the configured secret.
func (h *webhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "" || token == "" || challenge == "" {
		h.logger.Warn("Webhook verification failed: missing parameters")
		c.String(http.StatusBadRequest, "Missing parameters")
		return
	}

	if mode == "subscribe" && token == h.verifyToken && h.verifyToken != "" {
		h.logger.Info("Webhook verified successfully")
		c.String(http.StatusOK, challenge)
		return
	}

	h.logger.Warn("Webhook verification failed: invalid token or mode", zap.String("mode", mode))
	c.String(http.StatusForbidden, "Verification token mismatch")
}

// Receive handles POST /webhook, the event delivery path. A body without an
// entry array is the only rejection; everything past that point is
// acknowledged with 200 regardless of internal outcome, because the platform
// retries non-2xx responses with backoff.
func (h *webhookHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Error("Failed to bind webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid webhook data"})
		return
	}

	if len(payload.Entry) == 0 {
		h.logger.Warn("Invalid webhook data: 'entry' field missing or empty")
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid webhook data"})
		return
	}

	h.processor.ProcessPayload(c.Request.Context(), &payload)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
