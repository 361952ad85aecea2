package notification

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"solarnotify/internal/common"
	"solarnotify/internal/middleware"
)

// Handler handles HTTP requests for the notification domain.
type Handler struct {
	service *Service
}

// NewHandler creates a new notification handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Send handles POST /api/v1/customer-pre-orders/:id/notify
// Dispatches all requested channels inline and reports per-channel outcomes.
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ValidationFailed(c, []string{"invalid request body: " + err.Error()})
		return
	}

	adminID := middleware.AdminID(c)
	result, err := h.service.Send(c.Request.Context(), c.Param("id"), &req, adminID)
	if err != nil {
		slog.Error("send notification failed",
			"customer_preorder_id", c.Param("id"),
			"mode", req.Mode,
			"error", err,
		)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// List handles GET /api/v1/customer-pre-orders/:id/notifications
func (h *Handler) List(c *gin.Context) {
	var filter ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid query parameters: "+err.Error())
		return
	}

	resp, err := h.service.List(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, resp)
}

// Get handles GET /api/v1/notifications/:id
// Returns the full notification including both resolved bodies and every
// mode/method field, for the admin detail view.
func (h *Handler) Get(c *gin.Context) {
	n, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, n)
}

// Resend handles POST /api/v1/notifications/:id/resend
func (h *Handler) Resend(c *gin.Context) {
	var req ResendRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ValidationFailed(c, []string{"invalid request body: " + err.Error()})
			return
		}
	}

	result, err := h.service.Resend(c.Request.Context(), c.Param("id"), req.Channels)
	if err != nil {
		slog.Error("resend notification failed",
			"notification_id", c.Param("id"),
			"error", err,
		)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// MergeTags handles GET /api/v1/notifications/merge-tags
// Static documentation of the supported template tags for admin UI help text.
func (h *Handler) MergeTags(c *gin.Context) {
	common.Success(c, http.StatusOK, gin.H{
		"merge_tags": h.service.MergeTags(),
		"usage":      "Use merge tags in your message template by wrapping them in double curly braces, e.g., {{customer_name}}",
		"example":    "Hello {{customer_name}}, your pre-order {{pre_order_number}} for {{product_name}} is ready for {{fulfillment_method}}.",
	})
}

// EmailWebhook handles POST /webhooks/email/provider
// Always acknowledges the provider unless the payload cannot be parsed at
// all, so provider-side retry storms never build up.
func (h *Handler) EmailWebhook(c *gin.Context) {
	h.handleProviderWebhook(c, ChannelEmail,
		[]string{"message_id", "MessageID"},
		[]string{"status", "event"},
		[]string{"error", "reason"},
	)
}

// SMSWebhook handles POST /webhooks/sms/provider
func (h *Handler) SMSWebhook(c *gin.Context) {
	h.handleProviderWebhook(c, ChannelSMS,
		[]string{"message_id", "id"},
		[]string{"status", "dlr_status"},
		[]string{"error", "failure_reason"},
	)
}

func (h *Handler) handleProviderWebhook(c *gin.Context, channel Channel, idKeys, statusKeys, errorKeys []string) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		// Unparsable body is the one case reported as an error to the
		// provider; providers retry these differently than unmatched ids.
		common.Error(c, http.StatusInternalServerError, "unparsable webhook payload: "+err.Error())
		return
	}

	slog.Info("delivery webhook received", "channel", channel, "payload", payload)

	messageID := firstString(payload, idKeys)
	providerStatus := firstString(payload, statusKeys)
	errText := firstString(payload, errorKeys)

	// Payloads without a correlatable id or status are acknowledged as-is.
	if messageID != "" && providerStatus != "" {
		status := MapProviderStatus(channel, providerStatus)
		if err := h.service.ReconcileDeliveryStatus(c.Request.Context(), channel, messageID, status, errText); err != nil {
			// Still acknowledge: a transient store failure must not trigger
			// provider retries against a healthy endpoint.
			slog.Error("delivery webhook processing failed",
				"channel", channel,
				"provider_message_id", messageID,
				"error", err,
			)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// firstString returns the first non-empty string value among the given keys.
func firstString(payload map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// RegisterRoutes registers the protected notification routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/customer-pre-orders/:id/notify", h.Send)
	rg.GET("/customer-pre-orders/:id/notifications", h.List)
	rg.GET("/notifications/merge-tags", h.MergeTags)
	rg.GET("/notifications/:id", h.Get)
	rg.POST("/notifications/:id/resend", h.Resend)
}

// RegisterWebhookRoutes registers the public provider callback routes.
// Providers cannot send our API key, so these stay outside the auth group.
func (h *Handler) RegisterWebhookRoutes(r gin.IRouter) {
	r.POST("/webhooks/email/provider", h.EmailWebhook)
	r.POST("/webhooks/sms/provider", h.SMSWebhook)
}
