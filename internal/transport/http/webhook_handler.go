package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/waste3d/courseplatform-api/internal/application/usecase"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/middleware"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// WebhookParser verifies and decodes a provider webhook delivery.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*domain.WebhookEvent, error)
}

type WebhookHandler struct {
	purchases *usecase.PurchaseUseCase
	parser    WebhookParser
	appURL    string
	log       *zap.Logger
}

func NewWebhookHandler(purchases *usecase.PurchaseUseCase, parser WebhookParser, appURL string, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		purchases: purchases,
		parser:    parser,
		appURL:    strings.TrimRight(appURL, "/"),
		log:       log,
	}
}

// Redirect handles GET /api/webhooks/stripe?stripeSessionId=..., where the embedded checkout
// sends the buyer back. A session that the webhook already recorded still counts as success.
func (h *WebhookHandler) Redirect(c *gin.Context) {
	sessionID := c.Query("stripeSessionId")
	if sessionID == "" {
		c.Redirect(http.StatusSeeOther, h.appURL+"/products/purchase-failure")
		return
	}

	productID, err := h.purchases.ReconcileSession(c.Request.Context(), sessionID)
	if err != nil && !errors.Is(err, domain.ErrPurchaseAlreadyRecorded) {
		h.log.Warn("checkout redirect failed", zap.String("session_id", sessionID), zap.Error(err))
		if !errors.Is(err, domain.ErrNothingToGrant) {
			middleware.RecordError(c, err)
		}
		c.Redirect(http.StatusSeeOther, h.appURL+"/products/purchase-failure")
		return
	}
	c.Redirect(http.StatusSeeOther, h.appURL+"/products/"+productID.String()+"/purchase/success")
}

// Stripe handles POST /api/webhooks/stripe. Only a processing failure answers 5xx so the
// provider retries; idempotent outcomes and unrelated events are acknowledged.
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		respond(c, http.StatusBadRequest, "Invalid webhook payload!", nil)
		return
	}

	event, err := h.parser.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.log.Warn("reject webhook", zap.Error(err))
		respond(c, http.StatusBadRequest, "Invalid webhook signature!", nil)
		return
	}
	if !event.CompletesCheckout() || event.Session == nil {
		respond(c, http.StatusOK, "Event received!", nil)
		return
	}

	_, err = h.purchases.ReconcileSession(c.Request.Context(), event.Session.ID)
	switch {
	case err == nil:
		respond(c, http.StatusOK, "Purchase recorded!", nil)
	case errors.Is(err, domain.ErrPurchaseAlreadyRecorded), errors.Is(err, domain.ErrNothingToGrant):
		h.log.Info("webhook already settled", zap.String("event_id", event.ID), zap.Error(err))
		respond(c, http.StatusOK, "Event received!", nil)
	default:
		h.log.Error("process webhook",
			zap.String("event_id", event.ID),
			zap.String("session_id", event.Session.ID),
			zap.Error(err),
		)
		middleware.RecordError(c, err)
		respond(c, http.StatusInternalServerError, "Internal Server Error!", nil)
	}
}
