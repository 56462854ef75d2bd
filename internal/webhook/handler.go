package webhook

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"voice-campaign-platform/internal/audit"
	"voice-campaign-platform/internal/callstore"
	"voice-campaign-platform/internal/campaign"
	"voice-campaign-platform/internal/reconcile"

	"github.com/gin-gonic/gin"
)

const secretHeader = "x-vapi-secret"

// Handler ingests provider webhook events. Webhook observations are
// authoritative: before merging anything, the handler cancels the call's
// poll loop so a slower poll cannot race a fresher webhook write.
type Handler struct {
	Secret      string
	Coordinator *reconcile.Coordinator
	Store       callstore.Store
	Roster      *campaign.RosterIndex
	Trail       *audit.Service
	Log         *slog.Logger
}

func (h Handler) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

func (h Handler) Handle(c *gin.Context) {
	got := c.GetHeader(secretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var env eventEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	msg := env.Message

	callID := msg.Call.ID
	if callID == "" || callID == callstore.PendingCallID {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	log := h.logger().With("call_id", callID, "event", msg.Type)

	// Stop polling before any merge. Webhook data is fresher than whatever
	// a concurrent poll attempt could commit, so the cancellation signal
	// must be visible no later than this handler's own write.
	h.Coordinator.CancelPolling(callID)
	h.Trail.LogWebhookReceived(c.Request.Context(), callID, msg.Type)

	switch msg.Type {
	case eventStatusUpdate, eventEndOfCallReport, eventFunctionCall:
	default:
		log.Debug("event ignored")
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	name, lang := "Unknown", campaign.DefaultLanguage
	if h.Roster != nil {
		if entry, ok := h.Roster.Lookup(msg.Call.Customer.Number); ok {
			name, lang = entry.Name, entry.Language
		}
	}

	rec := callstore.CallRecord{
		Name:        name,
		PhoneNumber: msg.Call.Customer.Number,
		Language:    lang,
		CallID:      callID,
	}

	switch msg.Type {
	case eventStatusUpdate:
		rec.Status = msg.Status
		rec.CallStartTime = callstore.NormalizeTime(msg.StartedAt)
	case eventEndOfCallReport:
		reason := msg.EndedReason
		if reason == "" {
			reason = callstore.StatusCompleted
		}
		rec.Status = reason
		rec.DurationSeconds = int(msg.DurationSeconds)
		rec.Cost = msg.Cost
		rec.CallStartTime = callstore.NormalizeTime(msg.StartedAt)
		rec.CallEndTime = callstore.NormalizeTime(msg.EndedAt)
	case eventFunctionCall:
		if msg.FunctionCall == nil || msg.FunctionCall.Name != endCallFunction {
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}
		rec.Status = callstore.StatusEnding
	}

	if err := h.Store.Upsert(c.Request.Context(), rec); err != nil {
		log.Error("webhook merge failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "store write failed"})
		return
	}

	log.Info("webhook merged", "status", rec.Status)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
