package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voice-campaign-platform/internal/callstore"
	"voice-campaign-platform/internal/campaign"
	"voice-campaign-platform/internal/reconcile"
	"voice-campaign-platform/internal/telephony"

	"github.com/gin-gonic/gin"
)

// silentProvider never returns status information, so poll loops only exit
// through webhook cancellation or exhaustion.
type silentProvider struct{}

func (silentProvider) Name() string { return "silent" }
func (silentProvider) PlaceCall(context.Context, telephony.PlaceCallRequest) (telephony.PlaceCallResult, error) {
	return telephony.PlaceCallResult{}, telephony.ErrPlacementRejected
}
func (silentProvider) CallStatus(context.Context, string) (telephony.CallStatusResult, error) {
	return telephony.CallStatusResult{}, telephony.ErrStatusUnavailable
}

func newTestHandler(t *testing.T) (Handler, *callstore.MemoryStore, *reconcile.Coordinator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := callstore.NewMemoryStore()
	coord := reconcile.NewCoordinator(store, silentProvider{}, nil, reconcile.Config{MaxAttempts: 1000, Interval: time.Hour}, nil)

	roster := campaign.NewRosterIndex()
	roster.Set([]campaign.Entry{{Name: "Asha", Phone: "+919876543210", Language: "ta"}})

	return Handler{
		Secret:      "topsecret",
		Coordinator: coord,
		Store:       store,
		Roster:      roster,
	}, store, coord
}

func serve(h Handler, secret, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/vapi-webhook", h.Handle)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/vapi-webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("x-vapi-secret", secret)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	h, store, coord := newTestHandler(t)
	ctx, cancel := context.WithCancel(context.Background())
	coord.Track(ctx, "call-1")

	body := `{"message":{"type":"end-of-call-report","call":{"id":"call-1"},"endedReason":"completed"}}`
	w := serve(h, "wrong", body)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
	if !coord.CancelPolling("call-1") {
		t.Fatalf("registry entry must survive an unauthorized event")
	}
	if _, err := store.Get(context.Background(), "call-1"); err == nil {
		t.Fatalf("store must stay unchanged on auth failure")
	}
	cancel()
	coord.Wait()
}

func TestWebhookEndOfCallReport(t *testing.T) {
	h, store, coord := newTestHandler(t)
	ctx, cancel := context.WithCancel(context.Background())
	coord.Track(ctx, "call-1")

	body := `{"message":{
		"type":"end-of-call-report",
		"call":{"id":"call-1","customer":{"number":"+919876543210"}},
		"endedReason":"customer-did-not-answer",
		"durationSeconds":0,
		"cost":0.04,
		"startedAt":"2026-08-29T10:00:00Z",
		"endedAt":"2026-08-29T10:00:30Z"
	}}`
	w := serve(h, "topsecret", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if coord.CancelPolling("call-1") {
		t.Fatalf("poll loop should have been cancelled by the webhook")
	}
	rec, err := store.Get(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != "customer-did-not-answer" || rec.Cost != 0.04 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Name != "Asha" || rec.Language != "ta" {
		t.Fatalf("roster lookup should fill identity: %+v", rec)
	}
	if rec.CallStartTime == "" || rec.CallEndTime == "" {
		t.Fatalf("times should be set: %+v", rec)
	}
	cancel()
	coord.Wait()
}

func TestWebhookEndedReasonDefaultsToCompleted(t *testing.T) {
	h, store, _ := newTestHandler(t)

	body := `{"message":{"type":"end-of-call-report","call":{"id":"call-2","customer":{"number":"919876543210"}},"durationSeconds":42}}`
	if w := serve(h, "topsecret", body); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	rec, err := store.Get(context.Background(), "call-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != callstore.StatusCompleted || rec.DurationSeconds != 42 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	// Plusless number still resolves through the roster.
	if rec.Name != "Asha" {
		t.Fatalf("expected roster match, got %+v", rec)
	}
}

func TestWebhookStatusUpdate(t *testing.T) {
	h, store, _ := newTestHandler(t)

	body := `{"message":{"type":"status-update","status":"in-progress","call":{"id":"call-3","customer":{"number":"+15550001111"}},"startedAt":"2026-08-29T10:00:00Z"}}`
	if w := serve(h, "topsecret", body); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	rec, err := store.Get(context.Background(), "call-3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != "in-progress" {
		t.Fatalf("unexpected status: %+v", rec)
	}
	if rec.Name != "Unknown" || rec.Language != "en" {
		t.Fatalf("unmatched number should default identity: %+v", rec)
	}
}

func TestWebhookFunctionCallEndCall(t *testing.T) {
	h, store, _ := newTestHandler(t)

	body := `{"message":{"type":"function-call","call":{"id":"call-4","customer":{"number":"+919876543210"}},"functionCall":{"name":"endCall"}}}`
	if w := serve(h, "topsecret", body); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	rec, err := store.Get(context.Background(), "call-4")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != callstore.StatusEnding {
		t.Fatalf("expected ending, got %+v", rec)
	}

	// Other tools are acknowledged without a write.
	body = `{"message":{"type":"function-call","call":{"id":"call-5"},"functionCall":{"name":"somethingElse"}}}`
	if w := serve(h, "topsecret", body); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if _, err := store.Get(context.Background(), "call-5"); err == nil {
		t.Fatalf("unknown tool must not write a record")
	}
}

func TestWebhookIgnoredTypeStillCancelsPolling(t *testing.T) {
	h, store, coord := newTestHandler(t)
	ctx, cancel := context.WithCancel(context.Background())
	coord.Track(ctx, "call-6")

	body := `{"message":{"type":"transcript","call":{"id":"call-6"}}}`
	w := serve(h, "topsecret", body)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected ok ack, got %d: %s", w.Code, w.Body.String())
	}
	if coord.CancelPolling("call-6") {
		t.Fatalf("any authenticated event should cancel polling")
	}
	if _, err := store.Get(context.Background(), "call-6"); err == nil {
		t.Fatalf("ignored type must not write a record")
	}
	cancel()
	coord.Wait()
}

func TestWebhookMissingCallID(t *testing.T) {
	h, _, _ := newTestHandler(t)
	if w := serve(h, "topsecret", `{"message":{"type":"status-update","status":"ringing"}}`); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for missing call id, got %d", w.Code)
	}
	if w := serve(h, "topsecret", `not-json`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}
