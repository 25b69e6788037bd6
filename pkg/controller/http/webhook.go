package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	githubcontroller "github.com/m-mizutani/lintgate/pkg/controller/github"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
)

// maxPayloadSize is the largest webhook payload GitHub delivers
const maxPayloadSize = 25 << 20

// EventProcessor turns a parsed webhook payload into a job
type EventProcessor interface {
	ProcessEvent(ctx context.Context, event *model.WebhookEvent, payload any) (*model.Job, error)
}

// WebhookHandler handles GitHub webhooks
type WebhookHandler struct {
	secret    string
	processor EventProcessor
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(secret string, processor EventProcessor) *WebhookHandler {
	return &WebhookHandler{
		secret:    secret,
		processor: processor,
	}
}

type webhookResponse struct {
	Status string `json:"status"`
	JobID  string `json:"job_id,omitempty"`
}

// Handle processes webhook requests
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	// Read payload
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadSize))
	if err != nil {
		logger.Error("Failed to read request body", "error", err)
		writeError(w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Verify signature
	signature := r.Header.Get("X-Hub-Signature-256")
	if !h.verifySignature(body, signature) {
		logger.Warn("Invalid webhook signature")
		writeError(w, goerr.New("invalid signature"), http.StatusUnauthorized)
		return
	}

	event := &model.WebhookEvent{
		ID:         r.Header.Get("X-GitHub-Delivery"),
		Type:       model.WebhookEventType(r.Header.Get("X-GitHub-Event")),
		ReceivedAt: time.Now(),
		RawPayload: body,
	}
	logger = logger.With("delivery_id", event.ID, "event_type", event.Type)
	ctx = ctxlog.With(ctx, logger)

	if !event.IsSupportedEvent() {
		logger.Info("Skipping unsupported event")
		writeJSON(ctx, w, http.StatusOK, &webhookResponse{Status: "skipped"})
		return
	}

	// Parse event using GitHub SDK
	payload, err := github.ParseWebHook(string(event.Type), body)
	if err != nil {
		logger.Error("Failed to parse webhook payload", "error", err)
		writeError(w, goerr.Wrap(err, "invalid JSON payload"), http.StatusBadRequest)
		return
	}

	job, err := h.processor.ProcessEvent(ctx, event, payload)
	if err != nil {
		if errors.Is(err, githubcontroller.ErrInvalidPayload) {
			logger.Warn("Rejected webhook payload", "error", err)
			writeError(w, err, http.StatusBadRequest)
			return
		}
		logger.Error("Failed to process webhook event", "error", err)
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	if job == nil {
		writeJSON(ctx, w, http.StatusOK, &webhookResponse{Status: "skipped"})
		return
	}
	writeJSON(ctx, w, http.StatusAccepted, &webhookResponse{Status: "queued", JobID: job.ID.String()})
}

// verifySignature verifies the webhook signature
func (h *WebhookHandler) verifySignature(payload []byte, signature string) bool {
	if signature == "" {
		return false
	}

	// Remove "sha256=" prefix if present
	signature = strings.TrimPrefix(signature, "sha256=")

	// Calculate HMAC-SHA256
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(payload)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedMAC))
}
