package leads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/dmanzer2/lead-gen/internal/leadform"
	"github.com/dmanzer2/lead-gen/internal/observability/metrics"
	"github.com/dmanzer2/lead-gen/pkg/logging"
)

// MaxBodyBytes caps the size of a submission body.
const MaxBodyBytes = 64 << 10

// Client-facing messages. Internal detail never reaches the response.
const (
	MsgSubmitted     = "Lead submitted successfully!"
	MsgSpamDetected  = "Spam detected."
	MsgInvalidInput  = "Invalid input."
	MsgSubmitFailure = "Failed to submit lead."
)

var tracer = otel.Tracer("lead-gen.leads")

// ReferenceChecker reports the reference ids a lead may currently use.
type ReferenceChecker interface {
	ValidIDs(ctx context.Context) (budgetIDs, timelineIDs []int64)
}

// Notifier hands a stored lead to the notification pipeline. It must not
// block on email delivery.
type Notifier interface {
	Dispatch(ctx context.Context, lead *Lead)
}

type nopNotifier struct{}

func (nopNotifier) Dispatch(context.Context, *Lead) {}

// Handler handles HTTP requests for leads
type Handler struct {
	repo     Repository
	refs     ReferenceChecker
	notifier Notifier
	metrics  *metrics.LeadMetrics
	logger   *logging.Logger
}

// NewHandler creates a new leads handler. notifier and m may be nil.
func NewHandler(repo Repository, refs ReferenceChecker, notifier Notifier, m *metrics.LeadMetrics, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("leads: repository required")
	}
	if refs == nil {
		panic("leads: reference checker required")
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:     repo,
		refs:     refs,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// SubmitResponse is the 200 body of POST /api/submit-lead.
type SubmitResponse struct {
	Message string `json:"message"`
	Data    *Lead  `json:"data"`
}

// ErrorResponse is the 4xx/5xx body of POST /api/submit-lead.
type ErrorResponse struct {
	Error   string          `json:"error"`
	Details leadform.Errors `json:"details,omitempty"`
}

// SubmitLead handles POST /api/submit-lead
func (h *Handler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := tracer.Start(r.Context(), "leads.submit")
	defer span.End()

	outcome := metrics.OutcomeAccepted
	defer func() {
		span.SetAttributes(attribute.String("lead.outcome", outcome))
		h.metrics.ObserveSubmission(outcome, time.Since(start).Seconds())
	}()

	var sub leadform.Submission
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		outcome = metrics.OutcomeBadRequest
		h.logger.Warn("failed to decode lead submission", "error", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: MsgInvalidInput})
		return
	}

	if err := leadform.CheckHoneypot(sub); err != nil {
		outcome = metrics.OutcomeSpam
		h.logger.Info("lead submission rejected by honeypot")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: MsgSpamDetected})
		return
	}

	normalized, err := leadform.Validate(sub)
	if err != nil {
		outcome = metrics.OutcomeInvalid
		h.rejectInvalid(w, err)
		return
	}

	budgetIDs, timelineIDs := h.refs.ValidIDs(ctx)
	if err := leadform.CheckReferences(normalized, budgetIDs, timelineIDs); err != nil {
		outcome = metrics.OutcomeReferenceInvalid
		h.rejectInvalid(w, err)
		return
	}

	lead, err := h.repo.Create(ctx, NewCreateLeadRequest(normalized))
	if err != nil {
		outcome = metrics.OutcomeStorageError
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		var constraintErr *StorageConstraintError
		if errors.As(err, &constraintErr) {
			h.logger.Error("lead insert violated constraint", "constraint", constraintErr.Constraint, "code", constraintErr.Code, "error", err)
		} else {
			h.logger.Error("failed to create lead", "error", err)
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: MsgSubmitFailure})
		return
	}
	span.SetAttributes(attribute.Int64("lead.id", lead.ID))

	h.notifier.Dispatch(ctx, lead)

	h.logger.Info("lead created", "id", lead.ID, "contact_type", lead.ContactType)
	writeJSON(w, http.StatusOK, SubmitResponse{Message: MsgSubmitted, Data: lead})
}

func (h *Handler) rejectInvalid(w http.ResponseWriter, err error) {
	var details leadform.Errors
	if !errors.As(err, &details) {
		h.logger.Error("unexpected validation error", "error", err)
	}
	h.logger.Info("lead submission failed validation", "fields", len(details))
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: MsgInvalidInput, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
