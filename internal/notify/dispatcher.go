package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/dmanzer2/lead-gen/internal/leads"
	"github.com/dmanzer2/lead-gen/internal/observability/metrics"
	"github.com/dmanzer2/lead-gen/internal/referencedata"
	"github.com/dmanzer2/lead-gen/pkg/logging"
)

// Notification kinds.
const (
	KindConfirmation = "confirmation"
	KindAdminAlert   = "admin_alert"
)

const (
	defaultJobTimeout     = 20 * time.Second
	defaultEnqueueTimeout = 5 * time.Second
)

var tracer = otel.Tracer("lead-gen.notify")

// ReferenceLabels resolves reference ids to the labels shown in emails.
// referencedata.Gateway satisfies it.
type ReferenceLabels interface {
	BudgetRanges(ctx context.Context) []referencedata.BudgetRange
	ProjectTimelines(ctx context.Context) []referencedata.ProjectTimeline
}

// DispatcherConfig wires a Dispatcher. Only Queue is needed to Dispatch;
// Process additionally needs Sender.
type DispatcherConfig struct {
	Queue      Queue
	Sender     EmailSender
	Renderer   *Renderer
	AdminEmail string
	Labels     ReferenceLabels
	Deliveries DeliveryLog
	JobTimeout time.Duration
	Metrics    *metrics.LeadMetrics
	Logger     *logging.Logger
}

// Dispatcher enqueues notification jobs for stored leads and, on the worker
// side, sends the confirmation and admin alert for each job.
type Dispatcher struct {
	queue      Queue
	sender     EmailSender
	renderer   *Renderer
	adminEmail string
	labels     ReferenceLabels
	deliveries DeliveryLog
	timeout    time.Duration
	metrics    *metrics.LeadMetrics
	logger     *logging.Logger
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Renderer == nil {
		cfg.Renderer = NewRenderer(EmbeddedTemplates{}, cfg.Logger)
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = defaultJobTimeout
	}
	return &Dispatcher{
		queue:      cfg.Queue,
		sender:     cfg.Sender,
		renderer:   cfg.Renderer,
		adminEmail: strings.TrimSpace(cfg.AdminEmail),
		labels:     cfg.Labels,
		deliveries: cfg.Deliveries,
		timeout:    cfg.JobTimeout,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// Dispatch enqueues the notifications for lead. Failures are logged and never
// returned; the lead is already stored and the response must not depend on
// email. The request context's cancellation is not inherited.
func (d *Dispatcher) Dispatch(ctx context.Context, lead *leads.Lead) {
	if lead == nil {
		return
	}
	if d.queue == nil {
		d.logger.Warn("notify: no queue configured, dropping notifications", "lead_id", lead.ID)
		return
	}

	job, body, err := encodeJob(Job{Lead: *lead})
	if err != nil {
		d.logger.Error("failed to encode notification job", "error", err, "lead_id", lead.ID)
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultEnqueueTimeout)
	defer cancel()
	if err := d.queue.Send(sendCtx, body); err != nil {
		if errors.Is(err, ErrQueueFull) {
			d.logger.Warn("notification queue full, dropping job", "lead_id", lead.ID, "job_id", job.ID)
		} else {
			d.logger.Error("failed to enqueue notification job", "error", err, "lead_id", lead.ID, "job_id", job.ID)
		}
		d.metrics.ObserveNotification("enqueue", err)
		return
	}
	d.logger.Debug("notification job enqueued", "lead_id", lead.ID, "job_id", job.ID)
}

// Process sends both emails for job concurrently. Each failure is logged and
// recorded independently; nothing is retried.
func (d *Dispatcher) Process(ctx context.Context, job Job) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "notify.process")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", job.ID), attribute.Int64("lead.id", job.Lead.ID))

	if d.sender == nil {
		d.logger.Warn("notify: no email sender configured, skipping notifications", "lead_id", job.Lead.ID)
		return
	}

	fields := d.fields(ctx, &job.Lead)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.send(ctx, job, NewLeadEmail(KindConfirmation, &job.Lead, ""), TemplateConfirmation, fields)
	}()
	go func() {
		defer wg.Done()
		if d.adminEmail == "" {
			d.logger.Warn("notify: ADMIN_EMAIL not set, skipping admin alert", "lead_id", job.Lead.ID)
			d.record(ctx, job, KindAdminAlert, "", DeliverySkipped, nil, false)
			return
		}
		d.send(ctx, job, NewLeadEmail(KindAdminAlert, &job.Lead, d.adminEmail), TemplateAdminAlert, fields)
	}()
	wg.Wait()
}

func (d *Dispatcher) send(ctx context.Context, job Job, msg EmailMessage, template string, fields map[string]string) {
	kind := msg.Kind
	ctx, span := tracer.Start(ctx, "notify.send")
	defer span.End()
	span.SetAttributes(attribute.String("notify.kind", kind))

	html, fallback := d.renderer.Render(ctx, template, fields)
	msg.Body = plainText(kind, fields)
	msg.HTML = html
	err := d.sender.Send(ctx, msg)
	d.metrics.ObserveNotification(kind, err)

	status := DeliverySent
	if err != nil {
		status = DeliveryFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		d.logger.Error("notification email failed", "kind", kind, "lead_id", job.Lead.ID, "job_id", job.ID, "error", logging.ScrubPII(err.Error()))
	} else {
		d.logger.Info("notification email sent", "kind", kind, "lead_id", job.Lead.ID, "job_id", job.ID, "fallback_template", fallback)
	}
	d.record(ctx, job, kind, msg.To, status, err, fallback)
}

func (d *Dispatcher) record(ctx context.Context, job Job, kind, to, status string, sendErr error, fallback bool) {
	if d.deliveries == nil {
		return
	}
	// Delivery records follow the log policy: contact details stay masked.
	rec := &DeliveryRecord{
		JobID:        job.ID,
		LeadID:       job.Lead.ID,
		Kind:         kind,
		Recipient:    logging.MaskEmail(to),
		Status:       status,
		UsedFallback: fallback,
	}
	if sendErr != nil {
		rec.ErrorMessage = logging.ScrubPII(sendErr.Error())
	}
	if err := d.deliveries.Record(ctx, rec); err != nil {
		d.logger.Warn("failed to record notification delivery", "kind", kind, "lead_id", job.Lead.ID, "error", err)
	}
}

// fields maps placeholder names to the lead's values. Reference ids are
// resolved to labels when a ReferenceLabels source is configured.
func (d *Dispatcher) fields(ctx context.Context, lead *leads.Lead) map[string]string {
	company := ""
	if lead.CompanyName != nil {
		company = *lead.CompanyName
	}
	budgetID := strconv.FormatInt(lead.EstimatedBudgetID, 10)
	timelineID := strconv.FormatInt(lead.ProjectTimelineID, 10)

	f := map[string]string{
		"id":                  strconv.FormatInt(lead.ID, 10),
		"created_at":          lead.CreatedAt.Format(time.RFC1123),
		"contact_type":        lead.ContactType,
		"first_name":          lead.FirstName,
		"last_name":           lead.LastName,
		"full_name":           lead.FullName(),
		"company_name":        company,
		"email":               lead.Email,
		"phone_number":        lead.PhoneNumber,
		"city":                lead.City,
		"zip_code":            lead.ZipCode,
		"az_county":           lead.AZCounty,
		"comments":            lead.Comments,
		"estimated_budget_id": budgetID,
		"project_timeline_id": timelineID,
		"budget_range":        budgetID,
		"project_timeline":    timelineID,
	}
	if d.labels == nil {
		return f
	}
	for _, b := range d.labels.BudgetRanges(ctx) {
		if b.ID == lead.EstimatedBudgetID {
			f["budget_range"] = b.RangeLabel
			break
		}
	}
	for _, p := range d.labels.ProjectTimelines(ctx) {
		if p.ID == lead.ProjectTimelineID {
			f["project_timeline"] = p.TimelineLabel
			break
		}
	}
	return f
}

func plainText(kind string, f map[string]string) string {
	if kind == KindConfirmation {
		return fmt.Sprintf("Hi %s,\n\nThanks for contacting us about your smart home project. We will be in touch soon.\n", f["first_name"])
	}
	return fmt.Sprintf("New lead #%s\n%s <%s>, %s\n%s, %s %s\nBudget: %s\nTimeline: %s\n\n%s\n",
		f["id"], f["full_name"], f["email"], f["phone_number"],
		f["city"], f["az_county"], f["zip_code"],
		f["budget_range"], f["project_timeline"], f["comments"])
}

var _ leads.Notifier = (*Dispatcher)(nil)
