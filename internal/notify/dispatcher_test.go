package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmanzer2/lead-gen/internal/leads"
	"github.com/dmanzer2/lead-gen/internal/observability/metrics"
	"github.com/dmanzer2/lead-gen/internal/referencedata"
)

type recordingSender struct {
	mu     sync.Mutex
	sent   []EmailMessage
	failTo string
}

func (s *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	if s.failTo != "" && msg.To == s.failTo {
		return errors.New("mailbox unavailable for " + msg.To)
	}
	return nil
}

func (s *recordingSender) byRecipient(to string) (EmailMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.sent {
		if m.To == to {
			return m, true
		}
	}
	return EmailMessage{}, false
}

type memoryDeliveryLog struct {
	mu      sync.Mutex
	records []DeliveryRecord
}

func (l *memoryDeliveryLog) Record(_ context.Context, rec *DeliveryRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, *rec)
	return nil
}

func (l *memoryDeliveryLog) status(kind string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.Kind == kind {
			return r.Status
		}
	}
	return ""
}

type staticLabels struct{}

func (staticLabels) BudgetRanges(context.Context) []referencedata.BudgetRange {
	return []referencedata.BudgetRange{{ID: 1, RangeLabel: "Under $5,000"}, {ID: 2, RangeLabel: "$5,000 - $15,000"}}
}

func (staticLabels) ProjectTimelines(context.Context) []referencedata.ProjectTimeline {
	return []referencedata.ProjectTimeline{{ID: 1, TimelineLabel: "ASAP"}}
}

type failingQueue struct{ *MemoryQueue }

func (failingQueue) Send(context.Context, string) error { return errors.New("queue down") }

func sampleLead() leads.Lead {
	company := "Doe & Sons"
	return leads.Lead{
		ID:                42,
		CreatedAt:         time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		ContactType:       "Business",
		FirstName:         "Jane",
		LastName:          "Doe",
		CompanyName:       &company,
		Email:             "jane@example.com",
		PhoneNumber:       "4805551234",
		City:              "Mesa",
		ZipCode:           "85201",
		AZCounty:          "Maricopa",
		Comments:          "Need whole-home audio and lighting automation please.",
		EstimatedBudgetID: 2,
		ProjectTimelineID: 1,
	}
}

func TestDispatcherProcessSendsBothEmails(t *testing.T) {
	sender := &recordingSender{}
	deliveries := &memoryDeliveryLog{}
	d := NewDispatcher(DispatcherConfig{
		Sender:     sender,
		AdminEmail: "admin@example.com",
		Labels:     staticLabels{},
		Deliveries: deliveries,
		Metrics:    metrics.NewLeadMetrics(prometheus.NewRegistry()),
	})

	d.Process(context.Background(), Job{ID: "job-1", Lead: sampleLead()})

	confirmation, ok := sender.byRecipient("jane@example.com")
	require.True(t, ok, "confirmation not sent")
	assert.Equal(t, "Jane Doe", confirmation.ToName)
	assert.Contains(t, confirmation.HTML, "Thanks for reaching out, Jane!")
	assert.Contains(t, confirmation.HTML, "$5,000 - $15,000")
	assert.Contains(t, confirmation.HTML, "ASAP")
	assert.NotEmpty(t, confirmation.Body)

	alert, ok := sender.byRecipient("admin@example.com")
	require.True(t, ok, "admin alert not sent")
	assert.Equal(t, "New lead: Jane Doe (Business)", alert.Subject)
	assert.Equal(t, "jane@example.com", alert.ReplyTo)
	assert.Equal(t, int64(42), alert.LeadID)
	assert.Equal(t, KindConfirmation, confirmation.Kind)
	assert.Contains(t, alert.HTML, "Doe &amp; Sons")
	assert.False(t, strings.Contains(alert.HTML, "{{"), "unresolved placeholder in admin alert")

	assert.Equal(t, DeliverySent, deliveries.status(KindConfirmation))
	assert.Equal(t, DeliverySent, deliveries.status(KindAdminAlert))
}

func TestDispatcherProcessMasksDeliveryRecords(t *testing.T) {
	sender := &recordingSender{failTo: "jane@example.com"}
	deliveries := &memoryDeliveryLog{}
	d := NewDispatcher(DispatcherConfig{Sender: sender, AdminEmail: "admin@example.com", Deliveries: deliveries})

	d.Process(context.Background(), Job{ID: "job-3", Lead: sampleLead()})

	deliveries.mu.Lock()
	defer deliveries.mu.Unlock()
	require.Len(t, deliveries.records, 2)
	for _, rec := range deliveries.records {
		assert.NotContains(t, rec.Recipient, "jane@")
		assert.NotContains(t, rec.Recipient, "admin@")
		assert.NotContains(t, rec.ErrorMessage, "jane@example.com")
		switch rec.Kind {
		case KindConfirmation:
			assert.Equal(t, "j***@example.com", rec.Recipient)
			assert.Equal(t, "mailbox unavailable for [EMAIL]", rec.ErrorMessage)
		case KindAdminAlert:
			assert.Equal(t, "a***@example.com", rec.Recipient)
		}
	}
}

func TestDispatcherProcessIsolatesFailures(t *testing.T) {
	sender := &recordingSender{failTo: "jane@example.com"}
	deliveries := &memoryDeliveryLog{}
	d := NewDispatcher(DispatcherConfig{Sender: sender, AdminEmail: "admin@example.com", Deliveries: deliveries})

	d.Process(context.Background(), Job{ID: "job-2", Lead: sampleLead()})

	_, ok := sender.byRecipient("admin@example.com")
	assert.True(t, ok, "admin alert must still be attempted")
	assert.Equal(t, DeliveryFailed, deliveries.status(KindConfirmation))
	assert.Equal(t, DeliverySent, deliveries.status(KindAdminAlert))
}

func TestDispatcherProcessWithoutAdminEmail(t *testing.T) {
	sender := &recordingSender{}
	deliveries := &memoryDeliveryLog{}
	d := NewDispatcher(DispatcherConfig{Sender: sender, Deliveries: deliveries})

	d.Process(context.Background(), Job{Lead: sampleLead()})

	assert.Len(t, sender.sent, 1)
	assert.Equal(t, DeliverySkipped, deliveries.status(KindAdminAlert))
}

func TestDispatcherProcessUsesFallbackTemplate(t *testing.T) {
	sender := &recordingSender{}
	deliveries := &memoryDeliveryLog{}
	d := NewDispatcher(DispatcherConfig{
		Sender:     sender,
		Renderer:   NewRenderer(failingSource{}, nil),
		AdminEmail: "admin@example.com",
		Deliveries: deliveries,
	})

	d.Process(context.Background(), Job{Lead: sampleLead()})

	alert, ok := sender.byRecipient("admin@example.com")
	require.True(t, ok)
	assert.Contains(t, alert.HTML, "New lead #42 from Jane Doe")
	for _, rec := range deliveries.records {
		assert.True(t, rec.UsedFallback)
	}
}

func TestDispatcherDispatchEnqueuesJob(t *testing.T) {
	q := NewMemoryQueue(2)
	d := NewDispatcher(DispatcherConfig{Queue: q})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	lead := sampleLead()
	d.Dispatch(ctx, &lead)

	msgs, err := q.Receive(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	job, err := decodeJob(msgs[0].Body)
	require.NoError(t, err)
	assert.Equal(t, int64(42), job.Lead.ID)
	assert.NotEmpty(t, job.ID)
}

func TestDispatcherDispatchDoesNotWaitOnFullQueue(t *testing.T) {
	reg := prometheus.NewRegistry()
	q := NewMemoryQueue(1)
	d := NewDispatcher(DispatcherConfig{Queue: q, Metrics: metrics.NewLeadMetrics(reg)})
	lead := sampleLead()

	d.Dispatch(context.Background(), &lead)
	start := time.Now()
	d.Dispatch(context.Background(), &lead)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
	assert.Equal(t, 1, q.Len())

	families, err := reg.Gather()
	require.NoError(t, err)
	var dropped float64
	for _, mf := range families {
		if mf.GetName() != "leadgen_notify_emails_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["kind"] == "enqueue" && labels["status"] == "failed" {
				dropped += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, float64(1), dropped)
}

func TestDispatcherDispatchNeverPanicsOnFailure(t *testing.T) {
	lead := sampleLead()
	NewDispatcher(DispatcherConfig{Queue: failingQueue{NewMemoryQueue(1)}}).Dispatch(context.Background(), &lead)
	NewDispatcher(DispatcherConfig{}).Dispatch(context.Background(), &lead)
	NewDispatcher(DispatcherConfig{Queue: NewMemoryQueue(1)}).Dispatch(context.Background(), nil)
}

func TestDispatcherProcessWithoutSender(t *testing.T) {
	deliveries := &memoryDeliveryLog{}
	NewDispatcher(DispatcherConfig{Deliveries: deliveries}).Process(context.Background(), Job{Lead: sampleLead()})
	assert.Empty(t, deliveries.records)
}
