package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmanzer2/lead-gen/internal/leads"
)

// ErrQueueFull is returned by MemoryQueue.Send when the buffer has no room.
var ErrQueueFull = errors.New("notify: queue full")

// Queue carries notification jobs between the API and the workers.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// Message is one received queue entry.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// Job asks the workers to send the notifications for one stored lead.
type Job struct {
	ID         string     `json:"id"`
	Lead       leads.Lead `json:"lead"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
}

func encodeJob(job Job) (Job, string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	body, err := json.Marshal(job)
	if err != nil {
		return Job{}, "", fmt.Errorf("notify: failed to encode job: %w", err)
	}
	return job, string(body), nil
}

func decodeJob(body string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return Job{}, fmt.Errorf("notify: failed to decode job: %w", err)
	}
	return job, nil
}
