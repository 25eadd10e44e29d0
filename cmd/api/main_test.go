package main

import (
	"context"
	"errors"
	"testing"
	"time"

	appconfig "github.com/dmanzer2/lead-gen/internal/config"
	"github.com/dmanzer2/lead-gen/internal/notify"
	"github.com/dmanzer2/lead-gen/pkg/logging"
)

func TestRunFailsFastWithoutDatabaseURL(t *testing.T) {
	err := run(&appconfig.Config{Port: "0"}, logging.New("error"))
	if !errors.Is(err, appconfig.ErrMissingDatabaseURL) {
		t.Fatalf("expected ErrMissingDatabaseURL, got %v", err)
	}
}

func TestDrainQueueWaitsForEmptyQueue(t *testing.T) {
	q := notify.NewMemoryQueue(4)
	if err := q.Send(context.Background(), "job"); err != nil {
		t.Fatalf("send: %v", err)
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		_, _ = q.Receive(context.Background(), 1, 1)
	}()

	start := time.Now()
	drainQueue(q, 2*time.Second)
	if q.Len() != 0 {
		t.Fatalf("expected drained queue")
	}
	if time.Since(start) >= 2*time.Second {
		t.Fatalf("drain should return as soon as the queue is empty")
	}
}

func TestDrainQueueRespectsLimit(t *testing.T) {
	q := notify.NewMemoryQueue(1)
	_ = q.Send(context.Background(), "stuck")

	start := time.Now()
	drainQueue(q, 120*time.Millisecond)
	if time.Since(start) > time.Second {
		t.Fatalf("drain exceeded its limit")
	}
}
