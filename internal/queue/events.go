package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"breakfast-order-service/internal/window"
)

const (
	EventsExchange = "breakfast.events"
	OrderSavedRK   = "breakfast.order.saved"

	ArchiveRK     = "breakfast.report.archive"
	ArchiveQueue  = "breakfast.report.archive"
	ArchiveDLQ    = "breakfast.report.archive.dlq"
	ArchiveDeadRK = "breakfast.report.archive.dead"

	ArchiveMaxRetries = 5
	ArchiveRetryDelay = 5 * time.Second
)

// OrderSavedEvent is published after every successful room write.
type OrderSavedEvent struct {
	Type        string    `json:"type"`
	DateKey     string    `json:"dateKey"`
	RoomID      string    `json:"roomId"`
	IsCompleted bool      `json:"isCompleted"`
	Role        string    `json:"role"`
	StaffName   string    `json:"staffName,omitempty"`
	SavedAt     time.Time `json:"savedAt"`
}

// ArchiveJob asks the worker to render and upload one date's reports.
type ArchiveJob struct {
	Type        string    `json:"type"`
	DateKey     string    `json:"dateKey"`
	RequestedBy string    `json:"requestedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// EnsureTopology declares the events exchange and the archive work queue.
func EnsureTopology(ctx context.Context, qc *Client) error {
	if qc == nil {
		return nil
	}
	if err := qc.EnsureExchange(EventsExchange); err != nil {
		return err
	}
	return qc.EnsureWorkQueue(EventsExchange, ArchiveQueue, ArchiveRK, ArchiveDLQ, ArchiveDeadRK)
}

type Publisher struct {
	client *Client
	now    func() time.Time
}

func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client, now: time.Now}
}

func (p *Publisher) PublishOrderSaved(ctx context.Context, ev OrderSavedEvent) error {
	if p == nil || p.client == nil {
		return nil
	}
	if ev.Type == "" {
		ev.Type = OrderSavedRK
	}
	return p.client.PublishJSON(ctx, EventsExchange, OrderSavedRK, ev)
}

func (p *Publisher) EnqueueArchive(ctx context.Context, dateKey, requestedBy string) error {
	if p == nil || p.client == nil {
		return errors.New("queue is not configured")
	}
	job := ArchiveJob{
		Type:        ArchiveRK,
		DateKey:     dateKey,
		RequestedBy: requestedBy,
		CreatedAt:   p.now().UTC(),
	}
	return p.client.PublishJSON(ctx, EventsExchange, ArchiveRK, job)
}

// Archiver renders and uploads the reports of one service date.
type Archiver interface {
	Archive(ctx context.Context, dateKey string) error
}

// ErrMalformedJob marks a delivery that can never succeed.
var ErrMalformedJob = errors.New("malformed archive job")

// DecodeArchiveJob parses and checks an archive job body.
func DecodeArchiveJob(body []byte) (ArchiveJob, error) {
	var job ArchiveJob
	if err := json.Unmarshal(body, &job); err != nil {
		return ArchiveJob{}, ErrMalformedJob
	}
	job.DateKey = strings.TrimSpace(job.DateKey)
	if _, err := window.ParseKey(job.DateKey, nil); err != nil {
		return ArchiveJob{}, ErrMalformedJob
	}
	return job, nil
}

// ArchiveHandler adapts an Archiver to ConsumeWithRetry. Malformed jobs are
// acknowledged and dropped.
func ArchiveHandler(archiver Archiver) HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		job, err := DecodeArchiveJob(body)
		if err != nil {
			return nil
		}
		return archiver.Archive(ctx, job.DateKey)
	}
}
