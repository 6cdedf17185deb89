package handlers

import (
	"context"

	"go.uber.org/zap"

	"breakfast-order-service/internal/config"
	"breakfast-order-service/internal/frontdesk"
	"breakfast-order-service/internal/report"
	"breakfast-order-service/internal/storage"
)

// ArchiveQueue hands archive requests to the background worker.
type ArchiveQueue interface {
	EnqueueArchive(ctx context.Context, dateKey, requestedBy string) error
}

// ArchiveLister lists what has already been archived.
type ArchiveLister interface {
	List(ctx context.Context, prefix string) ([]storage.ArchivedObject, error)
}

type Handler struct {
	Logger  *zap.Logger
	Config  config.Config
	Service *frontdesk.Service
	Reports *report.Generator
	// Queue and Archive are nil when RabbitMQ or the object store is not configured.
	Queue   ArchiveQueue
	Archive ArchiveLister
}
