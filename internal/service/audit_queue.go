package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/pkg/jobs"
)

// AuditQueue persists audit entries from a background worker pool so request
// handling never waits on the insert. It satisfies the services' audit
// repository contract.
type AuditQueue struct {
	queue *jobs.Queue[*models.AuditLog]
}

// NewAuditQueue wraps repo with a worker pool configured by cfg.
func NewAuditQueue(repo auditRepository, cfg jobs.Config) *AuditQueue {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &AuditQueue{
		queue: jobs.NewQueue("audit", func(ctx context.Context, entry *models.AuditLog) error {
			return repo.Create(ctx, entry)
		}, cfg),
	}
}

// Start launches the workers.
func (a *AuditQueue) Start(ctx context.Context) {
	a.queue.Start(ctx)
}

// Stop flushes buffered entries until ctx expires.
func (a *AuditQueue) Stop(ctx context.Context) error {
	return a.queue.Stop(ctx)
}

// Create buffers entry. The caller's context is not retained.
func (a *AuditQueue) Create(_ context.Context, entry *models.AuditLog) error {
	return a.queue.Enqueue(entry)
}
