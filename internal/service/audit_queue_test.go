package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/pkg/jobs"
)

func TestAuditQueueFlushesOnStop(t *testing.T) {
	repo := &fakeAudit{}
	q := NewAuditQueue(repo, jobs.Config{Workers: 1, BufferSize: 8})
	trail := newAuditTrail(q, nil)

	q.Start(context.Background())
	ctx, cancel := context.WithCancel(context.Background())
	trail.record(ctx, "u1", models.AuditActionApply, "application", "app-1", nil)
	cancel()
	require.NoError(t, q.Stop(context.Background()))

	assert.Equal(t, []string{models.AuditActionApply}, repo.actions())
}

func TestAuditQueueRejectsAfterStop(t *testing.T) {
	q := NewAuditQueue(&fakeAudit{}, jobs.Config{})
	q.Start(context.Background())
	require.NoError(t, q.Stop(context.Background()))

	assert.ErrorIs(t, q.Create(context.Background(), &models.AuditLog{}), jobs.ErrQueueClosed)
}
