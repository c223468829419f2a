package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// auditTrail records audit entries; failures are logged, never returned.
type auditTrail struct {
	repo   auditRepository
	logger *zap.Logger
}

func newAuditTrail(repo auditRepository, logger *zap.Logger) auditTrail {
	if logger == nil {
		logger = zap.NewNop()
	}
	return auditTrail{repo: repo, logger: logger}
}

func (a auditTrail) record(ctx context.Context, actorID, action, resource, resourceID string, values interface{}) {
	if a.repo == nil {
		return
	}
	entry := &models.AuditLog{Action: action, Resource: resource}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if values != nil {
		if payload, err := json.Marshal(values); err == nil {
			entry.NewValues = payload
		}
	}
	if meta, ok := requestMetaFrom(ctx); ok {
		entry.IPAddress = meta.IP
		entry.UserAgent = meta.UserAgent
	}
	if err := a.repo.Create(ctx, entry); err != nil {
		a.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

// RequestMeta describes the client behind a request.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type requestMetaKey struct{}

// WithRequestMeta attaches client metadata used by audit entries.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func requestMetaFrom(ctx context.Context) (RequestMeta, bool) {
	meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta, ok
}
