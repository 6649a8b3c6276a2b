package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/tracing"
)

type auditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) interfaces.AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "auditLogRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if entry == nil || entry.HOAID == "" || entry.Action == "" {
		tracing.TraceErr(span, ErrInvalidInput)
		return ErrInvalidInput
	}
	span.SetTag("action", entry.Action.String())

	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *auditLogRepository) ListByRequest(ctx context.Context, requestID string) ([]*models.AuditLog, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "auditLogRepository.ListByRequest")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, requestID)

	var entries []*models.AuditLog
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return entries, nil
}
