package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/enum"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/tracing"
	"github.com/hoadesk/inbox/internal/utils"
)

type emailThreadRepository struct {
	db *gorm.DB
}

func NewEmailThreadRepository(db *gorm.DB) interfaces.EmailThreadRepository {
	return &emailThreadRepository{db: db}
}

func (r *emailThreadRepository) Create(ctx context.Context, thread *models.EmailThread) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailThreadRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if thread == nil || thread.GmailThreadID == "" || thread.HOAID == "" {
		tracing.TraceErr(span, ErrInvalidInput)
		return ErrInvalidInput
	}
	if thread.Status == "" {
		thread.Status = enum.ThreadStatusNew
	}

	if err := r.db.WithContext(ctx).Create(thread).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *emailThreadRepository) GetByID(ctx context.Context, id string) (*models.EmailThread, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailThreadRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("thread_id", id)

	var thread models.EmailThread
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&thread).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &thread, nil
}

func (r *emailThreadRepository) GetByGmailThreadID(ctx context.Context, gmailThreadID string) (*models.EmailThread, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailThreadRepository.GetByGmailThreadID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("gmail_thread_id", gmailThreadID)

	var thread models.EmailThread
	err := r.db.WithContext(ctx).Where("gmail_thread_id = ?", gmailThreadID).First(&thread).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &thread, nil
}

func (r *emailThreadRepository) Save(ctx context.Context, thread *models.EmailThread) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailThreadRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("thread_id", thread.ID)

	thread.UpdatedAt = utils.Now()
	if err := r.db.WithContext(ctx).Omit("Messages").Save(thread).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *emailThreadRepository) UpdateStatus(ctx context.Context, id string, status enum.ThreadStatus) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailThreadRepository.UpdateStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("thread_id", id)
	span.SetTag("status", status.String())

	err := r.db.WithContext(ctx).Model(&models.EmailThread{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": utils.Now(),
		}).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *emailThreadRepository) ListByHOA(ctx context.Context, hoaID string, limit, offset int) ([]*models.EmailThread, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailThreadRepository.ListByHOA")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagHOA(span, hoaID)
	span.SetTag("limit", limit)
	span.SetTag("offset", offset)

	var threads []*models.EmailThread
	err := r.db.WithContext(ctx).
		Where("hoa_id = ?", hoaID).
		Order("last_message_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&threads).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return threads, nil
}
