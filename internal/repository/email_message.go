package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/enum"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/tracing"
)

type emailMessageRepository struct {
	db *gorm.DB
}

func NewEmailMessageRepository(db *gorm.DB) interfaces.EmailMessageRepository {
	return &emailMessageRepository{db: db}
}

func (r *emailMessageRepository) Create(ctx context.Context, message *models.EmailMessage) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailMessageRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if message == nil || message.ThreadID == "" || message.GmailMessageID == "" {
		tracing.TraceErr(span, ErrInvalidInput)
		return ErrInvalidInput
	}
	span.SetTag("gmail_message_id", message.GmailMessageID)

	if err := r.db.WithContext(ctx).Omit("AIReply").Create(message).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *emailMessageRepository) GetByID(ctx context.Context, id string) (*models.EmailMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailMessageRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	var message models.EmailMessage
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&message).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &message, nil
}

func (r *emailMessageRepository) ExistsByGmailMessageID(ctx context.Context, gmailMessageID string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailMessageRepository.ExistsByGmailMessageID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("gmail_message_id", gmailMessageID)

	var count int64
	err := r.db.WithContext(ctx).Model(&models.EmailMessage{}).
		Where("gmail_message_id = ?", gmailMessageID).
		Count(&count).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}
	return count > 0, nil
}

func (r *emailMessageRepository) GetLatestIncoming(ctx context.Context, threadID string) (*models.EmailMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailMessageRepository.GetLatestIncoming")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("thread_id", threadID)

	var message models.EmailMessage
	err := r.db.WithContext(ctx).
		Where("thread_id = ? AND direction = ?", threadID, enum.MessageIncoming).
		Order("received_at DESC").
		Order("created_at DESC").
		First(&message).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &message, nil
}

func (r *emailMessageRepository) ListByThread(ctx context.Context, threadID string) ([]*models.EmailMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailMessageRepository.ListByThread")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("thread_id", threadID)

	var messages []*models.EmailMessage
	err := r.db.WithContext(ctx).
		Preload("AIReply").
		Where("thread_id = ?", threadID).
		Order("received_at ASC").
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return messages, nil
}
