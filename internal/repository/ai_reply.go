package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/tracing"
)

type aiReplyRepository struct {
	db *gorm.DB
}

func NewAIReplyRepository(db *gorm.DB) interfaces.AIReplyRepository {
	return &aiReplyRepository{db: db}
}

// Upsert writes the reply keyed by message id, replacing any earlier outcome.
func (r *aiReplyRepository) Upsert(ctx context.Context, reply *models.AIReply) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "aiReplyRepository.Upsert")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if reply == nil || reply.MessageID == "" {
		tracing.TraceErr(span, ErrInvalidInput)
		return ErrInvalidInput
	}
	span.SetTag("message_id", reply.MessageID)

	var existing models.AIReply
	err := r.db.WithContext(ctx).Where("message_id = ?", reply.MessageID).First(&existing).Error
	switch {
	case err == nil:
		reply.ID = existing.ID
		reply.CreatedAt = existing.CreatedAt
		err = r.db.WithContext(ctx).Save(reply).Error
	case isNotFound(err):
		err = r.db.WithContext(ctx).Create(reply).Error
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *aiReplyRepository) GetByMessageID(ctx context.Context, messageID string) (*models.AIReply, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "aiReplyRepository.GetByMessageID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("message_id", messageID)

	var reply models.AIReply
	err := r.db.WithContext(ctx).Where("message_id = ?", messageID).First(&reply).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &reply, nil
}
