package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/tracing"
	"github.com/hoadesk/inbox/internal/utils"
)

type replyDraftRepository struct {
	db *gorm.DB
}

func NewReplyDraftRepository(db *gorm.DB) interfaces.ReplyDraftRepository {
	return &replyDraftRepository{db: db}
}

func (r *replyDraftRepository) Create(ctx context.Context, draft *models.ReplyDraft) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "replyDraftRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if draft == nil || draft.RequestID == "" || draft.Version < 1 {
		tracing.TraceErr(span, ErrInvalidInput)
		return ErrInvalidInput
	}
	span.SetTag("version", draft.Version)

	if err := r.db.WithContext(ctx).Create(draft).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *replyDraftRepository) GetByID(ctx context.Context, id string) (*models.ReplyDraft, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "replyDraftRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	var draft models.ReplyDraft
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&draft).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &draft, nil
}

func (r *replyDraftRepository) Save(ctx context.Context, draft *models.ReplyDraft) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "replyDraftRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, draft.ID)

	draft.UpdatedAt = utils.Now()
	if err := r.db.WithContext(ctx).Save(draft).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

// GetLatestVersion returns 0 when the request has no drafts yet.
func (r *replyDraftRepository) GetLatestVersion(ctx context.Context, requestID string) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "replyDraftRepository.GetLatestVersion")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, requestID)

	var version int
	err := r.db.WithContext(ctx).Model(&models.ReplyDraft{}).
		Where("request_id = ?", requestID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&version).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}
	return version, nil
}

func (r *replyDraftRepository) ListByRequest(ctx context.Context, requestID string) ([]*models.ReplyDraft, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "replyDraftRepository.ListByRequest")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, requestID)

	var drafts []*models.ReplyDraft
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).Order("version DESC").Find(&drafts).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return drafts, nil
}
