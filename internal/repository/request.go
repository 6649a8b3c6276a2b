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

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) interfaces.RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, request *models.Request) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "requestRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if request == nil || request.ThreadID == "" || request.HOAID == "" {
		tracing.TraceErr(span, ErrInvalidInput)
		return ErrInvalidInput
	}
	tracing.TagHOA(span, request.HOAID)

	if err := r.db.WithContext(ctx).Omit("Drafts").Create(request).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*models.Request, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "requestRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	var request models.Request
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) GetByThreadID(ctx context.Context, threadID string) (*models.Request, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "requestRepository.GetByThreadID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("thread_id", threadID)

	var request models.Request
	err := r.db.WithContext(ctx).Where("thread_id = ?", threadID).First(&request).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) Save(ctx context.Context, request *models.Request) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "requestRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, request.ID)

	request.UpdatedAt = utils.Now()
	if err := r.db.WithContext(ctx).Omit("Drafts").Save(request).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *requestRepository) ListByHOA(ctx context.Context, hoaID string, status *enum.RequestStatus, limit, offset int) ([]*models.Request, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "requestRepository.ListByHOA")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagHOA(span, hoaID)
	span.SetTag("limit", limit)
	span.SetTag("offset", offset)

	query := r.db.WithContext(ctx).Model(&models.Request{}).Where("hoa_id = ?", hoaID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	var requests []*models.Request
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&requests).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}
	return requests, total, nil
}
