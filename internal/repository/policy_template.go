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

type policyTemplateRepository struct {
	db *gorm.DB
}

func NewPolicyTemplateRepository(db *gorm.DB) interfaces.PolicyTemplateRepository {
	return &policyTemplateRepository{db: db}
}

func (r *policyTemplateRepository) Create(ctx context.Context, template *models.PolicyTemplate) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "policyTemplateRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if template == nil || template.HOAID == "" || !template.Category.IsValid() {
		tracing.TraceErr(span, ErrInvalidInput)
		return ErrInvalidInput
	}
	tracing.TagHOA(span, template.HOAID)

	if err := r.db.WithContext(ctx).Create(template).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *policyTemplateRepository) ListByHOA(ctx context.Context, hoaID string) ([]*models.PolicyTemplate, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "policyTemplateRepository.ListByHOA")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagHOA(span, hoaID)

	var templates []*models.PolicyTemplate
	err := r.db.WithContext(ctx).
		Where("hoa_id = ?", hoaID).
		Order("category ASC").
		Order("updated_at DESC").
		Find(&templates).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return templates, nil
}

func (r *policyTemplateRepository) FindBest(ctx context.Context, hoaID string, category enum.Category, priority *enum.Priority) (*models.PolicyTemplate, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "policyTemplateRepository.FindBest")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagHOA(span, hoaID)
	span.SetTag("category", category.String())

	query := r.db.WithContext(ctx).Where("hoa_id = ? AND category = ?", hoaID, category)
	if priority != nil {
		span.SetTag("priority", priority.String())
		query = query.Where("priority = ?", *priority)
	}

	var template models.PolicyTemplate
	err := query.
		Order("is_default DESC").
		Order("updated_at DESC").
		First(&template).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &template, nil
}
