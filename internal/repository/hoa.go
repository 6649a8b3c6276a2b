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

type hoaRepository struct {
	db *gorm.DB
}

func NewHOARepository(db *gorm.DB) interfaces.HOARepository {
	return &hoaRepository{db: db}
}

func (r *hoaRepository) Create(ctx context.Context, hoa *models.HOA) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "hoaRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if hoa == nil || hoa.OwnerID == "" || hoa.Name == "" {
		tracing.TraceErr(span, ErrInvalidInput)
		return ErrInvalidInput
	}

	err := r.db.WithContext(ctx).Create(hoa).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	tracing.TagHOA(span, hoa.ID)
	return nil
}

func (r *hoaRepository) GetByID(ctx context.Context, id string) (*models.HOA, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "hoaRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagHOA(span, id)

	var hoa models.HOA
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&hoa).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &hoa, nil
}

func (r *hoaRepository) GetForOwner(ctx context.Context, ownerID, id string) (*models.HOA, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "hoaRepository.GetForOwner")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagHOA(span, id)
	span.SetTag(tracing.SpanTagUserId, ownerID)

	var hoa models.HOA
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&hoa).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &hoa, nil
}

func (r *hoaRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.HOA, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "hoaRepository.ListByOwner")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag(tracing.SpanTagUserId, ownerID)

	var hoas []*models.HOA
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("name ASC").Find(&hoas).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.SetTag("count", len(hoas))
	return hoas, nil
}

type residentRepository struct {
	db *gorm.DB
}

func NewResidentRepository(db *gorm.DB) interfaces.ResidentRepository {
	return &residentRepository{db: db}
}

func (r *residentRepository) Create(ctx context.Context, resident *models.Resident) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "residentRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if resident == nil || resident.HOAID == "" {
		tracing.TraceErr(span, ErrInvalidInput)
		return ErrInvalidInput
	}
	resident.Email = utils.ExtractAddress(resident.Email)

	err := r.db.WithContext(ctx).Create(resident).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *residentRepository) GetByID(ctx context.Context, id string) (*models.Resident, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "residentRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	var resident models.Resident
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&resident).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &resident, nil
}

func (r *residentRepository) GetByEmail(ctx context.Context, hoaID, email string) (*models.Resident, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "residentRepository.GetByEmail")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagHOA(span, hoaID)

	address := utils.ExtractAddress(email)
	if address == "" {
		return nil, nil
	}

	var resident models.Resident
	err := r.db.WithContext(ctx).Where("hoa_id = ? AND email = ?", hoaID, address).First(&resident).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &resident, nil
}

func (r *residentRepository) ListByHOA(ctx context.Context, hoaID string) ([]*models.Resident, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "residentRepository.ListByHOA")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagHOA(span, hoaID)

	var residents []*models.Resident
	err := r.db.WithContext(ctx).Where("hoa_id = ?", hoaID).Order("name ASC").Find(&residents).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return residents, nil
}
