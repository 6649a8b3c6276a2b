package repository

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/enum"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/tracing"
	"github.com/hoadesk/inbox/internal/utils"
)

type gmailAccountRepository struct {
	db *gorm.DB
}

func NewGmailAccountRepository(db *gorm.DB) interfaces.GmailAccountRepository {
	return &gmailAccountRepository{db: db}
}

func (r *gmailAccountRepository) GetByHOA(ctx context.Context, hoaID string) (*models.GmailAccount, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "gmailAccountRepository.GetByHOA")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagHOA(span, hoaID)

	var account models.GmailAccount
	err := r.db.WithContext(ctx).Where("hoa_id = ?", hoaID).First(&account).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &account, nil
}

// ListConnected returns accounts that hold at least one token.
func (r *gmailAccountRepository) ListConnected(ctx context.Context) ([]*models.GmailAccount, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "gmailAccountRepository.ListConnected")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var accounts []*models.GmailAccount
	err := r.db.WithContext(ctx).
		Where("refresh_token <> '' OR access_token <> ''").
		Order("created_at ASC").
		Find(&accounts).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.SetTag("count", len(accounts))
	return accounts, nil
}

// Upsert stores the account keyed by HOA. An empty refresh token keeps the
// previously stored one, since Google only returns it on first consent.
func (r *gmailAccountRepository) Upsert(ctx context.Context, account *models.GmailAccount) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "gmailAccountRepository.Upsert")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if account == nil || account.HOAID == "" {
		tracing.TraceErr(span, ErrInvalidInput)
		return ErrInvalidInput
	}
	tracing.TagHOA(span, account.HOAID)

	var existing models.GmailAccount
	err := r.db.WithContext(ctx).Where("hoa_id = ?", account.HOAID).First(&existing).Error
	if err != nil && !isNotFound(err) {
		tracing.TraceErr(span, err)
		return err
	}

	if isNotFound(err) {
		if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
			tracing.TraceErr(span, err)
			return err
		}
		return nil
	}

	account.ID = existing.ID
	account.CreatedAt = existing.CreatedAt
	if account.RefreshToken == "" {
		account.RefreshToken = existing.RefreshToken
	}
	account.LastPolledAt = existing.LastPolledAt
	account.LastPollStatus = existing.LastPollStatus
	account.LastPollError = existing.LastPollError

	if err := r.db.WithContext(ctx).Save(account).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *gmailAccountRepository) UpdateAccessToken(ctx context.Context, id, accessToken string, expiry *time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "gmailAccountRepository.UpdateAccessToken")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	err := r.db.WithContext(ctx).Model(&models.GmailAccount{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_token": accessToken,
			"expiry_date":  expiry,
			"updated_at":   utils.Now(),
		}).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *gmailAccountRepository) UpdatePollStatus(ctx context.Context, id string, status enum.PollStatus, pollErr string, polledAt time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "gmailAccountRepository.UpdatePollStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)
	span.SetTag("status", status.String())

	err := r.db.WithContext(ctx).Model(&models.GmailAccount{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_polled_at":   polledAt,
			"last_poll_status": status,
			"last_poll_error":  pollErr,
			"updated_at":       utils.Now(),
		}).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
