package joblock

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/logger"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/tracing"
	"github.com/hoadesk/inbox/internal/utils"
)

// dbLock is a lease stored in the job_locks table. It has no fencing token:
// a run that outlives its TTL can overlap with the next holder.
type dbLock struct {
	db  *gorm.DB
	log logger.Logger
	now func() time.Time
}

func NewDBJobLock(db *gorm.DB, log logger.Logger) interfaces.JobLock {
	return &dbLock{db: db, log: log, now: utils.Now}
}

func (l *dbLock) Acquire(ctx context.Context, jobName string, ttl time.Duration) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "JobLock.Acquire")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("job", jobName)

	acquired := false
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := l.now()

		var current models.JobLock
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", jobName).
			Take(&current).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && current.LockedUntil.After(now) {
			return nil
		}

		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"locked_until", "updated_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "job_locks.locked_until <= ?", Vars: []interface{}{now}},
			}},
		}).Create(&models.JobLock{
			Name:        jobName,
			LockedUntil: now.Add(ttl),
			UpdatedAt:   now,
		})
		if result.Error != nil {
			return result.Error
		}
		acquired = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return false, errors.Wrap(err, "failed to acquire job lock")
	}

	span.SetTag("acquired", acquired)
	return acquired, nil
}

// Release ends the lease. Failures are only logged; the lease then expires on its own.
func (l *dbLock) Release(ctx context.Context, jobName string) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "JobLock.Release")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("job", jobName)

	err := l.db.WithContext(ctx).Model(&models.JobLock{}).
		Where("name = ?", jobName).
		Updates(map[string]interface{}{
			"locked_until": utils.Epoch(),
			"updated_at":   l.now(),
		}).Error
	if err != nil {
		tracing.TraceErr(span, err)
		l.log.Errorf("failed to release job lock %s: %v", jobName, err)
	}
}
