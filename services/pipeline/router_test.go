package pipeline

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/internal/enum"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRoute_SLAByPriority(t *testing.T) {
	tests := []struct {
		priority enum.Priority
		hours    int
	}{
		{enum.PriorityUrgent, 24},
		{enum.PriorityHigh, 48},
		{enum.PriorityNormal, 72},
		{enum.PriorityLow, 120},
	}
	for _, tt := range tests {
		t.Run(tt.priority.String(), func(t *testing.T) {
			r := Route(&dto.Classification{Category: enum.CategoryMaintenance, Priority: tt.priority}, testNow)
			assert.Equal(t, enum.RequestStatusAwaitingReply, r.Status)
			require.NotNil(t, r.SLADueAt)
			assert.Equal(t, testNow.Add(time.Duration(tt.hours)*time.Hour), *r.SLADueAt)
		})
	}
}

func TestRoute_SpamCloses(t *testing.T) {
	r := Route(&dto.Classification{Category: enum.CategorySpam, Priority: enum.PriorityUrgent}, testNow)
	assert.Equal(t, enum.RequestStatusClosed, r.Status)
	assert.Nil(t, r.SLADueAt)
}

func TestProperty_MissingInfoAlwaysNeedsInfo(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	categories := gen.OneConstOf(enum.CategoryLegal, enum.CategoryBoard, enum.CategoryViolation,
		enum.CategoryMaintenance, enum.CategoryBilling, enum.CategorySpam, enum.CategoryGeneral)
	priorities := gen.OneConstOf(enum.PriorityUrgent, enum.PriorityHigh, enum.PriorityNormal, enum.PriorityLow)

	properties.Property("non-empty missing info routes to NEEDS_INFO without SLA", prop.ForAll(
		func(category enum.Category, priority enum.Priority, missing []string) bool {
			if len(missing) == 0 {
				missing = []string{MissingUnitNumber}
			}
			r := Route(&dto.Classification{Category: category, Priority: priority, MissingInfo: missing}, testNow)
			return r.Status == enum.RequestStatusNeedsInfo && r.SLADueAt == nil
		},
		categories, priorities, gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
