package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hoadesk/inbox/internal/enum"
)

func TestRender(t *testing.T) {
	out := Render("Hi {{resident_name}}, {{ hoa_name }} here. {{unknown_token}} {{hoa_name}}", map[string]string{
		TokenResidentName: "Jane",
		TokenHOAName:      "Oak Ridge",
	})
	assert.Equal(t, "Hi Jane, Oak Ridge here. {{unknown_token}} Oak Ridge", out)
}

func TestRender_LeavesMalformedPlaceholders(t *testing.T) {
	assert.Equal(t, "{{ resident-name }} {x}", Render("{{ resident-name }} {x}", map[string]string{TokenResidentName: "Jane"}))
}

func TestBuiltinTemplate(t *testing.T) {
	assert.Contains(t, BuiltinTemplate(enum.CategoryMaintenance), "maintenance request")
	assert.Equal(t, needsInfoTemplate, BuiltinTemplate(enum.CategorySpam))
}

func TestDescribeMissingInfo(t *testing.T) {
	assert.Equal(t, "", DescribeMissingInfo(nil))
	assert.Equal(t, "your unit number", DescribeMissingInfo([]string{MissingUnitNumber}))
	assert.Equal(t, "your unit number and the invoice number or amount in question",
		DescribeMissingInfo([]string{MissingUnitNumber, MissingBillingReference}))
	assert.Equal(t, "your unit number, move in date and parking spot",
		DescribeMissingInfo([]string{MissingUnitNumber, "move_in_date", "parking_spot"}))
}

func TestFormatSLA(t *testing.T) {
	due := time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC)

	assert.Equal(t, "", FormatSLA(nil, "UTC"))
	assert.Equal(t, "Mon, Mar 4 at 5:00 PM UTC", FormatSLA(&due, ""))
	assert.Equal(t, "Mon, Mar 4 at 5:00 PM UTC", FormatSLA(&due, "Not/AZone"))
	assert.Equal(t, "Mon, Mar 4 at 12:00 PM EST", FormatSLA(&due, "America/New_York"))
}
