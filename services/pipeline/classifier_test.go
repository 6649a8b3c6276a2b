package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/internal/enum"
	"github.com/hoadesk/inbox/internal/logger"
	"github.com/hoadesk/inbox/internal/testutil"
)

func TestClassifyText(t *testing.T) {
	tests := []struct {
		name        string
		subject     string
		body        string
		category    enum.Category
		priority    enum.Priority
		missingInfo []string
		legalRisk   bool
	}{
		{
			name:        "maintenance with unit",
			subject:     "Leaking pipe",
			body:        "There is a leak under the sink in unit 4B, please fix asap",
			category:    enum.CategoryMaintenance,
			priority:    enum.PriorityHigh,
			missingInfo: []string{},
		},
		{
			name:        "legal outranks violation",
			subject:     "Noise complaint",
			body:        "My attorney will be in touch. Apt 2",
			category:    enum.CategoryLegal,
			priority:    enum.PriorityNormal,
			missingInfo: []string{},
			legalRisk:   true,
		},
		{
			name:        "billing without reference",
			subject:     "Question about dues",
			body:        "Why did my dues go up? I live in apt 12.",
			category:    enum.CategoryBilling,
			priority:    enum.PriorityNormal,
			missingInfo: []string{MissingBillingReference},
		},
		{
			name:        "billing with amount and no unit",
			subject:     "Late fee",
			body:        "I was charged $25 twice",
			category:    enum.CategoryBilling,
			priority:    enum.PriorityNormal,
			missingInfo: []string{MissingUnitNumber},
		},
		{
			name:        "spam still asks for a unit",
			subject:     "You are a winner",
			body:        "Click here to claim your lottery prize",
			category:    enum.CategorySpam,
			priority:    enum.PriorityNormal,
			missingInfo: []string{MissingUnitNumber},
		},
		{
			name:        "general without unit",
			subject:     "Hello",
			body:        "Just wanted to say thanks",
			category:    enum.CategoryGeneral,
			priority:    enum.PriorityNormal,
			missingInfo: []string{MissingUnitNumber},
		},
		{
			name:        "urgent maintenance",
			subject:     "Emergency: water leak",
			body:        "Water is coming through the ceiling of unit 3",
			category:    enum.CategoryMaintenance,
			priority:    enum.PriorityUrgent,
			missingInfo: []string{},
		},
		{
			name:        "keywords match inside longer words",
			subject:     "Issue with the gate",
			body:        "The gate has an issue again, #7",
			category:    enum.CategoryLegal,
			priority:    enum.PriorityNormal,
			missingInfo: []string{},
			legalRisk:   true,
		},
		{
			name:        "inflected maintenance keyword",
			body:        "My faucet is leaking in unit 4",
			category:    enum.CategoryMaintenance,
			priority:    enum.PriorityNormal,
			missingInfo: []string{},
		},
		{
			name:        "plural legal keyword",
			body:        "I have spoken to my attorneys, unit 4",
			category:    enum.CategoryLegal,
			priority:    enum.PriorityNormal,
			missingInfo: []string{},
			legalRisk:   true,
		},
		{
			name:        "plural maintenance keyword",
			body:        "Need repairs to the gate, unit 4",
			category:    enum.CategoryMaintenance,
			priority:    enum.PriorityNormal,
			missingInfo: []string{},
		},
		{
			name:        "plural billing keyword counts as reference",
			body:        "Why were my payments rejected? unit 4",
			category:    enum.CategoryBilling,
			priority:    enum.PriorityNormal,
			missingInfo: []string{},
		},
		{
			name:        "adverb priority keyword",
			subject:     "Please come urgently",
			body:        "The pipe burst in unit 2",
			category:    enum.CategoryGeneral,
			priority:    enum.PriorityUrgent,
			missingInfo: []string{},
		},
		{
			name:        "board with low priority",
			subject:     "Next board meeting",
			body:        "When is the vote? fyi I'm in unit 9",
			category:    enum.CategoryBoard,
			priority:    enum.PriorityLow,
			missingInfo: []string{},
		},
		{
			name:        "legal risk outside legal category",
			subject:     "Slippery stairs",
			body:        "Someone could get hurt and the association would be liable. Unit 5",
			category:    enum.CategoryGeneral,
			priority:    enum.PriorityNormal,
			missingInfo: []string{},
			legalRisk:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ClassifyText(tt.subject, tt.body)
			assert.Equal(t, tt.category, c.Category)
			assert.Equal(t, tt.priority, c.Priority)
			assert.Equal(t, tt.missingInfo, c.MissingInfo)
			assert.Equal(t, tt.legalRisk, c.HasLegalRisk)
		})
	}
}

func TestProperty_Classifier(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	fragments := gen.OneConstOf("", "lawsuit", "board", "noise", "leak", "invoice", "lottery",
		"urgent", "asap", "fyi", "unit 4", "$40", "liability", "hello")

	properties.Property("category and priority are always valid", prop.ForAll(
		func(a, b string, noise string) bool {
			c := ClassifyText(a+" "+noise, b)
			return c.Category.IsValid() && c.Priority.IsValid() && c.MissingInfo != nil
		},
		fragments, fragments, gen.AlphaString(),
	))

	properties.Property("inflected maintenance keywords stay maintenance", prop.ForAll(
		func(word, suffix string) bool {
			c := ClassifyText("", "The "+word+suffix+" in unit 4")
			return c.Category == enum.CategoryMaintenance && len(c.MissingInfo) == 0
		},
		gen.OneConstOf("leak", "repair", "broken", "mold", "plumbing", "elevator"),
		gen.OneConstOf("", "s", "ing", "ed"),
	))

	properties.Property("no unit token always asks for unit_number", prop.ForAll(
		func(a, b string) bool {
			c := ClassifyText(a, b)
			return len(c.MissingInfo) > 0 && c.MissingInfo[0] == MissingUnitNumber
		},
		gen.OneConstOf("", "lawsuit", "board", "noise", "leak", "invoice", "lottery", "urgent", "hello"),
		gen.OneConstOf("", "click here", "asap", "fyi", "$40", "liability", "thanks"),
	))

	properties.Property("legal category implies legal risk", prop.ForAll(
		func(a, b string) bool {
			c := ClassifyText(a, b)
			return c.Category != enum.CategoryLegal || c.HasLegalRisk
		},
		fragments, fragments,
	))

	properties.Property("billing reference is only requested for billing", prop.ForAll(
		func(a, b string) bool {
			c := ClassifyText(a, b)
			for _, item := range c.MissingInfo {
				if item == MissingBillingReference && c.Category != enum.CategoryBilling {
					return false
				}
			}
			return true
		},
		fragments, fragments,
	))

	properties.TestingRun(t)
}

func TestLLMClassifier(t *testing.T) {
	t.Run("uses model result", func(t *testing.T) {
		ai := new(testutil.MockAIService)
		expected := &dto.Classification{Category: enum.CategoryBoard, Priority: enum.PriorityLow, MissingInfo: []string{}}
		ai.On("Classify", mock.Anything, "s", "b").Return(expected, nil)

		c, err := NewLLMClassifier(ai, NewRuleClassifier(), logger.NewNopLogger()).Classify(context.Background(), "s", "b")
		require.NoError(t, err)
		assert.Equal(t, expected, c)
		ai.AssertExpectations(t)
	})

	t.Run("falls back to rules", func(t *testing.T) {
		ai := new(testutil.MockAIService)
		ai.On("Classify", mock.Anything, "Leak", "unit 2").Return(nil, errors.New("rate limited"))

		c, err := NewLLMClassifier(ai, NewRuleClassifier(), logger.NewNopLogger()).Classify(context.Background(), "Leak", "unit 2")
		require.NoError(t, err)
		assert.Equal(t, enum.CategoryMaintenance, c.Category)
	})
}
