package pipeline

import (
	"context"
	"regexp"
	"strings"

	"github.com/opentracing/opentracing-go"

	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/enum"
	"github.com/hoadesk/inbox/internal/logger"
	"github.com/hoadesk/inbox/internal/tracing"
)

const (
	MissingUnitNumber       = "unit_number"
	MissingBillingReference = "billing_reference"
)

type keywordRule[T any] struct {
	value T
	words []string
}

func keywords[T any](value T, words ...string) keywordRule[T] {
	return keywordRule[T]{value: value, words: words}
}

// matches reports a substring hit, so inflections ("leaking", "attorneys") count.
func (r keywordRule[T]) matches(text string) bool {
	for _, w := range r.words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Evaluated in order; the first hit wins.
var categoryRules = []keywordRule[enum.Category]{
	keywords(enum.CategoryLegal, "lawsuit", "attorney", "lawyer", "legal", "sue", "litigation", "counsel"),
	keywords(enum.CategoryBoard, "board", "meeting", "vote", "election", "minutes"),
	keywords(enum.CategoryViolation, "violation", "fine", "complaint", "noise", "parking", "pet"),
	keywords(enum.CategoryMaintenance, "leak", "repair", "broken", "maintenance", "mold", "pest", "elevator", "plumbing"),
	keywords(enum.CategoryBilling, "invoice", "payment", "dues", "billing", "charge", "balance", "fee", "assessment"),
	keywords(enum.CategorySpam, "unsubscribe", "lottery", "winner", "crypto", "viagra", "click here"),
}

var priorityRules = []keywordRule[enum.Priority]{
	keywords(enum.PriorityUrgent, "emergency", "flood", "fire", "gas leak", "urgent", "immediately"),
	keywords(enum.PriorityHigh, "asap", "soon as possible", "important", "deadline"),
	keywords(enum.PriorityLow, "fyi", "no rush", "whenever"),
}

var (
	unitNumberRegex       = regexp.MustCompile(`(?:\b(?:unit|apt|apartment|suite)\b\.?|#)\s*#?\s*[a-z0-9-]+`)
	billingReferenceRegex = regexp.MustCompile(`\$\s?\d|\b(?:invoice|payment|amount|account)`)
	legalRiskRegex        = regexp.MustCompile(`liab|legal|counsel|attorney`)
)

type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

func (c *RuleClassifier) Classify(ctx context.Context, subject, body string) (*dto.Classification, error) {
	return ClassifyText(subject, body), nil
}

// ClassifyText runs the keyword rules over subject and body.
func ClassifyText(subject, body string) *dto.Classification {
	text := strings.ToLower(subject + "\n" + body)

	result := &dto.Classification{
		Category:    enum.CategoryGeneral,
		Priority:    enum.PriorityNormal,
		MissingInfo: []string{},
	}
	for _, rule := range categoryRules {
		if rule.matches(text) {
			result.Category = rule.value
			break
		}
	}
	for _, rule := range priorityRules {
		if rule.matches(text) {
			result.Priority = rule.value
			break
		}
	}

	if !unitNumberRegex.MatchString(text) {
		result.MissingInfo = append(result.MissingInfo, MissingUnitNumber)
	}
	if result.Category == enum.CategoryBilling && !billingReferenceRegex.MatchString(text) {
		result.MissingInfo = append(result.MissingInfo, MissingBillingReference)
	}

	result.HasLegalRisk = result.Category == enum.CategoryLegal || legalRiskRegex.MatchString(text)
	return result
}

// LLMClassifier asks the model first and falls back to the rules on any error.
type LLMClassifier struct {
	ai       interfaces.AIService
	fallback interfaces.Classifier
	log      logger.Logger
}

func NewLLMClassifier(ai interfaces.AIService, fallback interfaces.Classifier, log logger.Logger) *LLMClassifier {
	return &LLMClassifier{ai: ai, fallback: fallback, log: log}
}

func (c *LLMClassifier) Classify(ctx context.Context, subject, body string) (*dto.Classification, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "LLMClassifier.Classify")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	result, err := c.ai.Classify(ctx, subject, body)
	if err == nil {
		return result, nil
	}

	tracing.TraceErr(span, err)
	c.log.Warnf("llm classification failed, using rules: %v", err)
	span.LogKV("fallback", "rules")
	return c.fallback.Classify(ctx, subject, body)
}
