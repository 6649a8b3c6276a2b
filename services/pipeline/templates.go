package pipeline

import (
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/hoadesk/inbox/internal/enum"
)

const (
	TokenResidentName = "resident_name"
	TokenHOAName      = "hoa_name"
	TokenSubject      = "subject"
	TokenCategory     = "category"
	TokenPriority     = "priority"
	TokenSLADue       = "sla_due"
	TokenMissingInfo  = "missing_info"
	TokenUnit         = "unit"
	TokenSignature    = "signature"
	TokenManagerName  = "manager_name"
)

var tokenRegex = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// Render substitutes {{token}} placeholders. Tokens missing from values are
// left as written.
func Render(body string, values map[string]string) string {
	return tokenRegex.ReplaceAllStringFunc(body, func(match string) string {
		name := tokenRegex.FindStringSubmatch(match)[1]
		if v, ok := values[name]; ok {
			return v
		}
		return match
	})
}

const needsInfoTemplate = `Hello {{resident_name}},

Thank you for contacting {{hoa_name}} about "{{subject}}". Before we can look into this, could you please send us {{missing_info}}?

Best regards,
{{signature}}`

var builtinTemplates = map[enum.Category]string{
	enum.CategoryLegal: `Hello {{resident_name}},

We have received your message regarding "{{subject}}". It has been forwarded to the board and our counsel for review, and we will follow up by {{sla_due}}.

Regards,
{{signature}}`,
	enum.CategoryBoard: `Hello {{resident_name}},

Thank you for your message about "{{subject}}". The board will review it and respond by {{sla_due}}.

Regards,
{{signature}}`,
	enum.CategoryViolation: `Hello {{resident_name}},

Thank you for reporting "{{subject}}" for unit {{unit}}. We have logged the complaint and will review it against the community rules. You can expect an update by {{sla_due}}.

Regards,
{{signature}}`,
	enum.CategoryMaintenance: `Hello {{resident_name}},

Thanks for letting us know about "{{subject}}" at unit {{unit}}. A maintenance request has been opened with {{priority}} priority and we will be in touch by {{sla_due}}.

Regards,
{{signature}}`,
	enum.CategoryBilling: `Hello {{resident_name}},

Thank you for your billing question about "{{subject}}". Our accounts team is reviewing your records and will reply by {{sla_due}}.

Regards,
{{signature}}`,
	enum.CategoryGeneral: `Hello {{resident_name}},

Thank you for contacting {{hoa_name}}. We have received your message about "{{subject}}" and will respond by {{sla_due}}.

Regards,
{{signature}}`,
}

// BuiltinTemplate returns the in-code template for the category, falling back
// to the needs-info template.
func BuiltinTemplate(category enum.Category) string {
	if body, ok := builtinTemplates[category]; ok {
		return body
	}
	return needsInfoTemplate
}

var missingInfoLabels = map[string]string{
	MissingUnitNumber:       "your unit number",
	MissingBillingReference: "the invoice number or amount in question",
}

// DescribeMissingInfo turns missing-info codes into a readable phrase.
func DescribeMissingInfo(items []string) string {
	labels := make([]string, 0, len(items))
	for _, item := range items {
		if label, ok := missingInfoLabels[item]; ok {
			labels = append(labels, label)
		} else {
			labels = append(labels, strings.ReplaceAll(item, "_", " "))
		}
	}
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	default:
		return strings.Join(labels[:len(labels)-1], ", ") + " and " + labels[len(labels)-1]
	}
}

// FormatSLA renders the deadline in the HOA's timezone, UTC when unknown.
func FormatSLA(due *time.Time, timezone string) string {
	if due == nil {
		return ""
	}
	loc := time.UTC
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}
	return due.In(loc).Format("Mon, Jan 2 at 3:04 PM MST")
}
