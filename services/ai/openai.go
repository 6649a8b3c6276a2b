package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/hoadesk/inbox/config"
	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/interfaces"
	"github.com/hoadesk/inbox/internal/enum"
	inboxerrors "github.com/hoadesk/inbox/internal/errors"
	"github.com/hoadesk/inbox/internal/tracing"
	"github.com/hoadesk/inbox/internal/utils"
)

const (
	maxPromptBodyRunes = 6000

	classifySystemPrompt = `You triage resident emails for a homeowners association manager.
Return a JSON object with keys:
"category": one of LEGAL, BOARD, VIOLATION, MAINTENANCE, BILLING, SPAM, GENERAL;
"priority": one of URGENT, HIGH, NORMAL, LOW;
"missingInfo": array of strings naming details the manager needs before acting, using "unit_number" and "billing_reference" where applicable;
"hasLegalRisk": boolean, true when the email mentions liability, lawyers or legal action;
"summary": one sentence.`

	draftSystemPrompt = `You write short, polite replies on behalf of a homeowners association manager.
Never promise outcomes, refunds or timelines that are not given. Do not give legal advice.
Reply in plain text with no subject line.`
)

type openAIService struct {
	client *openai.Client
	model  string
}

func NewOpenAIService(cfg *config.OpenAIConfig) interfaces.AIService {
	clientConfig := openai.DefaultConfig(cfg.ApiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	var client *openai.Client
	if cfg.ApiKey != "" {
		client = openai.NewClientWithConfig(clientConfig)
	}
	return &openAIService{client: client, model: model}
}

func (s *openAIService) SmokeTest(ctx context.Context) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OpenAIService.SmokeTest")
	defer span.Finish()
	tracing.TagComponentExternalClient(span)

	out, err := s.complete(ctx, "You are a health check.", "Reply with the single word: ok", false)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	return out, nil
}

func (s *openAIService) DraftReply(ctx context.Context, request *dto.DraftReplyRequest) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OpenAIService.DraftReply")
	defer span.Finish()
	tracing.TagComponentExternalClient(span)
	span.SetTag("category", request.Category.String())

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "HOA: %s\n", request.HOAName)
	if request.ResidentName != "" {
		fmt.Fprintf(&prompt, "Resident: %s\n", request.ResidentName)
	}
	fmt.Fprintf(&prompt, "Category: %s\nPriority: %s\n", request.Category, request.Priority)
	if len(request.MissingInfo) > 0 {
		fmt.Fprintf(&prompt, "Ask the resident for: %s\n", strings.Join(request.MissingInfo, ", "))
	}
	if request.Signature != "" {
		fmt.Fprintf(&prompt, "Sign off with:\n%s\n", request.Signature)
	}
	fmt.Fprintf(&prompt, "\nSubject: %s\n\n%s", request.Subject, utils.Truncate(request.Body, maxPromptBodyRunes))

	out, err := s.complete(ctx, draftSystemPrompt, prompt.String(), false)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	return out, nil
}

func (s *openAIService) Classify(ctx context.Context, subject, body string) (*dto.Classification, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OpenAIService.Classify")
	defer span.Finish()
	tracing.TagComponentExternalClient(span)

	out, err := s.complete(ctx, classifySystemPrompt, "Subject: "+subject+"\n\n"+utils.Truncate(body, maxPromptBodyRunes), true)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	var classification dto.Classification
	if err := json.Unmarshal([]byte(out), &classification); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to parse classification")
	}
	if !classification.Category.IsValid() || !classification.Priority.IsValid() {
		err := errors.Errorf("classification has invalid category %q or priority %q", classification.Category, classification.Priority)
		tracing.TraceErr(span, err)
		return nil, err
	}
	if classification.Category == enum.CategoryLegal {
		classification.HasLegalRisk = true
	}
	if classification.MissingInfo == nil {
		classification.MissingInfo = []string{}
	}
	return &classification, nil
}

func (s *openAIService) complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	if s.client == nil {
		return "", inboxerrors.ErrOpenAINotConfigured
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.2,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "openai completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
