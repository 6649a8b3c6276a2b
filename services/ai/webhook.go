package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/hoadesk/inbox/config"
	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/interfaces"
	inboxerrors "github.com/hoadesk/inbox/internal/errors"
	"github.com/hoadesk/inbox/internal/logger"
	"github.com/hoadesk/inbox/internal/metrics"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/tracing"
)

const maxWebhookResponseBytes = 1 << 20

type webhookClient struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker
}

// NewWebhookClient calls the n8n reply-drafting workflow. Consecutive failures
// trip a breaker so a dead webhook fails fast for the rest of a poll batch.
func NewWebhookClient(cfg *config.WebhookConfig, log logger.Logger) interfaces.WebhookClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &webhookClient{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "n8n-webhook",
			MaxRequests: 1,
			Interval:    5 * time.Minute,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warnf("circuit breaker %s changed from %s to %s", name, from.String(), to.String())
			},
		}),
	}
}

func (c *webhookClient) DraftReply(ctx context.Context, request *dto.WebhookRequest) (*dto.WebhookResponse, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "WebhookClient.DraftReply")
	defer span.Finish()
	tracing.TagComponentExternalClient(span)
	tracing.TagHOA(span, request.HOA.ID)
	span.SetTag("gmail_message_id", request.Email.MessageID)

	if c.url == "" {
		tracing.TraceErr(span, inboxerrors.ErrWebhookNotConfigured)
		return nil, inboxerrors.ErrWebhookNotConfigured
	}

	start := time.Now()
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.post(ctx, span, request)
	})
	metrics.WebhookDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.WebhookCallsTotal.WithLabelValues("error").Inc()
		tracing.TraceErr(span, err)
		return nil, err
	}

	metrics.WebhookCallsTotal.WithLabelValues("ok").Inc()
	return result.(*dto.WebhookResponse), nil
}

func (c *webhookClient) post(ctx context.Context, span opentracing.Span, request *dto.WebhookRequest) (*dto.WebhookResponse, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectSpanContextIntoHTTPRequest(req, span)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "webhook request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookResponseBytes))
	if err != nil {
		return nil, errors.Wrap(err, "unable to read webhook response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook failed with status code %d: %s", resp.StatusCode, truncateBody(body))
	}

	var response dto.WebhookResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal webhook response")
	}
	if strings.TrimSpace(response.ReplyText) == "" {
		return nil, inboxerrors.ErrWebhookEmptyReply
	}
	return &response, nil
}

func truncateBody(body []byte) string {
	const max = 500
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// NewWebhookRequest builds the payload for an incoming message.
func NewWebhookRequest(hoa *models.HOA, thread *models.EmailThread, message *models.EmailMessage) *dto.WebhookRequest {
	body := message.BodyText
	if body == "" {
		body = message.Snippet
	}
	receivedAt := ""
	if message.ReceivedAt != nil {
		receivedAt = message.ReceivedAt.UTC().Format(time.RFC3339)
	}
	return &dto.WebhookRequest{
		HOA: dto.WebhookHOA{ID: hoa.ID, Name: hoa.Name},
		Email: dto.WebhookEmail{
			MessageID:  message.GmailMessageID,
			ThreadID:   thread.GmailThreadID,
			From:       message.FromAddress,
			To:         message.ToAddress,
			Subject:    message.Subject,
			Body:       body,
			ReceivedAt: receivedAt,
		},
	}
}
