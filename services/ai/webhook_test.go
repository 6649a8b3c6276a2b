package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoadesk/inbox/config"
	"github.com/hoadesk/inbox/dto"
	inboxerrors "github.com/hoadesk/inbox/internal/errors"
	"github.com/hoadesk/inbox/internal/logger"
	"github.com/hoadesk/inbox/internal/models"
)

func testRequest() *dto.WebhookRequest {
	return &dto.WebhookRequest{
		HOA: dto.WebhookHOA{ID: "hoa_1", Name: "Oak Ridge"},
		Email: dto.WebhookEmail{
			MessageID:  "gm-1",
			ThreadID:   "gt-1",
			From:       "jane@example.com",
			To:         "board@oakhoa.org",
			Subject:    "Leak",
			Body:       "Water is leaking",
			ReceivedAt: "2026-01-01T00:00:00Z",
		},
	}
}

func TestWebhookClient_DraftReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Oak Ridge", body["hoa"]["name"])
		assert.Equal(t, "gm-1", body["email"]["messageId"])
		assert.Equal(t, "gt-1", body["email"]["threadId"])
		assert.Equal(t, "2026-01-01T00:00:00Z", body["email"]["receivedAt"])

		_, _ = w.Write([]byte(`{"replyText":"On it","send":true,"classification":"MAINTENANCE","priority":"HIGH"}`))
	}))
	defer srv.Close()

	client := NewWebhookClient(&config.WebhookConfig{URL: srv.URL}, logger.NewNopLogger())
	resp, err := client.DraftReply(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "On it", resp.ReplyText)
	assert.True(t, resp.Send)
	assert.Equal(t, "MAINTENANCE", resp.Classification)
	assert.Equal(t, "HIGH", resp.Priority)
}

func TestWebhookClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "non 2xx", status: http.StatusBadGateway, body: `{"replyText":"x"}`},
		{name: "missing reply text", status: http.StatusOK, body: `{"send":true}`, wantErr: inboxerrors.ErrWebhookEmptyReply},
		{name: "invalid json", status: http.StatusOK, body: `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewWebhookClient(&config.WebhookConfig{URL: srv.URL}, logger.NewNopLogger())
			_, err := client.DraftReply(context.Background(), testRequest())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestWebhookClient_NotConfigured(t *testing.T) {
	client := NewWebhookClient(&config.WebhookConfig{}, logger.NewNopLogger())
	_, err := client.DraftReply(context.Background(), testRequest())
	assert.ErrorIs(t, err, inboxerrors.ErrWebhookNotConfigured)
}

func TestWebhookClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"replyText":"late"}`))
	}))
	defer srv.Close()

	client := NewWebhookClient(&config.WebhookConfig{URL: srv.URL, Timeout: 50 * time.Millisecond}, logger.NewNopLogger())
	_, err := client.DraftReply(context.Background(), testRequest())
	assert.Error(t, err)
}

func TestWebhookClient_BreakerOpensAfterFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewWebhookClient(&config.WebhookConfig{URL: srv.URL}, logger.NewNopLogger())
	for i := 0; i < 5; i++ {
		_, err := client.DraftReply(context.Background(), testRequest())
		require.Error(t, err)
	}

	_, err := client.DraftReply(context.Background(), testRequest())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestNewWebhookRequest(t *testing.T) {
	received := time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("EST", -5*3600))
	req := NewWebhookRequest(
		&models.HOA{ID: "hoa_1", Name: "Oak Ridge"},
		&models.EmailThread{GmailThreadID: "gt-1"},
		&models.EmailMessage{
			GmailMessageID: "m1",
			FromAddress:    "jane@example.com",
			ToAddress:      "board@oakhoa.org",
			Subject:        "Leak",
			Snippet:        "Water everywhere",
			ReceivedAt:     &received,
		},
	)

	assert.Equal(t, "hoa_1", req.HOA.ID)
	assert.Equal(t, "gt-1", req.Email.ThreadID)
	assert.Equal(t, "m1", req.Email.MessageID)
	assert.Equal(t, "Water everywhere", req.Email.Body)
	assert.Equal(t, "2024-03-01T14:30:00Z", req.Email.ReceivedAt)
}
