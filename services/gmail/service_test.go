package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoadesk/inbox/config"
	"github.com/hoadesk/inbox/dto"
	inboxerrors "github.com/hoadesk/inbox/internal/errors"
)

func newFakeGmail(t *testing.T) (*httptest.Server, *[]map[string]interface{}) {
	t.Helper()
	var sent []map[string]interface{}

	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		assert.Equal(t, "label:INBOX newer_than:7d", r.URL.Query().Get("q"))
		if r.URL.Query().Get("pageToken") == "" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"messages":      []map[string]string{{"id": "m1"}, {"id": "m2"}},
				"nextPageToken": "p2",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"messages": []map[string]string{{"id": "m3"}},
		})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/m1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "full", r.URL.Query().Get("format"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       "m1",
			"threadId": "t1",
			"payload": map[string]interface{}{
				"mimeType": "text/plain",
				"headers":  []map[string]string{{"name": "Subject", "value": "Hello"}},
				"body":     map[string]string{"data": base64.URLEncoding.EncodeToString([]byte("body text"))},
			},
		})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		sent = append(sent, body)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "sent-1", "threadId": "t1"})
	})
	mux.HandleFunc("/gmail/v1/users/me/drafts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		sent = append(sent, body)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "draft-1",
			"message": map[string]string{"id": "dm-1", "threadId": "t1"},
		})
	})
	mux.HandleFunc("/gmail/v1/users/me/profile", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"emailAddress": "board@oakhoa.org"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &sent
}

func TestMailbox_ListGetSend(t *testing.T) {
	ctx := context.Background()
	srv, sent := newFakeGmail(t)

	svc := NewGmailService(&config.GoogleConfig{GmailEndpoint: srv.URL + "/"})
	mb, err := svc.Mailbox(ctx, "access-1")
	require.NoError(t, err)

	ids, err := mb.ListMessageIDs(ctx, "label:INBOX newer_than:7d")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids)

	msg, err := mb.GetMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "t1", msg.ThreadID)
	assert.Equal(t, "Hello", msg.Subject)
	assert.Equal(t, "body text", msg.BodyText)

	profile, err := mb.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "board@oakhoa.org", profile)

	out, err := mb.SendMessage(ctx, &dto.OutgoingEmail{
		FromAddress: "board@oakhoa.org",
		To:          "jane@example.com",
		Subject:     "Hello",
		Body:        "Reply",
		ThreadID:    "t1",
		InReplyTo:   "<abc@x>",
	})
	require.NoError(t, err)
	assert.Equal(t, "sent-1", out.ID)
	require.Len(t, *sent, 1)
	assert.Equal(t, "t1", (*sent)[0]["threadId"])

	raw, err := base64.URLEncoding.DecodeString((*sent)[0]["raw"].(string))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "In-Reply-To: <abc@x>")
}

func TestMailbox_CreateDraft(t *testing.T) {
	ctx := context.Background()
	srv, captured := newFakeGmail(t)

	mb, err := NewGmailService(&config.GoogleConfig{GmailEndpoint: srv.URL + "/"}).Mailbox(ctx, "access-1")
	require.NoError(t, err)

	id, err := mb.CreateDraft(ctx, &dto.OutgoingEmail{
		FromAddress: "board@oakhoa.org",
		To:          "jane@example.com",
		Subject:     "Re: Leak",
		Body:        "We are on it.",
		ThreadID:    "t1",
		InReplyTo:   "<abc@x>",
		References:  "<abc@x>",
	})
	require.NoError(t, err)
	assert.Equal(t, "draft-1", id)

	require.Len(t, *captured, 1)
	message, ok := (*captured)[0]["message"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "t1", message["threadId"])

	raw, err := base64.URLEncoding.DecodeString(message["raw"].(string))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "In-Reply-To: <abc@x>")
	assert.Contains(t, string(raw), "We are on it.")
}

func TestMailbox_CreateDraftRequiresRecipient(t *testing.T) {
	ctx := context.Background()
	srv, captured := newFakeGmail(t)

	mb, err := NewGmailService(&config.GoogleConfig{GmailEndpoint: srv.URL + "/"}).Mailbox(ctx, "access-1")
	require.NoError(t, err)

	_, err = mb.CreateDraft(ctx, &dto.OutgoingEmail{FromAddress: "board@oakhoa.org", Body: "x"})
	assert.Error(t, err)
	assert.Empty(t, *captured)
}

func TestGmailService_Refresh(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "refresh_token=good") {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"new-access","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	svc := NewGmailService(&config.GoogleConfig{ClientID: "id", ClientSecret: "secret", TokenURL: tokenSrv.URL})

	token, err := svc.Refresh(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "new-access", token.AccessToken)
	assert.False(t, token.Expiry.IsZero())

	_, err = svc.Refresh(context.Background(), "revoked")
	assert.ErrorIs(t, err, inboxerrors.ErrTokenRefresh)

	_, err = svc.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, inboxerrors.ErrNoRefreshToken)
}

func TestGmailService_AuthCodeURL(t *testing.T) {
	svc := NewGmailService(&config.GoogleConfig{ClientID: "client", RedirectURL: "http://localhost/cb"})

	url := svc.AuthCodeURL("state-1")
	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "prompt=consent")
	assert.Contains(t, url, "state=state-1")
	assert.Contains(t, url, "client_id=client")
}
