package gmail

import (
	"context"
	"encoding/base64"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/internal/tracing"
)

const (
	userID       = "me"
	listPageSize = 50
)

type mailbox struct {
	service *gmailapi.Service
}

func (m *mailbox) GetProfile(ctx context.Context) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GmailMailbox.GetProfile")
	defer span.Finish()
	tracing.TagComponentExternalClient(span)

	profile, err := m.service.Users.GetProfile(userID).Context(ctx).Do()
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "failed to get gmail profile")
	}
	return profile.EmailAddress, nil
}

// ListMessageIDs follows every page of the query.
func (m *mailbox) ListMessageIDs(ctx context.Context, query string) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GmailMailbox.ListMessageIDs")
	defer span.Finish()
	tracing.TagComponentExternalClient(span)
	span.SetTag("query", query)

	var ids []string
	pageToken := ""
	for {
		req := m.service.Users.Messages.List(userID).Q(query).MaxResults(listPageSize)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		resp, err := req.Context(ctx).Do()
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, errors.Wrap(err, "failed to list gmail messages")
		}
		for _, msg := range resp.Messages {
			ids = append(ids, msg.Id)
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	span.SetTag("count", len(ids))
	return ids, nil
}

func (m *mailbox) GetMessage(ctx context.Context, id string) (*dto.GmailMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GmailMailbox.GetMessage")
	defer span.Finish()
	tracing.TagComponentExternalClient(span)
	span.SetTag("gmail_message_id", id)

	msg, err := m.service.Users.Messages.Get(userID, id).Format("full").Context(ctx).Do()
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "failed to get gmail message %s", id)
	}
	return NormalizeMessage(msg), nil
}

func (m *mailbox) SendMessage(ctx context.Context, email *dto.OutgoingEmail) (*dto.SentMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GmailMailbox.SendMessage")
	defer span.Finish()
	tracing.TagComponentExternalClient(span)
	span.SetTag("gmail_thread_id", email.ThreadID)

	raw, err := BuildReplyMIME(email)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	sent, err := m.service.Users.Messages.Send(userID, &gmailapi.Message{
		Raw:      base64.URLEncoding.EncodeToString(raw),
		ThreadId: email.ThreadID,
	}).Context(ctx).Do()
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to send gmail message")
	}
	return &dto.SentMessage{ID: sent.Id, ThreadID: sent.ThreadId}, nil
}

func (m *mailbox) CreateDraft(ctx context.Context, email *dto.OutgoingEmail) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GmailMailbox.CreateDraft")
	defer span.Finish()
	tracing.TagComponentExternalClient(span)

	raw, err := BuildReplyMIME(email)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	draft, err := m.service.Users.Drafts.Create(userID, &gmailapi.Draft{
		Message: &gmailapi.Message{
			Raw:      base64.URLEncoding.EncodeToString(raw),
			ThreadId: email.ThreadID,
		},
	}).Context(ctx).Do()
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "failed to create gmail draft")
	}
	return draft.Id, nil
}
