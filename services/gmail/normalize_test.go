package gmail

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestNormalizeMessage_PrefersPlainText(t *testing.T) {
	msg := &gmailapi.Message{
		Id:       "gm-1",
		ThreadId: "gt-1",
		Payload: &gmailapi.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "Subject", Value: "Leak in unit 4B"},
				{Name: "From", Value: `"Jane Doe" <jane@example.com>`},
				{Name: "To", Value: "board@oakhoa.org"},
				{Name: "Message-ID", Value: "<abc@mail.gmail.com>"},
				{Name: "References", Value: "<root@mail.gmail.com>"},
				{Name: "In-Reply-To", Value: "<root@mail.gmail.com>"},
				{Name: "Date", Value: "Mon, 02 Jan 2026 15:04:05 -0700"},
			},
			Parts: []*gmailapi.MessagePart{
				{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: b64("<p>HTML body</p>")}},
				{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: b64("Plain body")}},
			},
		},
	}

	out := NormalizeMessage(msg)
	assert.Equal(t, "gm-1", out.ID)
	assert.Equal(t, "gt-1", out.ThreadID)
	assert.Equal(t, "Leak in unit 4B", out.Subject)
	assert.Equal(t, `"Jane Doe" <jane@example.com>`, out.From)
	assert.Equal(t, "<abc@mail.gmail.com>", out.MessageID)
	assert.Equal(t, "<root@mail.gmail.com>", out.References)
	assert.Equal(t, "<root@mail.gmail.com>", out.InReplyTo)
	assert.Equal(t, "Plain body", out.BodyText)
	assert.Equal(t, "<p>HTML body</p>", out.BodyHTML)
	require.NotNil(t, out.Date)
	assert.Equal(t, 22, out.Date.Hour())
}

func TestNormalizeMessage_NestedHTMLFallback(t *testing.T) {
	msg := &gmailapi.Message{
		Id:           "gm-2",
		InternalDate: 1767225600000,
		Payload: &gmailapi.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmailapi.MessagePart{
				{
					MimeType: "multipart/related",
					Parts: []*gmailapi.MessagePart{
						{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: b64("<html><head><style>p{}</style></head><body><p>Hello   there</p><p>Line two<br>three</p><script>x()</script></body></html>")}},
					},
				},
				{MimeType: "application/pdf", Filename: "a.pdf", Body: &gmailapi.MessagePartBody{AttachmentId: "att"}},
			},
		},
	}

	out := NormalizeMessage(msg)
	assert.Equal(t, "Hello there\nLine two\nthree", out.BodyText)
	require.NotNil(t, out.Date)
	assert.Equal(t, int64(1767225600), out.Date.Unix())
}

func TestNormalizeMessage_SinglePartBody(t *testing.T) {
	msg := &gmailapi.Message{
		Id: "gm-3",
		Payload: &gmailapi.MessagePart{
			MimeType: "text/plain",
			Body:     &gmailapi.MessagePartBody{Data: b64("single part")},
		},
	}
	assert.Equal(t, "single part", NormalizeMessage(msg).BodyText)
}

func TestDecodeBase64URL(t *testing.T) {
	padded := base64.URLEncoding.EncodeToString([]byte("hi?>"))
	raw := base64.RawURLEncoding.EncodeToString([]byte("hi?>"))

	assert.Equal(t, "hi?>", DecodeBase64URL(padded))
	assert.Equal(t, "hi?>", DecodeBase64URL(raw))
	assert.Equal(t, "", DecodeBase64URL("!!!"))
}
