package gmail

import (
	"bytes"
	"strings"

	"github.com/jhillyerd/enmime"
	"github.com/pkg/errors"

	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/utils"
)

// BuildReplyMIME renders an RFC 5322 message threaded onto the original via
// In-Reply-To and References.
func BuildReplyMIME(email *dto.OutgoingEmail) ([]byte, error) {
	if email == nil {
		return nil, errors.New("email cannot be nil")
	}
	to := utils.ExtractAddress(email.To)
	if to == "" {
		return nil, errors.New("reply has no recipient")
	}
	if email.FromAddress == "" {
		return nil, errors.New("reply has no sender")
	}

	builder := enmime.Builder().
		From(email.FromName, email.FromAddress).
		To(utils.ExtractDisplayName(email.To), to).
		Subject(utils.ReplySubject(email.Subject)).
		Date(utils.Now()).
		Text([]byte(email.Body))

	if email.InReplyTo != "" {
		inReplyTo := "<" + utils.NormalizeMessageID(email.InReplyTo) + ">"
		builder = builder.Header("In-Reply-To", inReplyTo)
		builder = builder.Header("References", References(email.References, inReplyTo))
	}

	part, err := builder.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build reply")
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return nil, errors.Wrap(err, "failed to encode reply")
	}
	return buf.Bytes(), nil
}

// References appends messageID to an existing References header unless already present.
func References(existing, messageID string) string {
	existing = strings.TrimSpace(existing)
	if existing == "" {
		return messageID
	}
	if utils.IsStringInSlice(messageID, strings.Fields(existing)) {
		return existing
	}
	return existing + " " + messageID
}

// NewReply addresses a reply to original inside its Gmail thread.
func NewReply(original *models.EmailMessage, gmailThreadID, fromName, fromAddress, to, body string) *dto.OutgoingEmail {
	return &dto.OutgoingEmail{
		FromName:    fromName,
		FromAddress: fromAddress,
		To:          to,
		Subject:     original.Subject,
		Body:        body,
		ThreadID:    gmailThreadID,
		InReplyTo:   original.Headers.GetString(models.HeaderMessageID),
		References:  original.Headers.GetString(models.HeaderReferences),
	}
}
