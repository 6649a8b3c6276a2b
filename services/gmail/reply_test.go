package gmail

import (
	"bytes"
	"testing"

	"github.com/jhillyerd/enmime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/internal/models"
)

func TestBuildReplyMIME_Threading(t *testing.T) {
	raw, err := BuildReplyMIME(&dto.OutgoingEmail{
		FromName:    "Oak Ridge HOA",
		FromAddress: "board@oakhoa.org",
		To:          `"Jane Doe" <jane@example.com>`,
		Subject:     "Leak in unit 4B",
		Body:        "We are on it.",
		ThreadID:    "gt-1",
		InReplyTo:   "abc@mail.gmail.com",
		References:  "<root@mail.gmail.com>",
	})
	require.NoError(t, err)

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "Re: Leak in unit 4B", env.GetHeader("Subject"))
	assert.Equal(t, "<abc@mail.gmail.com>", env.GetHeader("In-Reply-To"))
	assert.Equal(t, "<root@mail.gmail.com> <abc@mail.gmail.com>", env.GetHeader("References"))
	assert.Contains(t, env.GetHeader("To"), "jane@example.com")
	assert.Contains(t, env.Text, "We are on it.")
}

func TestBuildReplyMIME_RequiresAddresses(t *testing.T) {
	_, err := BuildReplyMIME(&dto.OutgoingEmail{FromAddress: "board@oakhoa.org", Body: "x"})
	assert.Error(t, err)

	_, err = BuildReplyMIME(&dto.OutgoingEmail{To: "jane@example.com", Body: "x"})
	assert.Error(t, err)
}

func TestReferences(t *testing.T) {
	assert.Equal(t, "<a@x>", References("", "<a@x>"))
	assert.Equal(t, "<r@x> <a@x>", References("<r@x>", "<a@x>"))
	assert.Equal(t, "<r@x> <a@x>", References("<r@x> <a@x>", "<a@x>"))
}

func TestNewReply(t *testing.T) {
	original := &models.EmailMessage{
		Subject: "Leak",
		Headers: models.JSONMap{
			models.HeaderMessageID:  "<abc@mail.gmail.com>",
			models.HeaderReferences: "<root@mail.gmail.com>",
		},
	}

	reply := NewReply(original, "gt-1", "Oak Ridge", "board@oakhoa.org", "jane@example.com", "On it")
	assert.Equal(t, "gt-1", reply.ThreadID)
	assert.Equal(t, "<abc@mail.gmail.com>", reply.InReplyTo)
	assert.Equal(t, "<root@mail.gmail.com>", reply.References)
	assert.Equal(t, "board@oakhoa.org", reply.FromAddress)
	assert.Equal(t, "jane@example.com", reply.To)
}
