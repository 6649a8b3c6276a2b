package gmail

import (
	"encoding/base64"
	"net/mail"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/internal/utils"
)

// NormalizeMessage flattens a full-format Gmail message into headers and a
// single text body. text/plain wins over text/html anywhere in the tree.
func NormalizeMessage(msg *gmailapi.Message) *dto.GmailMessage {
	out := &dto.GmailMessage{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		LabelIDs: msg.LabelIds,
	}

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch strings.ToLower(header.Name) {
			case "subject":
				out.Subject = header.Value
			case "from":
				out.From = header.Value
			case "to":
				out.To = header.Value
			case "message-id":
				out.MessageID = header.Value
			case "references":
				out.References = header.Value
			case "in-reply-to":
				out.InReplyTo = header.Value
			case "date":
				if t, err := mail.ParseDate(header.Value); err == nil {
					out.Date = utils.TimePtr(t.UTC())
				}
			}
		}

		text, html := walkParts(msg.Payload)
		out.BodyHTML = html
		switch {
		case strings.TrimSpace(text) != "":
			out.BodyText = text
		case html != "":
			out.BodyText = HTMLToText(html)
		}
	}

	if out.Date == nil && msg.InternalDate > 0 {
		out.Date = utils.TimePtr(time.UnixMilli(msg.InternalDate).UTC())
	}
	return out
}

// walkParts returns the first text/plain and first text/html bodies, depth first.
func walkParts(part *gmailapi.MessagePart) (text, html string) {
	if part == nil {
		return "", ""
	}

	mimeType := strings.ToLower(part.MimeType)
	if part.Body != nil && part.Body.Data != "" && part.Filename == "" {
		switch {
		case strings.HasPrefix(mimeType, "text/plain"):
			text = DecodeBase64URL(part.Body.Data)
		case strings.HasPrefix(mimeType, "text/html"):
			html = DecodeBase64URL(part.Body.Data)
		}
	}

	for _, child := range part.Parts {
		t, h := walkParts(child)
		if text == "" {
			text = t
		}
		if html == "" {
			html = h
		}
		if text != "" && html != "" {
			break
		}
	}
	return text, html
}

// DecodeBase64URL decodes Gmail body data, with or without padding.
// Undecodable data yields an empty string.
func DecodeBase64URL(data string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(data), "=")
	if b, err := base64.RawURLEncoding.DecodeString(trimmed); err == nil {
		return string(b)
	}
	if b, err := base64.RawStdEncoding.DecodeString(trimmed); err == nil {
		return string(b)
	}
	return ""
}

// HTMLToText strips markup, keeping line breaks at block boundaries.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return utils.CollapseWhitespace(html)
	}

	doc.Find("script, style, head").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, tr, h1, h2, h3, h4, h5, h6, blockquote").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return utils.CollapseWhitespace(doc.Text())
}
