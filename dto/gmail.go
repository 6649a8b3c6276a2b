package dto

import "time"

// GmailMessage is a Gmail message after MIME normalization.
type GmailMessage struct {
	ID         string
	ThreadID   string
	Subject    string
	From       string
	To         string
	MessageID  string
	References string
	InReplyTo  string
	Date       *time.Time
	BodyText   string
	BodyHTML   string
	Snippet    string
	LabelIDs   []string
}

// OutgoingEmail is a reply to be sent in an existing Gmail thread.
type OutgoingEmail struct {
	FromName    string
	FromAddress string
	To          string
	Subject     string
	Body        string
	ThreadID    string
	InReplyTo   string
	References  string
}

type SentMessage struct {
	ID       string
	ThreadID string
}

// OAuthToken is the plaintext token set returned by Google.
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}
