package dto

type WebhookRequest struct {
	HOA   WebhookHOA   `json:"hoa"`
	Email WebhookEmail `json:"email"`
}

type WebhookHOA struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type WebhookEmail struct {
	MessageID  string `json:"messageId"`
	ThreadID   string `json:"threadId"`
	From       string `json:"from"`
	To         string `json:"to"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	ReceivedAt string `json:"receivedAt"`
}

type WebhookResponse struct {
	ReplyText      string `json:"replyText"`
	Send           bool   `json:"send,omitempty"`
	Classification string `json:"classification,omitempty"`
	Priority       string `json:"priority,omitempty"`
}
