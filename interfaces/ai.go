package interfaces

import (
	"context"

	"github.com/hoadesk/inbox/dto"
)

type WebhookClient interface {
	DraftReply(ctx context.Context, request *dto.WebhookRequest) (*dto.WebhookResponse, error)
}

type Classifier interface {
	Classify(ctx context.Context, subject, body string) (*dto.Classification, error)
}

type AIService interface {
	SmokeTest(ctx context.Context) (string, error)
	DraftReply(ctx context.Context, request *dto.DraftReplyRequest) (string, error)
	Classify(ctx context.Context, subject, body string) (*dto.Classification, error)
}
