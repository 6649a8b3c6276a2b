package handlers

import (
	"context"

	inboxerrors "github.com/hoadesk/inbox/internal/errors"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/repository"
	"github.com/hoadesk/inbox/services"
)

type APIHandlers struct {
	Auth     *AuthHandler
	HOAs     *HOAHandler
	Gmail    *GmailHandler
	Jobs     *JobsHandler
	Requests *RequestHandler
	Threads  *ThreadHandler
	AI       *AIHandler
}

func InitHandlers(s *services.Services, repos *repository.Repositories, appBaseURL string) *APIHandlers {
	return &APIHandlers{
		Auth:     NewAuthHandler(s.AuthService),
		HOAs:     NewHOAHandler(repos),
		Gmail:    NewGmailHandler(s.MailboxService, appBaseURL),
		Jobs:     NewJobsHandler(s.PollerService, repos),
		Requests: NewRequestHandler(s.ActionsService, repos),
		Threads:  NewThreadHandler(s.ActionsService, appBaseURL),
		AI:       NewAIHandler(s.AIService),
	}
}

// ownedHOA loads the HOA when userID owns it. Anything else reads as not found.
func ownedHOA(ctx context.Context, repos *repository.Repositories, userID, hoaID string) (*models.HOA, error) {
	hoa, err := repos.HOARepository.GetForOwner(ctx, userID, hoaID)
	if err != nil {
		return nil, err
	}
	if hoa == nil {
		return nil, inboxerrors.NewNotFoundError("hoa", hoaID)
	}
	return hoa, nil
}
