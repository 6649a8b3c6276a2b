package actions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hoadesk/inbox/config"
	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/internal/enum"
	inboxerrors "github.com/hoadesk/inbox/internal/errors"
	"github.com/hoadesk/inbox/internal/logger"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/repository"
	"github.com/hoadesk/inbox/internal/testutil"
	"github.com/hoadesk/inbox/services/auth"
	"github.com/hoadesk/inbox/services/mailbox"
	"github.com/hoadesk/inbox/services/pipeline"
)

type fixture struct {
	repos   *repository.Repositories
	gmail   *testutil.MockGmailService
	mailbox *testutil.MockGmailMailbox
	webhook *testutil.MockWebhookClient
	ai      *testutil.MockAIService
	user    *models.User
	hoa     *models.HOA
	thread  *models.EmailThread
	message *models.EmailMessage
	svc     *actionsService
}

func newFixture(t *testing.T, draftProvider string) *fixture {
	t.Helper()
	log := logger.NewNopLogger()
	repos := testutil.NewTestRepositories(t)
	user := testutil.CreateUser(t, repos, "manager@oakhoa.org")
	hoa := testutil.CreateHOA(t, repos, user.ID, "Oak Ridge")
	testutil.CreateGmailAccount(t, repos, hoa.ID, "board@oakhoa.org", "access-1", "refresh-1", time.Now().Add(time.Hour))
	thread := testutil.CreateThread(t, repos, hoa.ID, "gt-1", "Leak")
	message := testutil.CreateIncomingMessage(t, repos, thread.ID, "m1", "Jane Doe <jane@example.com>", "Leak", "Water leak in unit 4B")

	gmail := new(testutil.MockGmailService)
	mb := new(testutil.MockGmailMailbox)
	gmail.On("Mailbox", mock.Anything, "access-1").Return(mb, nil).Maybe()
	webhook := new(testutil.MockWebhookClient)
	aiService := new(testutil.MockAIService)

	mailboxes := mailbox.NewMailboxService(repos, gmail, testutil.NewEncrypter(t), auth.NewTokenIssuer("secret", time.Hour), log)
	pipe := pipeline.NewPipelineService(repos, pipeline.NewRuleClassifier(), log)
	svc := NewActionsService(repos, mailboxes, pipe, webhook, aiService, draftProvider, log).(*actionsService)

	return &fixture{
		repos:   repos,
		gmail:   gmail,
		mailbox: mb,
		webhook: webhook,
		ai:      aiService,
		user:    user,
		hoa:     hoa,
		thread:  thread,
		message: message,
		svc:     svc,
	}
}

func (f *fixture) createRequest(t *testing.T, category enum.Category, status enum.RequestStatus, legalRisk bool) (*models.Request, *models.ReplyDraft) {
	t.Helper()
	ctx := context.Background()
	request := &models.Request{
		HOAID:        f.hoa.ID,
		ThreadID:     f.thread.ID,
		Category:     category,
		Priority:     enum.PriorityNormal,
		Status:       status,
		HasLegalRisk: legalRisk,
	}
	require.NoError(t, f.repos.RequestRepository.Create(ctx, request))
	draft := &models.ReplyDraft{RequestID: request.ID, Version: 1, Content: "We are on it."}
	require.NoError(t, f.repos.ReplyDraftRepository.Create(ctx, draft))
	return request, draft
}

func (f *fixture) auditActions(t *testing.T, requestID string) []enum.AuditAction {
	t.Helper()
	entries, err := f.repos.AuditLogRepository.ListByRequest(context.Background(), requestID)
	require.NoError(t, err)
	actions := make([]enum.AuditAction, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	return actions
}

func (f *fixture) reload(t *testing.T, request *models.Request) (*models.Request, *models.EmailThread) {
	t.Helper()
	ctx := context.Background()
	r, err := f.repos.RequestRepository.GetByID(ctx, request.ID)
	require.NoError(t, err)
	thread, err := f.repos.EmailThreadRepository.GetByID(ctx, request.ThreadID)
	require.NoError(t, err)
	return r, thread
}

func TestApproveDraft_MovesToInProgress(t *testing.T) {
	f := newFixture(t, "")
	request, draft := f.createRequest(t, enum.CategoryBoard, enum.RequestStatusAwaitingReply, false)

	approved, err := f.svc.ApproveDraft(context.Background(), f.user.ID, draft.ID)
	require.NoError(t, err)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, f.user.ID, *approved.ApprovedByID)

	r, thread := f.reload(t, request)
	assert.Equal(t, enum.RequestStatusInProgress, r.Status)
	assert.Equal(t, enum.ThreadStatusInProgress, thread.Status)
	assert.ElementsMatch(t, []enum.AuditAction{enum.AuditApproved, enum.AuditStatusChanged}, f.auditActions(t, request.ID))
}

func TestApproveDraft_ResolvedStaysResolved(t *testing.T) {
	f := newFixture(t, "")
	request, draft := f.createRequest(t, enum.CategoryMaintenance, enum.RequestStatusResolved, false)

	_, err := f.svc.ApproveDraft(context.Background(), f.user.ID, draft.ID)
	require.NoError(t, err)

	r, _ := f.reload(t, request)
	assert.Equal(t, enum.RequestStatusResolved, r.Status)
	assert.Contains(t, f.auditActions(t, request.ID), enum.AuditApproved)
}

func TestApproveDraft_OtherOwnerGetsNotFound(t *testing.T) {
	f := newFixture(t, "")
	_, draft := f.createRequest(t, enum.CategoryBoard, enum.RequestStatusAwaitingReply, false)
	stranger := testutil.CreateUser(t, f.repos, "stranger@elm.org")

	_, err := f.svc.ApproveDraft(context.Background(), stranger.ID, draft.ID)
	assert.True(t, inboxerrors.IsNotFoundError(err))
}

func TestSendDraftReply_RequiresApproval(t *testing.T) {
	tests := []struct {
		name      string
		category  enum.Category
		legalRisk bool
	}{
		{"board", enum.CategoryBoard, false},
		{"legal", enum.CategoryLegal, true},
		{"legal risk", enum.CategoryMaintenance, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "")
			request, draft := f.createRequest(t, tt.category, enum.RequestStatusAwaitingReply, tt.legalRisk)

			_, err := f.svc.SendDraftReply(context.Background(), f.user.ID, draft.ID)
			require.Error(t, err)
			assert.True(t, inboxerrors.IsValidationError(err))

			f.gmail.AssertNotCalled(t, "Mailbox", mock.Anything, mock.Anything)
			f.mailbox.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
			assert.Empty(t, f.auditActions(t, request.ID))

			stored, err := f.repos.ReplyDraftRepository.GetByID(context.Background(), draft.ID)
			require.NoError(t, err)
			assert.Nil(t, stored.SentAt)
		})
	}
}

func TestSendDraftReply_SendsInThread(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	request, draft := f.createRequest(t, enum.CategoryMaintenance, enum.RequestStatusInProgress, false)

	f.mailbox.On("SendMessage", mock.Anything, mock.MatchedBy(func(e *dto.OutgoingEmail) bool {
		return e.To == "Jane Doe <jane@example.com>" &&
			e.FromAddress == "board@oakhoa.org" &&
			e.FromName == "Oak Ridge" &&
			e.ThreadID == "gt-1" &&
			e.InReplyTo == "<m1@mail.gmail.com>" &&
			e.Body == "We are on it."
	})).Return(&dto.SentMessage{ID: "sent-1", ThreadID: "gt-1"}, nil)

	sent, err := f.svc.SendDraftReply(ctx, f.user.ID, draft.ID)
	require.NoError(t, err)
	require.NotNil(t, sent.SentAt)
	assert.Equal(t, f.user.ID, *sent.SentByID)
	assert.Equal(t, "sent-1", *sent.GmailMessageID)

	r, thread := f.reload(t, request)
	assert.Equal(t, enum.RequestStatusAwaitingReply, r.Status)
	assert.Equal(t, enum.ThreadStatusAwaitingReply, thread.Status)

	exists, err := f.repos.EmailMessageRepository.ExistsByGmailMessageID(ctx, "sent-1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.ElementsMatch(t, []enum.AuditAction{enum.AuditSent, enum.AuditStatusChanged}, f.auditActions(t, request.ID))

	_, err = f.svc.SendDraftReply(ctx, f.user.ID, draft.ID)
	assert.True(t, inboxerrors.IsValidationError(err))
	f.mailbox.AssertNumberOfCalls(t, "SendMessage", 1)
}

func TestSendDraftReply_PrefersResidentAddress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	request, draft := f.createRequest(t, enum.CategoryBoard, enum.RequestStatusInProgress, false)

	resident := &models.Resident{HOAID: f.hoa.ID, Name: "Jane", Email: "jane.home@example.org", Unit: "4B"}
	require.NoError(t, f.repos.ResidentRepository.Create(ctx, resident))
	request.ResidentID = &resident.ID
	require.NoError(t, f.repos.RequestRepository.Save(ctx, request))

	_, err := f.svc.ApproveDraft(ctx, f.user.ID, draft.ID)
	require.NoError(t, err)

	f.mailbox.On("SendMessage", mock.Anything, mock.MatchedBy(func(e *dto.OutgoingEmail) bool {
		return e.To == "jane.home@example.org"
	})).Return(&dto.SentMessage{ID: "sent-2", ThreadID: "gt-1"}, nil)

	_, err = f.svc.SendDraftReply(ctx, f.user.ID, draft.ID)
	require.NoError(t, err)
	f.mailbox.AssertExpectations(t)
}

func TestUpdateThreadStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	request, _ := f.createRequest(t, enum.CategoryMaintenance, enum.RequestStatusAwaitingReply, false)

	require.NoError(t, f.svc.UpdateThreadStatus(ctx, f.user.ID, f.thread.ID, enum.ThreadStatusResolved))

	r, thread := f.reload(t, request)
	assert.Equal(t, enum.RequestStatusResolved, r.Status)
	assert.Equal(t, enum.ThreadStatusResolved, thread.Status)
	assert.Equal(t, []enum.AuditAction{enum.AuditStatusChanged}, f.auditActions(t, request.ID))

	err := f.svc.UpdateThreadStatus(ctx, f.user.ID, f.thread.ID, enum.ThreadStatus("ARCHIVED"))
	assert.True(t, inboxerrors.IsValidationError(err))

	stranger := testutil.CreateUser(t, f.repos, "stranger@elm.org")
	err = f.svc.UpdateThreadStatus(ctx, stranger.ID, f.thread.ID, enum.ThreadStatusClosed)
	assert.True(t, inboxerrors.IsNotFoundError(err))
}

func TestUpdateThreadStatus_WithoutRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	require.NoError(t, f.svc.UpdateThreadStatus(ctx, f.user.ID, f.thread.ID, enum.ThreadStatusClosed))

	thread, err := f.repos.EmailThreadRepository.GetByID(ctx, f.thread.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.ThreadStatusClosed, thread.Status)
}

func TestGenerateDraft_FromTemplates(t *testing.T) {
	f := newFixture(t, "")
	request, _ := f.createRequest(t, enum.CategoryMaintenance, enum.RequestStatusAwaitingReply, false)

	draft, err := f.svc.GenerateDraft(context.Background(), f.user.ID, request.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, draft.Version)
	assert.Contains(t, draft.Content, "Hello Jane Doe,")
	f.ai.AssertNotCalled(t, "DraftReply", mock.Anything, mock.Anything)
	assert.Equal(t, []enum.AuditAction{enum.AuditDraftCreated}, f.auditActions(t, request.ID))
}

func TestGenerateDraft_FromOpenAI(t *testing.T) {
	f := newFixture(t, config.ProviderOpenAI)
	request, _ := f.createRequest(t, enum.CategoryMaintenance, enum.RequestStatusAwaitingReply, false)

	f.ai.On("DraftReply", mock.Anything, mock.MatchedBy(func(r *dto.DraftReplyRequest) bool {
		return r.HOAName == "Oak Ridge" && r.ResidentName == "Jane Doe" && r.Category == enum.CategoryMaintenance
	})).Return("A plumber is on the way.", nil)

	draft, err := f.svc.GenerateDraft(context.Background(), f.user.ID, request.ID)
	require.NoError(t, err)
	assert.Equal(t, "A plumber is on the way.", draft.Content)
	assert.Nil(t, draft.TemplateID)
}

func TestGenerateDraft_OpenAIFailureFallsBack(t *testing.T) {
	f := newFixture(t, config.ProviderOpenAI)
	request, _ := f.createRequest(t, enum.CategoryMaintenance, enum.RequestStatusAwaitingReply, false)

	f.ai.On("DraftReply", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	draft, err := f.svc.GenerateDraft(context.Background(), f.user.ID, request.ID)
	require.NoError(t, err)
	assert.Contains(t, draft.Content, "Hello Jane Doe,")
}

func TestRetryAIReply(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	f.webhook.On("DraftReply", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()
	reply, err := f.svc.RetryAIReply(ctx, f.user.ID, f.message.ID)
	require.Error(t, err)
	require.NotNil(t, reply)
	require.NotNil(t, reply.Error)
	assert.Contains(t, *reply.Error, "timeout")

	f.webhook.On("DraftReply", mock.Anything, mock.Anything).
		Return(&dto.WebhookResponse{ReplyText: "Thanks", Classification: "maintenance"}, nil).Once()
	reply, err = f.svc.RetryAIReply(ctx, f.user.ID, f.message.ID)
	require.NoError(t, err)
	assert.Nil(t, reply.Error)
	assert.Equal(t, "Thanks", reply.DraftText)

	stored, err := f.repos.AIReplyRepository.GetByMessageID(ctx, f.message.ID)
	require.NoError(t, err)
	assert.Equal(t, reply.ID, stored.ID)
	assert.Nil(t, stored.Error)
}
