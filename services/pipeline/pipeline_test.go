package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoadesk/inbox/internal/enum"
	inboxerrors "github.com/hoadesk/inbox/internal/errors"
	"github.com/hoadesk/inbox/internal/logger"
	"github.com/hoadesk/inbox/internal/models"
	"github.com/hoadesk/inbox/internal/repository"
	"github.com/hoadesk/inbox/internal/testutil"
)

type pipelineFixture struct {
	repos  *repository.Repositories
	svc    *pipelineService
	hoa    *models.HOA
	thread *models.EmailThread
}

func newPipelineFixture(t *testing.T, subject, body string) *pipelineFixture {
	t.Helper()
	repos := testutil.NewTestRepositories(t)
	user := testutil.CreateUser(t, repos, "manager@oakhoa.org")
	hoa := testutil.CreateHOA(t, repos, user.ID, "Oak Ridge")
	thread := testutil.CreateThread(t, repos, hoa.ID, "gthread-1", subject)
	testutil.CreateIncomingMessage(t, repos, thread.ID, "gmsg-1", "Jane Doe <Jane@Example.com>", subject, body)

	svc := NewPipelineService(repos, NewRuleClassifier(), logger.NewNopLogger()).(*pipelineService)
	svc.now = func() time.Time { return testNow }
	return &pipelineFixture{repos: repos, svc: svc, hoa: hoa, thread: thread}
}

func auditActions(t *testing.T, repos *repository.Repositories, requestID string) []enum.AuditAction {
	t.Helper()
	entries, err := repos.AuditLogRepository.ListByRequest(context.Background(), requestID)
	require.NoError(t, err)
	actions := make([]enum.AuditAction, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	return actions
}

func TestProcessThread_CreatesRequestAndDraft(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, "Leak in kitchen", "Water leak under my sink in unit 4B")

	request, err := f.svc.ProcessThread(ctx, f.thread.ID)
	require.NoError(t, err)

	assert.Equal(t, enum.CategoryMaintenance, request.Category)
	assert.Equal(t, enum.PriorityNormal, request.Priority)
	assert.Equal(t, enum.RequestStatusAwaitingReply, request.Status)
	require.NotNil(t, request.SLADueAt)
	assert.WithinDuration(t, testNow.Add(72*time.Hour), *request.SLADueAt, time.Second)
	assert.Nil(t, request.ResidentID)

	thread, err := f.repos.EmailThreadRepository.GetByID(ctx, f.thread.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.ThreadStatusAwaitingReply, thread.Status)
	require.NotNil(t, thread.Category)
	assert.Equal(t, enum.CategoryMaintenance, *thread.Category)

	drafts, err := f.repos.ReplyDraftRepository.ListByRequest(ctx, request.ID)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, 1, drafts[0].Version)
	assert.Nil(t, drafts[0].TemplateID)
	assert.Contains(t, drafts[0].Content, "Hello Jane Doe,")
	assert.Contains(t, drafts[0].Content, `"Leak in kitchen"`)
	assert.Contains(t, drafts[0].Content, "The Oak Ridge Board")
	assert.Contains(t, drafts[0].Content, "{{unit}}")

	assert.ElementsMatch(t, []enum.AuditAction{enum.AuditRequestCreated, enum.AuditClassified, enum.AuditDraftCreated},
		auditActions(t, f.repos, request.ID))
}

func TestProcessThread_SecondRunAddsDraftVersion(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, "Leak in kitchen", "Water leak under my sink in unit 4B")

	first, err := f.svc.ProcessThread(ctx, f.thread.ID)
	require.NoError(t, err)
	second, err := f.svc.ProcessThread(ctx, f.thread.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	latest, err := f.repos.ReplyDraftRepository.GetLatestVersion(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest)

	actions := auditActions(t, f.repos, first.ID)
	assert.Len(t, actions, 5)
	assert.Equal(t, 1, countAction(actions, enum.AuditRequestCreated))
}

func countAction(actions []enum.AuditAction, action enum.AuditAction) int {
	n := 0
	for _, a := range actions {
		if a == action {
			n++
		}
	}
	return n
}

func TestProcessThread_NeedsInfoUsesNeedsInfoTemplate(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, "Broken gate", "The gate is broken again")

	request, err := f.svc.ProcessThread(ctx, f.thread.ID)
	require.NoError(t, err)

	assert.Equal(t, enum.RequestStatusNeedsInfo, request.Status)
	assert.Nil(t, request.SLADueAt)
	assert.Equal(t, models.StringList{MissingUnitNumber}, request.MissingInfo)

	drafts, err := f.repos.ReplyDraftRepository.ListByRequest(ctx, request.ID)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Contains(t, drafts[0].Content, "could you please send us your unit number?")
}

func TestProcessThread_TemplateFallbackChain(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, "Leak asap", "Water leak in unit 4B, please come asap")

	anyPriority := &models.PolicyTemplate{
		HOAID:    f.hoa.ID,
		Name:     "Maintenance (any)",
		Category: enum.CategoryMaintenance,
		Body:     "Any priority for {{resident_name}}",
	}
	require.NoError(t, f.repos.PolicyTemplateRepository.Create(ctx, anyPriority))

	request, err := f.svc.ProcessThread(ctx, f.thread.ID)
	require.NoError(t, err)
	require.Equal(t, enum.PriorityHigh, request.Priority)

	content, templateID, err := f.svc.RenderDraft(ctx, request)
	require.NoError(t, err)
	assert.Equal(t, "Any priority for Jane Doe", content)
	require.NotNil(t, templateID)
	assert.Equal(t, anyPriority.ID, *templateID)

	high := enum.PriorityHigh
	exact := &models.PolicyTemplate{
		HOAID:    f.hoa.ID,
		Name:     "Maintenance (high)",
		Category: enum.CategoryMaintenance,
		Priority: &high,
		Body:     "{{hoa_name}} will fix it by {{sla_due}}. {{not_a_token}}",
	}
	require.NoError(t, f.repos.PolicyTemplateRepository.Create(ctx, exact))

	content, templateID, err = f.svc.RenderDraft(ctx, request)
	require.NoError(t, err)
	assert.Equal(t, "Oak Ridge will fix it by Sun, Mar 3 at 12:00 PM UTC. {{not_a_token}}", content)
	require.NotNil(t, templateID)
	assert.Equal(t, exact.ID, *templateID)
}

func TestProcessThread_LinksResident(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, "Leak", "Water leak in unit 4B")

	resident := &models.Resident{HOAID: f.hoa.ID, Name: "Jane Q. Resident", Email: "jane@example.com", Unit: "4B"}
	require.NoError(t, f.repos.ResidentRepository.Create(ctx, resident))

	request, err := f.svc.ProcessThread(ctx, f.thread.ID)
	require.NoError(t, err)
	require.NotNil(t, request.ResidentID)
	assert.Equal(t, resident.ID, *request.ResidentID)

	content, _, err := f.svc.RenderDraft(ctx, request)
	require.NoError(t, err)
	assert.Contains(t, content, "Hello Jane Q. Resident,")
	assert.Contains(t, content, "unit 4B")
}

func TestProcessThread_UnknownThread(t *testing.T) {
	repos := testutil.NewTestRepositories(t)
	svc := NewPipelineService(repos, NewRuleClassifier(), logger.NewNopLogger())

	_, err := svc.ProcessThread(context.Background(), "thread_missing")
	assert.True(t, inboxerrors.IsNotFoundError(err))
}
