package admin_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openjudge/judgectl/admin"
	"github.com/openjudge/judgectl/auth"
	"github.com/openjudge/judgectl/client"
	"github.com/openjudge/judgectl/internal/judgetest"
	"github.com/openjudge/judgectl/session"
	"github.com/openjudge/judgectl/stepup"
	"github.com/openjudge/judgectl/storage/memory"
)

// harness wires a logged-in admin service against the in-process fake.
type harness struct {
	backend *judgetest.Server
	store   *session.Store
	client  *client.Client
	auth    *auth.Service
	admin   *admin.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := judgetest.New()
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	store := session.NewStore(memory.NewStore())
	c := client.New(srv.URL, client.WithCredentialSource(store))
	h := &harness{
		backend: backend,
		store:   store,
		client:  c,
		auth:    auth.NewService(c, store),
		admin:   admin.NewService(c),
	}

	_, err := h.auth.Login(context.Background(), auth.Credentials{
		Identifier: "admin",
		Password:   "open-sesame",
	})
	require.NoError(t, err)
	return h
}

// codePrompter confirms with the latest one-time code the fake recorded.
type codePrompter struct{ backend *judgetest.Server }

func (p codePrompter) Prompt(ctx context.Context, ch stepup.Challenge) (stepup.Action, error) {
	return stepup.Action{Kind: stepup.ActionConfirm, Code: p.backend.LastCode()}, nil
}

func (h *harness) sensitiveToken(t *testing.T, operation string) string {
	t.Helper()
	gate := stepup.NewGate(h.client, h.store, codePrompter{backend: h.backend})
	token, err := gate.RequestToken(context.Background(), operation)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	return token
}

func TestUnauthenticatedRejected(t *testing.T) {
	backend := judgetest.New()
	srv := httptest.NewServer(backend.Handler())
	defer srv.Close()

	store := session.NewStore(memory.NewStore())
	var returnTo string
	c := client.New(srv.URL,
		client.WithCredentialSource(store),
		client.WithUnauthorizedHook(func(path string) { returnTo = path }),
	)

	_, err := admin.NewService(c).ListProblems(context.Background(), admin.ProblemQuery{})
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, "/admin/problems", returnTo)
}

func TestProblemLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	page, err := h.admin.ListProblems(ctx, admin.ProblemQuery{})
	require.NoError(t, err)
	require.Len(t, page.Problems, 3)
	assert.Equal(t, 3, page.Meta.Total)
	assert.Equal(t, "Two Sum", page.Problems[0].Title)

	created, err := h.admin.CreateProblem(ctx, admin.ProblemDraft{
		Title:      "Longest Common Subsequence",
		Difficulty: "medium",
		Tags:       []string{"dp"},
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := h.admin.GetProblem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Longest Common Subsequence", got.Title)

	updated, err := h.admin.UpdateProblem(ctx, created.ID, admin.ProblemDraft{
		Title:      "LCS",
		Difficulty: "hard",
	})
	require.NoError(t, err)
	assert.Equal(t, "LCS", updated.Title)
	assert.Equal(t, "hard", updated.Difficulty)

	require.NoError(t, h.admin.SetProblemVisibility(ctx, created.ID, false))
	got, err = h.admin.GetProblem(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Visible)

	require.NoError(t, h.admin.DeleteProblem(ctx, created.ID))
	_, err = h.admin.GetProblem(ctx, created.ID)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "not_found", apiErr.Code)
}

func TestProblemListFilters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	page, err := h.admin.ListProblems(ctx, admin.ProblemQuery{
		ListQuery: admin.ListQuery{Keyword: "segment"},
	})
	require.NoError(t, err)
	require.Len(t, page.Problems, 1)
	assert.Equal(t, "Segment Tree Beats", page.Problems[0].Title)

	page, err = h.admin.ListProblems(ctx, admin.ProblemQuery{Difficulty: "easy"})
	require.NoError(t, err)
	require.Len(t, page.Problems, 1)
	assert.Equal(t, "Two Sum", page.Problems[0].Title)

	page, err = h.admin.ListProblems(ctx, admin.ProblemQuery{
		ListQuery: admin.ListQuery{Page: 1, PageSize: 2},
	})
	require.NoError(t, err)
	assert.Len(t, page.Problems, 2)
	assert.True(t, page.Meta.HasMore)
	assert.Equal(t, 3, page.Meta.Total)
}

func TestDatasetLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ds, err := h.admin.UploadDataset(ctx, 1, admin.DatasetManifest{
		Name: "main",
		Cases: []admin.Testcase{
			{Input: "1 2", Answer: "3"},
			{Input: "2 2", Answer: "4", Score: 50},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), ds.ProblemID)
	assert.Equal(t, 2, ds.Cases)

	list, err := h.admin.ListDatasets(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "main", list[0].Name)

	require.NoError(t, h.admin.DeleteDataset(ctx, 1, ds.ID))
	list, err = h.admin.ListDatasets(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestContestLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)

	created, err := h.admin.CreateContest(ctx, admin.ContestDraft{
		Title:      "Weekly Round 2",
		Kind:       "ioi",
		StartAt:    start,
		EndAt:      start.Add(5 * time.Hour),
		ProblemIDs: []int64{1, 2},
	})
	require.NoError(t, err)
	assert.True(t, created.StartAt.Equal(start))

	page, err := h.admin.ListContests(ctx, admin.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Contests, 2)

	updated, err := h.admin.UpdateContest(ctx, created.ID, admin.ContestDraft{
		Title:   "Weekly Round 2 (rescheduled)",
		StartAt: start.Add(24 * time.Hour),
		EndAt:   start.Add(29 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Weekly Round 2 (rescheduled)", updated.Title)

	require.NoError(t, h.admin.DeleteContest(ctx, created.ID))
}

func TestUserModeration(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.backend.SeedAccount("rival", "rival@judge.test", "hunter2", "user")

	page, err := h.admin.ListUsers(ctx, admin.UserQuery{})
	require.NoError(t, err)
	require.Len(t, page.Users, 2)

	var rival admin.User
	for _, u := range page.Users {
		if u.Username == "rival" {
			rival = u
		}
	}
	require.NotEmpty(t, rival.ID)

	require.NoError(t, h.admin.BanUser(ctx, rival.ID, "vote manipulation"))
	got, err := h.admin.GetUser(ctx, rival.ID)
	require.NoError(t, err)
	assert.Equal(t, "banned", got.Status)

	banned, err := h.admin.ListUsers(ctx, admin.UserQuery{Status: "banned"})
	require.NoError(t, err)
	require.Len(t, banned.Users, 1)
	assert.Equal(t, "rival", banned.Users[0].Username)

	require.NoError(t, h.admin.UnbanUser(ctx, rival.ID))
	got, err = h.admin.GetUser(ctx, rival.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "banned", got.Status)

	require.NoError(t, h.admin.AssignRoles(ctx, rival.ID, []string{"user", "moderator"}))
	got, err = h.admin.GetUser(ctx, rival.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"user", "moderator"}, got.Roles)
}

func TestCommentModeration(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.backend.SeedComment("rival", "this problem is broken")
	h.backend.SeedComment("contestant", "nice problem")

	pending, err := h.admin.ListComments(ctx, admin.CommentQuery{Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, pending.Comments, 2)

	require.NoError(t, h.admin.ApproveComment(ctx, id))
	approved, err := h.admin.ListComments(ctx, admin.CommentQuery{Status: "approved"})
	require.NoError(t, err)
	require.Len(t, approved.Comments, 1)
	assert.Equal(t, id, approved.Comments[0].ID)

	require.NoError(t, h.admin.RejectComment(ctx, approved.Comments[0].ID, "abusive"))
	require.NoError(t, h.admin.DeleteComment(ctx, id))
}

func TestSensitiveWords(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.admin.AddWord(ctx, "  BadWord ", "abuse")
	require.NoError(t, err)
	assert.Equal(t, "badword", created.Word, "entries are stored normalized")

	page, err := h.admin.ListWords(ctx, admin.ListQuery{Keyword: "bad"})
	require.NoError(t, err)
	require.Len(t, page.Words, 1)

	require.NoError(t, h.admin.DeleteWord(ctx, created.ID))
}

func TestTagsAndRoles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tags, err := h.admin.ListTags(ctx, admin.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, tags.Tags, 2)

	tag, err := h.admin.CreateTag(ctx, "greedy")
	require.NoError(t, err)
	require.NoError(t, h.admin.DeleteTag(ctx, tag.ID))

	roles, err := h.admin.ListRoles(ctx, admin.ListQuery{})
	require.NoError(t, err)
	require.Len(t, roles.Roles, 1)
	assert.Equal(t, "moderator", roles.Roles[0].Name)

	role, err := h.admin.CreateRole(ctx, admin.Role{
		Name:        "problemsetter",
		Permissions: []string{"problems:write"},
	})
	require.NoError(t, err)

	role.Description = "can author problems"
	updated, err := h.admin.UpdateRole(ctx, role.ID, *role)
	require.NoError(t, err)
	assert.Equal(t, "can author problems", updated.Description)

	require.NoError(t, h.admin.DeleteRole(ctx, role.ID))
}

func TestJudgeNodesAndJobs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	nodes, err := h.admin.ListNodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "judge-1", nodes[0].Hostname)
	assert.Equal(t, "online", nodes[0].Status)

	jobs, err := h.admin.ListJobs(ctx, admin.JobQuery{Status: "finished"})
	require.NoError(t, err)
	require.Len(t, jobs.Jobs, 3)

	job, err := h.admin.GetJob(ctx, jobs.Jobs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "wrong_answer", job.Verdict)

	none, err := h.admin.ListJobs(ctx, admin.JobQuery{NodeID: "no-such-node"})
	require.NoError(t, err)
	assert.Empty(t, none.Jobs)
}

func TestRetryJobRequiresStepUp(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	jobs, err := h.admin.ListJobs(ctx, admin.JobQuery{})
	require.NoError(t, err)
	require.NotEmpty(t, jobs.Jobs)
	jobID := jobs.Jobs[0].ID

	err = h.admin.RetryJob(ctx, jobID, "")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "step_up_required", apiErr.Code)
	assert.Equal(t, "finished", h.backend.JobStatus(jobID))

	token := h.sensitiveToken(t, "retry job")
	require.NoError(t, h.admin.RetryJob(ctx, jobID, token))
	assert.Equal(t, "queued", h.backend.JobStatus(jobID))
}

func TestRevokeTokenRequiresStepUp(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	page, err := h.admin.ListTokens(ctx, admin.ListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Tokens, 1)
	id := page.Tokens[0].ID

	err = h.admin.RevokeToken(ctx, id, "bogus")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "step_up_invalid", apiErr.Code)
	assert.False(t, h.backend.TokenRevoked(id))

	token := h.sensitiveToken(t, "revoke token "+id)
	require.NoError(t, h.admin.RevokeToken(ctx, id, token))
	assert.True(t, h.backend.TokenRevoked(id))

	page, err = h.admin.ListTokens(ctx, admin.ListQuery{})
	require.NoError(t, err)
	assert.True(t, page.Tokens[0].Revoked)
}
