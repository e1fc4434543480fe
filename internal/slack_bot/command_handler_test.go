package slack_bot

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"open_poll_bot/configs"
	"open_poll_bot/internal/db/models"
	"open_poll_bot/internal/platform"
)

type fakeEngine struct {
	created *models.Poll
	view    platform.Message
}

func (e *fakeEngine) Create(_ context.Context, poll *models.Poll) (platform.Message, error) {
	poll.ID = "p1"
	e.created = poll
	return e.view, nil
}

func (e *fakeEngine) ToggleVote(_ context.Context, _ models.Instance, _ string, _ int, _ string, _ map[int][]string) (platform.Message, error) {
	return platform.Message{}, nil
}

func (e *fakeEngine) ToggleClosed(_ context.Context, _ models.Instance, _ string, _ map[int][]string) (platform.Message, error) {
	return platform.Message{}, nil
}

func (e *fakeEngine) ToggleHidden(_ context.Context, _ models.Instance, _ string, _ map[int][]string) (platform.Message, error) {
	return platform.Message{}, nil
}

func (e *fakeEngine) AddChoice(_ context.Context, _ models.Instance, _, _ string, _ map[int][]string) (platform.Message, error) {
	return platform.Message{}, nil
}

func (e *fakeEngine) Snapshot(_ context.Context, _ models.Instance, _ string, _ map[int][]string) (*models.Poll, *models.VoteLedger, models.Flags, error) {
	return nil, nil, models.Flags{}, nil
}

func (e *fakeEngine) Delete(_ context.Context, _ models.Instance, _ string) error { return nil }

type fakePollRepo struct {
	polls map[string]*models.Poll
}

func (r *fakePollRepo) Create(_ context.Context, poll *models.Poll) error {
	r.polls[poll.ID] = poll
	return nil
}

func (r *fakePollRepo) GetOne(_ context.Context, pollID string) (*models.Poll, error) {
	return r.polls[pollID], nil
}

func (r *fakePollRepo) AppendOption(_ context.Context, pollID, option string) (*models.Poll, error) {
	r.polls[pollID].Options = append(r.polls[pollID].Options, option)
	return r.polls[pollID], nil
}

func (r *fakePollRepo) Delete(_ context.Context, pollID string) error {
	delete(r.polls, pollID)
	return nil
}

type fakeTaskRepo struct {
	tasks map[string]*models.ScheduleTask
}

func (r *fakeTaskRepo) Upsert(_ context.Context, task *models.ScheduleTask) error {
	copied := *task
	r.tasks[task.PollID] = &copied
	return nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *models.ScheduleTask) error {
	return r.Upsert(ctx, task)
}

func (r *fakeTaskRepo) GetOne(_ context.Context, pollID string) (*models.ScheduleTask, error) {
	task, ok := r.tasks[pollID]
	if !ok {
		return nil, nil
	}
	copied := *task
	return &copied, nil
}

func (r *fakeTaskRepo) GetDue(_ context.Context, _ time.Time) ([]*models.ScheduleTask, error) {
	return nil, nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, pollID string) error {
	delete(r.tasks, pollID)
	return nil
}

func (r *fakeTaskRepo) DeleteDisabledBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type fakeClient struct {
	posts []string
}

func (c *fakeClient) Post(_ context.Context, channel string, _ platform.Message) (string, error) {
	c.posts = append(c.posts, channel)
	return "111.222", nil
}

func (c *fakeClient) Update(_ context.Context, _, _ string, _ platform.Message) error { return nil }
func (c *fakeClient) PostEphemeral(_ context.Context, _, _, _ string) error           { return nil }
func (c *fakeClient) Delete(_ context.Context, _, _ string) error                     { return nil }
func (c *fakeClient) DirectMessage(_ context.Context, _, _ string) error              { return nil }
func (c *fakeClient) OpenView(_ context.Context, _ string, _ slack.ModalViewRequest) error {
	return nil
}

type handlerFixture struct {
	handler *CommandHandler
	engine  *fakeEngine
	polls   *fakePollRepo
	tasks   *fakeTaskRepo
	client  *fakeClient
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		engine: &fakeEngine{},
		polls:  &fakePollRepo{polls: map[string]*models.Poll{}},
		tasks:  &fakeTaskRepo{tasks: map[string]*models.ScheduleTask{}},
		client: &fakeClient{},
	}
	f.handler = NewCommandHandler(
		configs.Scheduler{MinGapHours: 1, MaxRuns: 100, CleanupRetentionDays: 30},
		f.engine,
		f.polls,
		f.tasks,
		f.client,
		"https://example.com/help",
		zap.NewNop().Sugar(),
	)
	return f
}

func (f *handlerFixture) send(t *testing.T, text string) slashResponse {
	t.Helper()

	form := url.Values{}
	form.Set("command", "/poll")
	form.Set("text", text)
	form.Set("team_id", "T1")
	form.Set("channel_id", "C1")
	form.Set("user_id", "owner")

	r := httptest.NewRequest("POST", "/slack/commands", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	f.handler.Handle(w, r)

	var response slashResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	}
	return response
}

func TestHandle_Help(t *testing.T) {
	f := newHandlerFixture()

	response := f.send(t, "help")

	assert.Equal(t, "ephemeral", response.ResponseType)
	assert.Contains(t, response.Text, "How to create a poll")
}

func TestHandle_BadCommandShowsUsage(t *testing.T) {
	f := newHandlerFixture()

	response := f.send(t, "whatever")

	assert.Equal(t, "ephemeral", response.ResponseType)
	assert.Contains(t, response.Text, "How to create a poll")
}

func TestHandle_CreatePostsToChannel(t *testing.T) {
	f := newHandlerFixture()

	response := f.send(t, `anonymous "Lunch?" "Pizza" "Sushi"`)

	assert.Empty(t, response.Text)
	require.NotNil(t, f.engine.created)
	assert.Equal(t, "T1", f.engine.created.Team)
	assert.Equal(t, "C1", f.engine.created.Channel)
	assert.Equal(t, "owner", f.engine.created.CreatedUserID)
	assert.True(t, f.engine.created.Anonymous)
	assert.Equal(t, []string{"Pizza", "Sushi"}, f.engine.created.Options)
	assert.Equal(t, []string{"C1"}, f.client.posts)
}

func TestHandle_ScheduleCreatesTask(t *testing.T) {
	f := newHandlerFixture()
	f.polls.polls["p1"] = &models.Poll{ID: "p1", CreatedUserID: "owner"}

	response := f.send(t, `schedule p1 "0 9 * * 1"`)

	assert.Contains(t, response.Text, "Scheduled")

	task := f.tasks.tasks["p1"]
	require.NotNil(t, task)
	assert.Equal(t, "0 9 * * 1", task.CronString)
	assert.Equal(t, 100, task.RunMax)
	assert.True(t, task.IsEnable)
	assert.Equal(t, "owner", task.CreatedUserID)
	assert.False(t, task.NextTS.IsZero())
}

func TestHandle_ScheduleHonorsRuns(t *testing.T) {
	f := newHandlerFixture()
	f.polls.polls["p1"] = &models.Poll{ID: "p1", CreatedUserID: "owner"}

	f.send(t, `schedule p1 "0 9 * * 1" runs 5`)

	require.NotNil(t, f.tasks.tasks["p1"])
	assert.Equal(t, 5, f.tasks.tasks["p1"].RunMax)
}

func TestHandle_ScheduleUnknownPoll(t *testing.T) {
	f := newHandlerFixture()

	response := f.send(t, `schedule nope "0 9 * * 1"`)

	assert.Contains(t, response.Text, "No poll with that ID")
	assert.Empty(t, f.tasks.tasks)
}

func TestHandle_ScheduleRejectsNonOwner(t *testing.T) {
	f := newHandlerFixture()
	f.polls.polls["p1"] = &models.Poll{ID: "p1", CreatedUserID: "someone_else"}

	response := f.send(t, `schedule p1 "0 9 * * 1"`)

	assert.Contains(t, response.Text, "Only the poll creator")
	assert.Empty(t, f.tasks.tasks)
}

func TestHandle_ScheduleRejectsBadCron(t *testing.T) {
	f := newHandlerFixture()
	f.polls.polls["p1"] = &models.Poll{ID: "p1", CreatedUserID: "owner"}

	response := f.send(t, `schedule p1 "every monday"`)

	assert.Contains(t, response.Text, "not a valid cron expression")
	assert.Empty(t, f.tasks.tasks)
}

func TestHandle_ScheduleOff(t *testing.T) {
	f := newHandlerFixture()
	f.tasks.tasks["p1"] = &models.ScheduleTask{PollID: "p1", CreatedUserID: "owner", IsEnable: true}

	response := f.send(t, "schedule p1 off")

	assert.Contains(t, response.Text, "disabled")
	assert.False(t, f.tasks.tasks["p1"].IsEnable)
}

func TestHandle_ScheduleOffRejectsNonOwner(t *testing.T) {
	f := newHandlerFixture()
	f.tasks.tasks["p1"] = &models.ScheduleTask{PollID: "p1", CreatedUserID: "someone_else", IsEnable: true}

	response := f.send(t, "schedule p1 off")

	assert.Contains(t, response.Text, "Only the schedule owner")
	assert.True(t, f.tasks.tasks["p1"].IsEnable)
}
