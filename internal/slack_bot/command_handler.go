package slack_bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"open_poll_bot/configs"
	"open_poll_bot/internal/db/models"
	"open_poll_bot/internal/db/repositories"
	"open_poll_bot/internal/parser"
	"open_poll_bot/internal/platform"
	"open_poll_bot/internal/poll"
	"open_poll_bot/internal/scheduler"
)

// CommandHandler serves the slash command endpoint: poll creation, help and
// schedule management.
type CommandHandler struct {
	schedulerConfig configs.Scheduler
	engine          poll.Engine
	polls           repositories.PollRepository
	tasks           repositories.ScheduleTaskRepository
	client          platform.Client
	helpLink        string
	logger          *zap.SugaredLogger
}

func NewCommandHandler(
	schedulerConfig configs.Scheduler,
	engine poll.Engine,
	polls repositories.PollRepository,
	tasks repositories.ScheduleTaskRepository,
	client platform.Client,
	helpLink string,
	logger *zap.SugaredLogger,
) *CommandHandler {
	return &CommandHandler{
		schedulerConfig: schedulerConfig,
		engine:          engine,
		polls:           polls,
		tasks:           tasks,
		client:          client,
		helpLink:        helpLink,
		logger:          logger,
	}
}

func (h *CommandHandler) Handle(w http.ResponseWriter, r *http.Request) {
	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		h.logger.Warnw("failed to parse slash command", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	command, err := parser.Parse(cmd.Text)
	if err != nil {
		respondEphemeral(w, h.usageText(err))
		return
	}

	switch command.Kind {
	case parser.KindHelp:
		respondEphemeral(w, h.helpText())
	case parser.KindCreate:
		h.handleCreate(r.Context(), w, cmd, command.Create)
	case parser.KindSchedule:
		h.handleSchedule(r.Context(), w, cmd, command.Schedule)
	case parser.KindScheduleOff:
		h.handleScheduleOff(r.Context(), w, cmd, command.Schedule)
	}
}

func (h *CommandHandler) handleCreate(ctx context.Context, w http.ResponseWriter, cmd slack.SlashCommand, args parser.CreateArgs) {
	definition := &models.Poll{
		Team:          cmd.TeamID,
		Channel:       cmd.ChannelID,
		CreatedUserID: cmd.UserID,
		Question:      args.Question,
		Options:       args.Options,
		Anonymous:     args.Anonymous,
		Limited:       args.Limited,
		Limit:         args.Limit,
		Hidden:        args.Hidden,
		AddChoice:     args.AddChoice,
		MenuAtEnd:     args.MenuAtEnd,
		CreatedCmd:    cmd.Text,
	}

	view, err := h.engine.Create(ctx, definition)
	if err != nil {
		h.logger.Errorw("failed to create poll", "error", err)
		respondEphemeral(w, "Could not create the poll, please try again.")
		return
	}

	if _, err = h.client.Post(ctx, cmd.ChannelID, view); err != nil {
		h.logger.Errorw("failed to post poll", "pollID", definition.ID, "error", err)
		respondEphemeral(w, "The poll was created but could not be posted to this channel.")
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *CommandHandler) handleSchedule(ctx context.Context, w http.ResponseWriter, cmd slack.SlashCommand, args parser.ScheduleArgs) {
	definition, err := h.polls.GetOne(ctx, args.PollID)
	if err != nil {
		h.logger.Errorw("failed to load poll", "pollID", args.PollID, "error", err)
		respondEphemeral(w, "Could not look up that poll, please try again.")
		return
	}
	if definition == nil {
		respondEphemeral(w, "No poll with that ID exists.")
		return
	}
	if definition.CreatedUserID != cmd.UserID {
		respondEphemeral(w, "Only the poll creator can schedule it.")
		return
	}

	schedule, err := scheduler.ParseCron(args.Cron)
	if err != nil {
		respondEphemeral(w, fmt.Sprintf("%q is not a valid cron expression.", args.Cron))
		return
	}

	maxRuns := args.MaxRuns
	if maxRuns == 0 {
		maxRuns = h.schedulerConfig.MaxRuns
	}

	next := schedule.Next(time.Now().UTC())

	task := &models.ScheduleTask{
		PollID:        args.PollID,
		NextTS:        next,
		CronString:    args.Cron,
		RunMax:        maxRuns,
		IsEnable:      true,
		PollCh:        args.Channel,
		CreatedUserID: cmd.UserID,
	}

	if err = h.tasks.Upsert(ctx, task); err != nil {
		h.logger.Errorw("failed to save schedule", "pollID", args.PollID, "error", err)
		respondEphemeral(w, "Could not save the schedule, please try again.")
		return
	}

	respondEphemeral(w, fmt.Sprintf("Scheduled. Next run at %s, up to %d run%s.", next.Format(time.RFC1123), maxRuns, pluralRuns(maxRuns)))
}

func (h *CommandHandler) handleScheduleOff(ctx context.Context, w http.ResponseWriter, cmd slack.SlashCommand, args parser.ScheduleArgs) {
	task, err := h.tasks.GetOne(ctx, args.PollID)
	if err != nil {
		h.logger.Errorw("failed to load schedule", "pollID", args.PollID, "error", err)
		respondEphemeral(w, "Could not look up that schedule, please try again.")
		return
	}
	if task == nil {
		respondEphemeral(w, "No schedule exists for that poll.")
		return
	}
	if task.CreatedUserID != cmd.UserID {
		respondEphemeral(w, "Only the schedule owner can disable it.")
		return
	}

	task.IsEnable = false
	if err = h.tasks.Update(ctx, task); err != nil {
		h.logger.Errorw("failed to disable schedule", "pollID", args.PollID, "error", err)
		respondEphemeral(w, "Could not disable the schedule, please try again.")
		return
	}

	respondEphemeral(w, "The schedule has been disabled.")
}

func (h *CommandHandler) usageText(err error) string {
	return fmt.Sprintf("%s.\n\n%s", capitalize(err.Error()), h.helpText())
}

func (h *CommandHandler) helpText() string {
	return fmt.Sprintf(`*How to create a poll*
`+"`/poll \"Question\" \"Option 1\" \"Option 2\"`"+`

Prefixes, in any combination before the question:
• `+"`anonymous`"+` hides who voted for what
• `+"`limit N`"+` caps each voter at N votes
• `+"`hidden`"+` keeps results hidden until you reveal them
• `+"`add-choice`"+` lets anyone append options
• `+"`menu-at-end`"+` moves the action menu below the options

Scheduling:
• `+"`/poll schedule <poll_id> \"0 9 * * 1\"`"+` reposts the poll on a cron cadence
• `+"`/poll schedule <poll_id> off`"+` stops it

More at %s`, h.helpLink)
}

type slashResponse struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

func respondEphemeral(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(slashResponse{ResponseType: "ephemeral", Text: text})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func pluralRuns(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
