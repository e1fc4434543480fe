package slack_bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"open_poll_bot/internal/db/models"
	"open_poll_bot/internal/guard"
	"open_poll_bot/internal/platform"
	"open_poll_bot/internal/poll"
	"open_poll_bot/internal/render"
)

const processTimeout = 30 * time.Second

// ActionHandler serves the interaction endpoint: vote buttons, the poll
// menu and the add-choice input. The HTTP request is acknowledged
// immediately; the mutation and the message update run afterwards.
type ActionHandler struct {
	engine poll.Engine
	client platform.Client
	logger *zap.SugaredLogger
}

func NewActionHandler(engine poll.Engine, client platform.Client, logger *zap.SugaredLogger) *ActionHandler {
	return &ActionHandler{
		engine: engine,
		client: client,
		logger: logger,
	}
}

func (h *ActionHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(r.FormValue("payload")), &callback); err != nil {
		h.logger.Warnw("failed to parse interaction payload", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if callback.Type != slack.InteractionTypeBlockActions {
		w.WriteHeader(http.StatusOK)
		return
	}

	// Ack within the platform's deadline; the work continues detached.
	w.WriteHeader(http.StatusOK)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		h.process(ctx, callback)
	}()
}

func (h *ActionHandler) process(ctx context.Context, callback slack.InteractionCallback) {
	instance := models.Instance{
		Team:    callback.Team.ID,
		Channel: callback.Channel.ID,
		TS:      callback.Message.Timestamp,
	}
	seed := render.SeedFromBlocks(callback.Message.Blocks.BlockSet)

	for _, action := range callback.ActionCallback.BlockActions {
		var err error

		switch action.ActionID {
		case render.ActionVote:
			err = h.handleVote(ctx, callback, instance, action, seed)
		case render.ActionMenu:
			err = h.handleMenu(ctx, callback, instance, action, seed)
		case render.ActionAddChoice:
			err = h.handleAddChoice(ctx, callback, instance, action, seed)
		default:
			h.logger.Warnw("received unknown action", "actionID", action.ActionID)
			continue
		}

		if err != nil {
			h.report(ctx, callback, err)
		}
	}
}

func (h *ActionHandler) handleVote(ctx context.Context, callback slack.InteractionCallback, instance models.Instance, action *slack.BlockAction, seed map[int][]string) error {
	value, err := render.DecodeVoteButtonValue(action.Value)
	if err != nil {
		return errors.Wrap(err, "failed to decode vote button value")
	}

	view, err := h.engine.ToggleVote(ctx, instance, value.PollID, value.Option, callback.User.ID, seed)
	if err != nil {
		return err
	}

	return h.client.Update(ctx, instance.Channel, instance.TS, view)
}

func (h *ActionHandler) handleMenu(ctx context.Context, callback slack.InteractionCallback, instance models.Instance, action *slack.BlockAction, seed map[int][]string) error {
	value, err := render.DecodeMenuValue(action.SelectedOption.Value)
	if err != nil {
		return errors.Wrap(err, "failed to decode menu value")
	}

	// The menu value carries the creator; everything but "my votes" is
	// creator-only.
	isOwner := callback.User.ID == value.User

	switch value.Action {
	case render.MenuClose:
		if !isOwner {
			return errNotOwner("close or reopen")
		}
		view, err := h.engine.ToggleClosed(ctx, instance, value.PollID, seed)
		if err != nil {
			return err
		}
		return h.client.Update(ctx, instance.Channel, instance.TS, view)

	case render.MenuReveal:
		if !isOwner {
			return errNotOwner("hide or reveal")
		}
		view, err := h.engine.ToggleHidden(ctx, instance, value.PollID, seed)
		if err != nil {
			return err
		}
		return h.client.Update(ctx, instance.Channel, instance.TS, view)

	case render.MenuDelete:
		if !isOwner {
			return errNotOwner("delete")
		}
		if err := h.engine.Delete(ctx, instance, value.PollID); err != nil {
			return err
		}
		return h.client.Delete(ctx, instance.Channel, instance.TS)

	case render.MenuMyVotes:
		definition, ledger, _, err := h.engine.Snapshot(ctx, instance, value.PollID, seed)
		if err != nil {
			return err
		}
		return h.client.OpenView(ctx, callback.TriggerID, myVotesModal(definition, ledger, callback.User.ID))

	case render.MenuUsersVotes:
		if !isOwner {
			return errNotOwner("list all votes for")
		}
		definition, ledger, _, err := h.engine.Snapshot(ctx, instance, value.PollID, seed)
		if err != nil {
			return err
		}
		return h.client.OpenView(ctx, callback.TriggerID, allVotesModal(definition, ledger))
	}

	h.logger.Warnw("received unknown menu action", "action", value.Action)
	return nil
}

func (h *ActionHandler) handleAddChoice(ctx context.Context, callback slack.InteractionCallback, instance models.Instance, action *slack.BlockAction, seed map[int][]string) error {
	pollID := render.PollIDFromBlockID(action.BlockID)
	if pollID == "" {
		return errors.New("add-choice action without a poll ID")
	}

	option := strings.TrimSpace(action.Value)
	if option == "" {
		return nil
	}

	view, err := h.engine.AddChoice(ctx, instance, pollID, option, seed)
	if err != nil {
		return err
	}

	return h.client.Update(ctx, instance.Channel, instance.TS, view)
}

type ownerOnlyError struct{ verb string }

func (e ownerOnlyError) Error() string {
	return fmt.Sprintf("only the poll creator can %s this poll", e.verb)
}

func errNotOwner(verb string) error {
	return ownerOnlyError{verb: verb}
}

// report translates a rejection into an ephemeral message for the acting
// user. Rejections leave no state behind, so there is nothing to roll back.
func (h *ActionHandler) report(ctx context.Context, callback slack.InteractionCallback, err error) {
	var text string

	var ownerErr ownerOnlyError
	switch {
	case errors.As(err, &ownerErr):
		text = capitalize(ownerErr.Error()) + "."
	case errors.Is(err, poll.ErrPollClosed):
		text = "This poll is closed."
	case errors.Is(err, poll.ErrVoteLimitExceeded):
		text = "You have used all your votes. Remove one before voting again."
	case errors.Is(err, poll.ErrPollNotFound):
		text = "This poll no longer exists."
	case errors.Is(err, poll.ErrDuplicateOption):
		text = "That choice already exists."
	case errors.Is(err, guard.ErrUnavailable):
		text = "The poll is busy right now, please try again."
	default:
		h.logger.Errorw("failed to handle action", "error", err)
		text = "Something went wrong, please try again."
	}

	if err = h.client.PostEphemeral(ctx, callback.Channel.ID, callback.User.ID, text); err != nil {
		h.logger.Errorw("failed to post ephemeral message", "error", err)
	}
}

func myVotesModal(definition *models.Poll, ledger *models.VoteLedger, userID string) slack.ModalViewRequest {
	var lines []string
	for i, option := range definition.Options {
		if ledger.HasVoted(i, userID) {
			lines = append(lines, "• "+option)
		}
	}

	text := "You have not voted in this poll yet."
	if len(lines) > 0 {
		text = strings.Join(lines, "\n")
	}

	return textModal("My votes", text)
}

func allVotesModal(definition *models.Poll, ledger *models.VoteLedger) slack.ModalViewRequest {
	var b strings.Builder
	for i, option := range definition.Options {
		voters := ledger.Voters(i)
		fmt.Fprintf(&b, "*%s*\n", option)
		if len(voters) == 0 {
			b.WriteString("No votes\n\n")
			continue
		}
		for _, voter := range voters {
			fmt.Fprintf(&b, "<@%s> ", voter)
		}
		b.WriteString("\n\n")
	}

	return textModal("All votes", strings.TrimSpace(b.String()))
}

func textModal(title, text string) slack.ModalViewRequest {
	return slack.ModalViewRequest{
		Type:  slack.VTModal,
		Title: slack.NewTextBlockObject(slack.PlainTextType, title, true, false),
		Close: slack.NewTextBlockObject(slack.PlainTextType, "Close", true, false),
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewSectionBlock(
					slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
					nil, nil,
				),
			},
		},
	}
}
