package platform

import (
	"context"

	"github.com/pkg/errors"
	"github.com/slack-go/slack"
)

type slackClient struct {
	api *slack.Client
}

func NewSlackClient(botToken string) Client {
	return &slackClient{api: slack.New(botToken)}
}

func (c *slackClient) Post(ctx context.Context, channel string, message Message) (string, error) {
	_, ts, err := c.api.PostMessageContext(
		ctx,
		channel,
		slack.MsgOptionBlocks(message.Blocks...),
		slack.MsgOptionText(message.Text, false),
	)
	if err != nil {
		return "", mapError(err)
	}
	return ts, nil
}

func (c *slackClient) Update(ctx context.Context, channel, ts string, message Message) error {
	_, _, _, err := c.api.UpdateMessageContext(
		ctx,
		channel,
		ts,
		slack.MsgOptionBlocks(message.Blocks...),
		slack.MsgOptionText(message.Text, false),
	)
	return mapError(err)
}

func (c *slackClient) PostEphemeral(ctx context.Context, channel, user, text string) error {
	_, err := c.api.PostEphemeralContext(ctx, channel, user, slack.MsgOptionText(text, false))
	return mapError(err)
}

func (c *slackClient) Delete(ctx context.Context, channel, ts string) error {
	_, _, err := c.api.DeleteMessageContext(ctx, channel, ts)
	return mapError(err)
}

func (c *slackClient) DirectMessage(ctx context.Context, user, text string) error {
	im, _, _, err := c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{user},
	})
	if err != nil {
		return mapError(err)
	}

	_, _, err = c.api.PostMessageContext(ctx, im.ID, slack.MsgOptionText(text, false))
	return mapError(err)
}

func (c *slackClient) OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	_, err := c.api.OpenViewContext(ctx, triggerID, view)
	return mapError(err)
}

// mapError converts the platform's string error codes into the typed errors
// the engines branch on.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch err.Error() {
	case "channel_not_found", "is_archived":
		return errors.Wrap(ErrChannelNotFound, err.Error())
	case "team_not_found":
		return errors.Wrap(ErrTeamNotFound, err.Error())
	case "token_revoked", "account_inactive", "invalid_auth", "not_authed":
		return errors.Wrap(ErrAccessRevoked, err.Error())
	default:
		return err
	}
}
