// Package platform abstracts the chat platform's message API behind a small
// client interface with typed error codes, so the engines never see raw SDK
// errors.
package platform

import (
	"context"

	"github.com/pkg/errors"
	"github.com/slack-go/slack"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrTeamNotFound    = errors.New("team not found")
	ErrAccessRevoked   = errors.New("access revoked")
)

// IsTerminal reports whether a post failure cannot be fixed by retrying:
// the channel is gone or the bot's access was revoked.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrChannelNotFound) ||
		errors.Is(err, ErrTeamNotFound) ||
		errors.Is(err, ErrAccessRevoked)
}

// Message is a rendered view ready to be pushed: the Block Kit payload plus
// its plain-text fallback.
type Message struct {
	Blocks []slack.Block
	Text   string
}

type Client interface {
	// Post publishes a new message and returns its timestamp, the second
	// half of the instance key.
	Post(ctx context.Context, channel string, message Message) (string, error)
	Update(ctx context.Context, channel, ts string, message Message) error
	PostEphemeral(ctx context.Context, channel, user, text string) error
	Delete(ctx context.Context, channel, ts string) error
	// DirectMessage opens (or reuses) the IM with the user and posts text.
	DirectMessage(ctx context.Context, user, text string) error
	// OpenView opens a modal in response to an interaction trigger.
	OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) error
}
