// Package slack_bot is the HTTP receiver: it verifies request signatures,
// parses slash commands and interaction callbacks, and dispatches them to
// the poll engine.
package slack_bot

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"open_poll_bot/configs"
)

type Bot struct {
	config   configs.Slack
	commands *CommandHandler
	actions  *ActionHandler
	logger   *zap.SugaredLogger
}

func NewBot(config configs.Slack, commands *CommandHandler, actions *ActionHandler, logger *zap.SugaredLogger) *Bot {
	return &Bot{
		config:   config,
		commands: commands,
		actions:  actions,
		logger:   logger,
	}
}

// Start blocks serving the receiver endpoints.
func (b *Bot) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/slack/commands", b.verified(b.commands.Handle))
	mux.HandleFunc("/slack/actions", b.verified(b.actions.Handle))
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})

	b.logger.Infow("starting receiver", "port", b.config.Port)
	return http.ListenAndServe(fmt.Sprintf(":%d", b.config.Port), mux)
}

// verified rejects requests whose signature does not match the signing
// secret. The body is restored for the wrapped handler.
func (b *Bot) verified(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		verifier, err := slack.NewSecretsVerifier(r.Header, b.config.SigningSecret)
		if err != nil {
			b.logger.Warnw("failed to build signature verifier", "error", err)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if _, err = verifier.Write(body); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if err = verifier.Ensure(); err != nil {
			b.logger.Warnw("rejected request with bad signature", "error", err)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}
