package configs

type Slack struct {
	BotToken      string `env:"SLACK_BOT_TOKEN,notEmpty"`
	SigningSecret string `env:"SLACK_SIGNING_SECRET,notEmpty"`
	Command       string `env:"SLACK_COMMAND" envDefault:"poll"`
	Port          int    `env:"PORT" envDefault:"3000"`
	HelpLink      string `env:"HELP_LINK" envDefault:"https://github.com/open-poll/open-poll-bot"`
}
