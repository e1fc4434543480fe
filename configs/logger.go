package configs

type Logger struct {
	AppName string `env:"LOGGER_APP_NAME" envDefault:"open_poll_bot"`
	URL     string `env:"LOGGER_URL"`
}
