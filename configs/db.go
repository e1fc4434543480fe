package configs

type DB struct {
	URL  string `env:"MONGO_URL,notEmpty"`
	Name string `env:"MONGO_DB_NAME" envDefault:"open_poll"`
}
