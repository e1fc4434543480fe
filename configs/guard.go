package configs

import "time"

type Guard struct {
	AttemptTimeout time.Duration `env:"LOCK_ATTEMPT_TIMEOUT" envDefault:"2s"`
}
