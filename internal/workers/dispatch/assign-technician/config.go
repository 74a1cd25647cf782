package assigntechnician

import (
	"time"

	"technician-dispatch/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// NewConfig bounds a job by the worker's activation timeout.
func NewConfig(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Config{Timeout: timeout}
}
