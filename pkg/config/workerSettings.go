package config

import "time"

// WorkerSettings paces the worker engine: the per-worker trigger
// period, the retry cap, and the randomized re-push windows.
type WorkerSettings struct {
	TickInterval     time.Duration `mapstructure:"tick_interval"`
	MaxAttempts      int           `mapstructure:"max_attempts"`
	RetryMin         time.Duration `mapstructure:"retry_min"`
	RetryMax         time.Duration `mapstructure:"retry_max"`
	TranscodeWaitMin time.Duration `mapstructure:"transcode_wait_min"`
	TranscodeWaitMax time.Duration `mapstructure:"transcode_wait_max"`
}
