package config

import "time"

// ArchiveSettings holds the document-archival system configuration.
// UserField and MessageField are the custom-field ids patched onto an
// archived document after a successful consume.
type ArchiveSettings struct {
	URL              string        `mapstructure:"url" validate:"omitempty,url"`
	Token            string        `mapstructure:"token"`
	Correspondent    string        `mapstructure:"correspondent"`
	StoragePath      string        `mapstructure:"storage_path"`
	Tags             string        `mapstructure:"tags"`
	UserField        int           `mapstructure:"user_field"`
	MessageField     int           `mapstructure:"message_field"`
	Extensions       []string      `mapstructure:"extensions"`
	TaskPollInterval time.Duration `mapstructure:"task_poll_interval"`
	TaskPollBudget   time.Duration `mapstructure:"task_poll_budget"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
}
