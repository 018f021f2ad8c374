package config

import "time"

// LineSettings holds the Messaging API credentials and endpoints.
type LineSettings struct {
	AccessToken    string        `mapstructure:"access_token" validate:"required"`
	ChannelSecret  string        `mapstructure:"channel_secret" validate:"required"`
	APIBase        string        `mapstructure:"api_base" validate:"required,url"`
	ContentAPIBase string        `mapstructure:"content_api_base" validate:"required,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}
