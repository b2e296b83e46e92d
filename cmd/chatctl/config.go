package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr   string `envconfig:"CHATCTL_ADDR" default:"localhost:9090"`
	Secret string `envconfig:"CHATCTL_SECRET" required:"true"`
	// CHATCTL_COLOURS enables colorized output
	Colours bool `envconfig:"CHATCTL_COLOURS" default:"true"`
	// CHATCTL_VERBOSE logs every gRPC call with its status and duration
	Verbose bool          `envconfig:"CHATCTL_VERBOSE" default:"false"`
	Timeout time.Duration `envconfig:"CHATCTL_TIMEOUT" default:"5s"`
	Subject string        `envconfig:"CHATCTL_SUBJECT" default:"chatctl"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
