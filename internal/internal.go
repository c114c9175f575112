// Package internal holds process-wide configuration sourced from the
// environment and overridable by CLI flags.
package internal

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Settings populated by ValidateEnv and flag registration.
var (
	Port          uint16 = 4242
	LogLevel             = "info"
	SendQueueSize        = 64
)

type env struct {
	Port          uint16 `envconfig:"PORT" default:"4242"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	SendQueueSize int    `envconfig:"SEND_QUEUE_SIZE" default:"64"`
}

// ValidateEnv loads configuration from MORRIS_* environment variables.
// Cobra parses flags before this runs, so only settings still at their
// defaults are overwritten: flags beat the environment.
func ValidateEnv() error {
	var e env
	if err := envconfig.Process("morris", &e); err != nil {
		return errors.Wrap(err, "process env failed")
	}
	if Port == 4242 {
		Port = e.Port
	}
	if LogLevel == "info" {
		LogLevel = e.LogLevel
	}
	if SendQueueSize == 64 {
		SendQueueSize = e.SendQueueSize
	}
	if SendQueueSize <= 0 {
		return errors.New("send queue size must be positive")
	}
	return nil
}
