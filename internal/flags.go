package internal

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Flag binds one settings variable to a cobra command flag.
type Flag struct {
	Name     string
	Usage    string
	register func(cmd *cobra.Command) error
}

// Flags available to the CLI.
var (
	PortFlag = Flag{
		Name:  "port",
		Usage: "TCP port the server listens on and the client dials",
		register: func(cmd *cobra.Command) error {
			cmd.PersistentFlags().Uint16Var(&Port, "port", Port, "TCP port the server listens on and the client dials")
			return nil
		},
	}
	LogLevelFlag = Flag{
		Name:  "log-level",
		Usage: "log level: trace, debug, info, warn, error",
		register: func(cmd *cobra.Command) error {
			cmd.PersistentFlags().StringVar(&LogLevel, "log-level", LogLevel, "log level: trace, debug, info, warn, error")
			return nil
		},
	}
	SendQueueSizeFlag = Flag{
		Name:  "send-queue-size",
		Usage: "outbound envelopes buffered per connection before eviction",
		register: func(cmd *cobra.Command) error {
			cmd.PersistentFlags().IntVar(&SendQueueSize, "send-queue-size", SendQueueSize, "outbound envelopes buffered per connection before eviction")
			return nil
		},
	}
)

// RegisterCommandFlags attaches the given flags to a command.
func RegisterCommandFlags(cmd *cobra.Command, flags []*Flag) error {
	for _, flag := range flags {
		if err := flag.register(cmd); err != nil {
			return errors.Wrapf(err, "register flag %s failed", flag.Name)
		}
	}
	return nil
}
