package apps

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"morris/internal"
	"morris/internal/pkg/client"
	"morris/internal/pkg/validate"

	"github.com/pkg/errors"
)

// ClientAppCfg configures a ClientApp.
type ClientAppCfg interface {
	ApplyClientApp(*ClientApp) error
}

// ClientApp is the interactive terminal client application.
type ClientApp struct {
	Port uint16 `validate:"required"`
}

// NewClientApp creates a new ClientApp.
func NewClientApp(cfgs ...ClientAppCfg) (*ClientApp, error) {
	app := &ClientApp{}
	for _, cfg := range cfgs {
		if err := cfg.ApplyClientApp(app); err != nil {
			return nil, errors.Wrap(err, "apply ClientApp cfg failed")
		}
	}
	if app.Port == 0 {
		app.Port = internal.Port
	}
	if err := validate.Validate().Struct(app); err != nil {
		return nil, errors.Wrap(err, "validate ClientApp failed")
	}
	return app, nil
}

// Run connects to the server with the display name from args and
// drives a stdin command loop until quit or disconnect.
func (app *ClientApp) Run(ctx context.Context, args []string) error {
	name := "anonymous"
	if len(args) > 1 {
		name = args[1]
	}
	c, err := client.NewClient(
		client.WithServerPort(app.Port),
		client.WithName(name),
	)
	if err != nil {
		return errors.Wrap(err, "create client failed")
	}
	if err := c.Connect(ctx); err != nil {
		return errors.Wrap(err, "connect client failed")
	}
	defer c.Close()
	fmt.Printf("connected as %s (%s)\n", name, c.PlayerID())
	fmt.Println("commands: create [name] | list | join <roomID> | move <0-8> | rematch | sync | quit")

	display := client.NewDisplay()
	go func() {
		for event := range c.Events() {
			display.PrintEvent(c.PlayerID(), event)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "create":
			roomName := ""
			if len(fields) > 1 {
				roomName = strings.Join(fields[1:], " ")
			}
			err = c.CreateRoom(roomName)
		case "list":
			err = c.ListRooms()
		case "join":
			if len(fields) < 2 {
				fmt.Println("usage: join <roomID>")
				continue
			}
			err = c.JoinRoom(fields[1])
		case "move":
			if len(fields) < 2 {
				fmt.Println("usage: move <0-8>")
				continue
			}
			position, convErr := strconv.Atoi(fields[1])
			if convErr != nil {
				fmt.Println("usage: move <0-8>")
				continue
			}
			err = c.MakeMove(position)
		case "rematch":
			err = c.RequestRematch()
		case "sync":
			err = c.RequestSync()
		case "quit":
			return errors.Wrap(c.Disconnect(), "disconnect failed")
		default:
			fmt.Printf("unknown command %q\n", fields[0])
			continue
		}
		if err != nil {
			return errors.Wrap(err, "send command failed")
		}
	}
	return errors.Wrap(scanner.Err(), "read stdin failed")
}
