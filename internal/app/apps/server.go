package apps

import (
	"context"

	"morris/internal"
	"morris/internal/pkg/coordinator"
	"morris/internal/pkg/rooms"
	"morris/internal/pkg/server"
	"morris/internal/pkg/session"
	"morris/internal/pkg/validate"

	"github.com/pkg/errors"
)

// ServerAppCfg configures a ServerApp.
type ServerAppCfg interface {
	ApplyServerApp(*ServerApp) error
}

// ServerApp is the morris session server application.
type ServerApp struct {
	Port uint16 `validate:"required"`
}

// NewServerApp creates a new ServerApp.
func NewServerApp(cfgs ...ServerAppCfg) (*ServerApp, error) {
	app := &ServerApp{}
	for _, cfg := range cfgs {
		if err := cfg.ApplyServerApp(app); err != nil {
			return nil, errors.Wrap(err, "apply ServerApp cfg failed")
		}
	}
	if app.Port == 0 {
		app.Port = internal.Port
	}
	if err := validate.Validate().Struct(app); err != nil {
		return nil, errors.Wrap(err, "validate ServerApp failed")
	}
	return app, nil
}

// Run assembles the registry, directory and coordinator and serves
// until the context is cancelled.
func (app *ServerApp) Run(ctx context.Context, _ []string) error {
	registry := session.NewMemoryRegistry()
	directory, err := rooms.NewDirectory()
	if err != nil {
		return errors.Wrap(err, "create directory failed")
	}
	coord, err := coordinator.NewCoordinator(
		coordinator.WithRegistry(registry),
		coordinator.WithDirectory(directory),
	)
	if err != nil {
		return errors.Wrap(err, "create coordinator failed")
	}
	srv, err := server.NewServer(
		server.WithPort(app.Port),
		server.WithHandler(coord),
		server.WithQueueSize(internal.SendQueueSize),
	)
	if err != nil {
		return errors.Wrap(err, "create server failed")
	}
	return errors.Wrap(srv.Run(ctx), "run server failed")
}
