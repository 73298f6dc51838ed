package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/wolfeidau/bundlekit/internal/assets"
	"github.com/wolfeidau/bundlekit/internal/devserver"
	"github.com/wolfeidau/bundlekit/internal/devtools"
	"github.com/wolfeidau/bundlekit/internal/settings"
)

// ServeCmd runs the development server until interrupted.
type ServeCmd struct {
	ProjectFlags `embed:""`
	Port         int    `help:"override the dev server port" env:"BUNDLEKIT_PORT"`
	Host         string `help:"override the dev server bind address" env:"BUNDLEKIT_HOST"`
}

func (cmd *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	s, env, err := loadSettings(globals, cmd.ProjectFlags)
	if err != nil {
		return err
	}

	serving := cmd.overrides(s)

	pipeline, err := assets.New(serving, env)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return devserver.New(serving, pipeline, devtools.NewLauncher()).Serve(ctx)
}

// overrides returns a copy of s with the command line host and port applied.
func (cmd *ServeCmd) overrides(s *settings.BuildSettings) *settings.BuildSettings {
	serving := *s
	if cmd.Port != 0 {
		serving.DevServer.Port = cmd.Port
	}
	if cmd.Host != "" {
		serving.DevServer.Host = cmd.Host
	}
	return &serving
}
