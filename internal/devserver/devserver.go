// Package devserver serves the development build with esbuild, rebuilding on
// change and notifying pages through esbuild's live reload event stream.
package devserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/bundlekit/internal/assets"
	"github.com/wolfeidau/bundlekit/internal/settings"
)

// Launcher starts the after-start hook without waiting on it.
type Launcher interface {
	Launch(command string)
}

type Server struct {
	settings *settings.BuildSettings
	pipeline *assets.Pipeline
	launcher Launcher
}

func New(s *settings.BuildSettings, pipeline *assets.Pipeline, launcher Launcher) *Server {
	return &Server{
		settings: s,
		pipeline: pipeline,
		launcher: launcher,
	}
}

// Serve builds, watches and serves until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	cfg := s.settings.DevServer

	if cfg.Hot {
		s.pipeline.EnableLiveReload()
	}

	buildCtx, ctxErr := api.Context(s.pipeline.Options(cfg.Stats))
	if ctxErr != nil {
		errs := make([]error, len(ctxErr.Errors))
		for i, msg := range ctxErr.Errors {
			errs[i] = errors.New(msg.Text)
		}
		return fmt.Errorf("failed to create build context: %w", errors.Join(errs...))
	}
	defer buildCtx.Dispose()

	if cfg.Hot {
		if err := buildCtx.Watch(api.WatchOptions{}); err != nil {
			return fmt.Errorf("failed to watch sources: %w", err)
		}
	}

	result, err := buildCtx.Serve(api.ServeOptions{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Servedir: cfg.ContentBase,
	})
	if err != nil {
		return fmt.Errorf("failed to start dev server: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Uint16("port", result.Port).
		Str("dir", cfg.ContentBase).
		Bool("hot", cfg.Hot).
		Msg("Dev server listening")

	if s.launcher != nil && cfg.After.Command != "" {
		s.launcher.Launch(cfg.After.Command)
	}

	<-ctx.Done()

	log.Info().Msg("Stopping dev server")
	return nil
}
