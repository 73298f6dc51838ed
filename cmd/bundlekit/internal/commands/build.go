package commands

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/bundlekit/internal/assets"
)

// BuildCmd bundles the project once.
type BuildCmd struct {
	ProjectFlags `embed:""`
}

func (cmd *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	s, env, err := loadSettings(globals, cmd.ProjectFlags)
	if err != nil {
		return err
	}

	pipeline, err := assets.New(s, env)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := pipeline.Build(); err != nil {
		return err
	}

	log.Info().
		Str("mode", string(s.Mode)).
		Str("outdir", s.Output.Path).
		Dur("duration", time.Since(start)).
		Msg("Build complete")

	return nil
}
