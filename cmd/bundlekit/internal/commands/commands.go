package commands

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/bundlekit/internal/dotenv"
	"github.com/wolfeidau/bundlekit/internal/logger"
	"github.com/wolfeidau/bundlekit/internal/settings"
)

type Globals struct {
	Debug   bool
	Version string
}

// ProjectFlags locate the project and its configuration sources.
type ProjectFlags struct {
	Root     string `help:"project root directory" default:"." env:"BUNDLEKIT_ROOT" type:"path"`
	EnvFile  string `help:"dotenv file, relative to the root unless absolute" default:".env" env:"BUNDLEKIT_ENV_FILE"`
	Tsconfig string `help:"tsconfig file providing path aliases, relative to the root unless absolute" default:"tsconfig.json" env:"BUNDLEKIT_TSCONFIG"`
}

// loadSettings configures logging, takes the environment snapshot and
// assembles the build settings.
func loadSettings(globals *Globals, flags ProjectFlags) (*settings.BuildSettings, settings.Env, error) {
	logger.Setup(logger.Options{Debug: globals.Debug})

	root, err := filepath.Abs(flags.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	envFile := flags.EnvFile
	if !filepath.IsAbs(envFile) {
		envFile = filepath.Join(root, envFile)
	}

	env, err := dotenv.Load(envFile)
	if err != nil {
		return nil, nil, err
	}

	s, err := settings.Build(env, settings.Options{
		Root:     root,
		Tsconfig: flags.Tsconfig,
		EnvFile:  envFile,
	})
	if err != nil {
		return nil, nil, err
	}

	log.Debug().
		Str("root", root).
		Str("mode", string(s.Mode)).
		Int("aliases", len(s.Resolve.Alias)).
		Msg("Loaded build settings")

	return s, env, nil
}
