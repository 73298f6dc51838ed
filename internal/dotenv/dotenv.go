// Package dotenv loads the environment snapshot a build is configured from.
package dotenv

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/bundlekit/internal/settings"
)

// Read returns only the variables declared in the file at path. A missing
// file yields an empty set.
func Read(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("path", path).Msg("No env file, using process environment only")
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to parse env file %s: %w", path, err)
	}
	return vars, nil
}

// Load merges the file at path with the process environment. Variables that
// are already set in the process win over the file.
func Load(path string) (settings.Env, error) {
	return load(path, os.Environ())
}

func load(path string, environ []string) (settings.Env, error) {
	vars, err := Read(path)
	if err != nil {
		return nil, err
	}

	env := make(settings.Env, len(vars)+len(environ))
	for k, v := range vars {
		env[k] = v
	}
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}

	return env, nil
}
