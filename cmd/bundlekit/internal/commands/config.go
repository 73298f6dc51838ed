package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/bundlekit/internal/settings"
	"gopkg.in/yaml.v3"
)

// ConfigCmd prints the settings a build would use.
type ConfigCmd struct {
	ProjectFlags `embed:""`
	Format       string `help:"output format" default:"json" enum:"json,yaml" env:"BUNDLEKIT_FORMAT"`

	out io.Writer
}

func (cmd *ConfigCmd) Run(ctx context.Context, globals *Globals) error {
	s, _, err := loadSettings(globals, cmd.ProjectFlags)
	if err != nil {
		return err
	}

	out := cmd.out
	if out == nil {
		out = os.Stdout
	}

	return writeSettings(out, s, cmd.Format)
}

func writeSettings(w io.Writer, s *settings.BuildSettings, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("failed to encode settings: %w", err)
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("failed to encode settings: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
