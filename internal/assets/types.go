package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"path/filepath"
	"sync"

	"github.com/wolfeidau/bundlekit/internal/settings"
)

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	Imports    []ImportInfo `json:"imports"`
}

type ImportInfo struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// Pipeline turns build settings into esbuild runs and renders the page
// template for each completed build.
type Pipeline struct {
	settings   *settings.BuildSettings
	config     Config
	defines    map[string]string
	metadata   *BuildMetadata
	liveReload bool
	cleanOnce  sync.Once
	mu         sync.RWMutex
}

// New creates a new asset pipeline for the given settings. env feeds the
// dotenv substitution when system variables are enabled. A malformed env file
// fails here.
func New(s *settings.BuildSettings, env settings.Env) (*Pipeline, error) {
	config, err := NewConfig(s)
	if err != nil {
		return nil, err
	}

	defines := map[string]string{}
	if s.Plugins.Dotenv != nil {
		defines, err = dotenvDefines(s.Mode, s.Plugins.Dotenv, env)
		if err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		settings: s,
		config:   config,
		defines:  defines,
	}, nil
}

// Config returns the derived esbuild configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// EnableLiveReload makes rendered pages subscribe to esbuild's change events.
func (p *Pipeline) EnableLiveReload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.liveReload = true
}

func parseTemplate(path string) (*template.Template, error) {
	funcs := template.FuncMap{
		"marshal": marshal,
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec
		},
	}

	if path == "" {
		return template.New("default").Funcs(funcs).Parse(defaultPage)
	}

	return template.New(filepath.Base(path)).Funcs(funcs).ParseFiles(path)
}

const defaultPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
{{- if .ReactDevtools}}
<script src="{{.ReactDevtools}}"></script>
{{- end}}
</head>
<body>
<div id="root"></div>
{{- range .Scripts}}
<script type="module" src="{{.}}"></script>
{{- end}}
</body>
</html>
`

func marshal(value any) string {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		panic(errors.New("context can only be json serializable"))
	}

	return buf.String()
}
