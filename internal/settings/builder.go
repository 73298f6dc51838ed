// Package settings assembles the front-end build configuration from an
// environment snapshot and the project's tsconfig aliases.
package settings

import (
	"fmt"
	"maps"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/bundlekit/internal/tsalias"
)

const (
	// RendererAlias is always pointed at the hot-reload capable renderer,
	// replacing any alias of the same name from tsconfig.
	RendererAlias         = "react-dom"
	RendererSubstitution  = "@hot-loader/react-dom"
	defaultDevServerHost  = "0.0.0.0"
	defaultDevServerPort  = 8080
	devtoolsCommand       = "react-devtools"
	sourceMapStrategy     = "cheap-module-eval-source-map"
	vendorPattern         = `[\\/]node_modules[\\/]`
	defaultTsconfig       = "tsconfig.json"
	defaultEnvFile        = ".env"
	defaultTemplate       = "index.html"
	defaultOutputFilename = "index.html"
)

// Extensions are tried in order when an import omits one.
var Extensions = []string{".tsx", ".ts", ".jsx", ".js", ".json"}

// Options locate the project on disk.
type Options struct {
	// Root is the project directory, sources live in Root/src and output in Root/dist.
	Root string
	// Tsconfig is the alias source, relative to Root unless absolute. Defaults to tsconfig.json.
	Tsconfig string
	// EnvFile is the dotenv file substituted into the bundle. Defaults to .env.
	EnvFile string
}

// Build derives the mode from env, resolves aliases and assembles the
// settings. A problem with the alias source returns a *ConfigurationError.
func Build(env Env, opts Options) (*BuildSettings, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	tsconfig := projectPath(root, cond(opts.Tsconfig == "", defaultTsconfig, opts.Tsconfig))

	aliases, err := tsalias.Resolve(tsconfig)
	if err != nil {
		return nil, &ConfigurationError{Path: tsconfig, Err: err}
	}

	mode := ModeFromEnv(env)
	src := filepath.Join(root, "src")
	dist := filepath.Join(root, "dist")
	scopedName := ScopedNamePattern(mode)

	alias := resolveAliases(aliases)

	s := &BuildSettings{
		Mode:    mode,
		Devtool: sourceMapStrategy,
		Context: src,
		Entry: map[string]string{
			"index": "./index",
		},
		Resolve: Resolve{
			Alias:      alias,
			Extensions: extensions(),
		},
		Output: Output{
			Filename: OutputFilenamePattern(mode),
			Path:     dist,
		},
		Optimization: Optimization{
			SplitChunks: SplitChunks{
				CacheGroups: map[string]CacheGroup{
					"commons": {
						Name:   "commons",
						Test:   vendorPattern,
						Chunks: "all",
					},
				},
			},
		},
		Module: Module{
			Rules: rules(src, aliases, scopedName),
		},
		Plugins: Plugins{
			Clean: &CleanPlugin{},
			Dotenv: &DotenvPlugin{
				Path:       projectPath(root, cond(opts.EnvFile == "", defaultEnvFile, opts.EnvFile)),
				SystemVars: true,
			},
			HTML: &HTMLPlugin{
				Template: filepath.Join(src, defaultTemplate),
				Filename: defaultOutputFilename,
				TemplateParameters: TemplateParameters{
					ReactDevtools: DevtoolsHintFor(mode, env),
				},
			},
		},
		DevServer: DevServer{
			ContentBase: dist,
			Host:        defaultDevServerHost,
			Port:        defaultDevServerPort,
			Hot:         true,
			After:       Hook{Command: cond(mode.Dev(), devtoolsCommand, "")},
		},
	}

	applyCompatibilityPatch(s)

	return s, nil
}

// resolveAliases copies the tsconfig aliases and forces the renderer
// substitution over any entry with the same name.
func resolveAliases(aliases map[string]string) map[string]string {
	alias := make(map[string]string, len(aliases)+1)
	maps.Copy(alias, aliases)

	if prev, ok := alias[RendererAlias]; ok && prev != RendererSubstitution {
		log.Debug().Str("alias", RendererAlias).Str("tsconfig", prev).Msg("Overriding tsconfig alias with renderer substitution")
	}
	alias[RendererAlias] = RendererSubstitution

	return alias
}

func rules(src string, aliases map[string]string, scopedName string) []Rule {
	return []Rule{
		{
			Test: `\.html$`,
			Use:  []Step{{Loader: "template"}},
		},
		{
			Test:    `\.(ts|js)x?$`,
			Exclude: "node_modules",
			Use: []Step{
				{
					Loader: "transpile",
					Options: map[string]any{
						"jsx":        "automatic",
						"syntax":     []string{"typescript", "class-properties", "object-rest-spread"},
						"context":    src,
						"alias":      maps.Clone(aliases),
						"extensions": extensions(),
						"scopedName": scopedName,
					},
				},
			},
		},
		{
			Test: `\.css$`,
			Use: []Step{
				{Loader: "style"},
				{
					Loader: "css-modules",
					Options: map[string]any{
						"localIdentName": scopedName,
					},
				},
				{
					Loader: "postcss-preset-env",
					Options: map[string]any{
						"stage": 3,
						"features": map[string]any{
							"nesting-rules": true,
						},
					},
				},
			},
		},
		{
			Test: `\.(ttf|png|apng|svg)$`,
			Use:  []Step{{Loader: "url"}},
		},
	}
}

func extensions() []string {
	return append([]string(nil), Extensions...)
}

// ScopedNamePattern returns the CSS module class name template.
func (s *BuildSettings) ScopedNamePattern() string {
	return ScopedNamePattern(s.Mode)
}

// OutputFilenamePattern returns the bundle filename template.
func (s *BuildSettings) OutputFilenamePattern() string {
	return s.Output.Filename
}

// DevServerHost returns the address the dev server binds to.
func (s *BuildSettings) DevServerHost() string {
	return s.DevServer.Host
}

// Devtools returns the inspection tool hint handed to the page template.
func (s *BuildSettings) Devtools() DevtoolsHint {
	if s.Plugins.HTML == nil {
		return DevtoolsHint{}
	}
	return s.Plugins.HTML.TemplateParameters.ReactDevtools
}

// Rule returns the first rule with a step using loader.
func (s *BuildSettings) Rule(loader string) (Rule, Step, bool) {
	for _, r := range s.Module.Rules {
		for _, step := range r.Use {
			if step.Loader == loader {
				return r, step, true
			}
		}
	}
	return Rule{}, Step{}, false
}

func projectPath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
