package assets

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/bundlekit/internal/cssmodule"
	"github.com/wolfeidau/bundlekit/internal/settings"
)

// ErrBuildFailed is returned when esbuild reports errors.
var ErrBuildFailed = errors.New("esbuild failed with errors")

// Options returns the esbuild options for the settings. stats selects the
// warning filter, the top level one for builds and the dev server one when
// serving.
func (p *Pipeline) Options(stats settings.Stats) api.BuildOptions {
	s := p.settings

	opts := api.BuildOptions{
		AbsWorkingDir:       p.config.Root,
		EntryPointsAdvanced: p.config.EntryPoints,
		Bundle:              true,
		Splitting:           true,
		Write:               true,
		JSX:                 api.JSXAutomatic,
		Outdir:              p.config.OutputDir,
		EntryNames:          p.config.EntryNames,
		ChunkNames:          p.config.ChunkNames,
		AssetNames:          "assets/[name]-[hash]",
		Format:              api.FormatESModule,
		Target:              api.ES2017,
		MinifyWhitespace:    p.config.Minify,
		MinifyIdentifiers:   p.config.Minify,
		MinifySyntax:        p.config.Minify,
		TreeShaking:         api.TreeShakingTrue,
		Sourcemap:           p.config.SourceMap,
		Metafile:            true,
		LogLevel:            api.LogLevelSilent,
		ResolveExtensions:   s.Resolve.Extensions,
		Loader:              map[string]api.Loader{},
		Define:              map[string]string{},
	}

	pathAliases := map[string]string{}
	for name, target := range s.Resolve.Alias {
		if filepath.IsAbs(target) {
			pathAliases[name] = target
			continue
		}
		if opts.Alias == nil {
			opts.Alias = map[string]string{}
		}
		opts.Alias[name] = target
	}
	if len(pathAliases) > 0 {
		opts.Plugins = append(opts.Plugins, aliasPlugin(pathAliases))
	}

	opts.Plugins = append(opts.Plugins, p.rulePlugins(&opts)...)

	if s.Plugins.Clean != nil {
		opts.Plugins = append(opts.Plugins, p.cleanPlugin())
	}
	maps.Copy(opts.Define, p.defines)

	opts.Plugins = append(opts.Plugins, statsPlugin(stats), p.outputPlugin())

	return opts
}

// rulePlugins maps the transformation rules onto esbuild loaders and plugins.
func (p *Pipeline) rulePlugins(opts *api.BuildOptions) []api.Plugin {
	var plugins []api.Plugin

	for _, rule := range p.settings.Module.Rules {
		for _, step := range rule.Use {
			switch step.Loader {
			case "transpile":
				// babel treated .js as JSX, keep that
				opts.Loader[".js"] = api.LoaderJSX
			case "css-modules":
				pattern, _ := step.Options["localIdentName"].(string)
				if pattern == "" {
					pattern = p.settings.ScopedNamePattern()
				}
				plugins = append(plugins, cssmodule.Plugin(cssmodule.Options{
					Filter:  rule.Test,
					Pattern: pattern,
					Root:    p.settings.Context,
					Engines: cond(hasStep(rule, "postcss-preset-env"), browserEngines, nil),
					Minify:  p.config.Minify,
				}))
			case "url":
				plugins = append(plugins, urlPlugin(rule.Test))
			case "style", "postcss-preset-env", "template":
				// handled by css-modules and the output plugin
			default:
				log.Warn().Str("loader", step.Loader).Str("test", rule.Test).Msg("Unknown transformation step, ignoring")
			}
		}
	}

	return plugins
}

func hasStep(rule settings.Rule, loader string) bool {
	for _, step := range rule.Use {
		if step.Loader == loader {
			return true
		}
	}
	return false
}

// Build runs esbuild with the configured settings and loads metadata
func (p *Pipeline) Build() error {
	log.Info().Str("mode", string(p.settings.Mode)).Str("outdir", p.config.OutputDir).Msg("Building assets")

	result := api.Build(p.Options(p.settings.Stats))

	if len(result.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrBuildFailed, result.Errors[0].Text)
	}

	for _, file := range result.OutputFiles {
		log.Debug().Str("file", file.Path).Msg("Built file")
	}

	return nil
}

// LoadScripts returns the ordered list of script paths needed for the named
// entry and the main entrypoint file path. Paths are rooted at the output
// directory.
func (p *Pipeline) LoadScripts(entry string) ([]string, string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, "", errors.New("assets not built yet, call Build() first")
	}

	var input string
	for _, ep := range p.config.EntryPoints {
		if ep.OutputPath == entry {
			input = p.relRoot(ep.InputPath)
		}
	}
	if input == "" {
		return nil, "", errors.New("entrypoint not configured")
	}

	scripts := []string{}
	visited := make(map[string]bool)

	for outputPath, info := range p.metadata.Outputs {
		if info.EntryPoint == input && strings.HasSuffix(outputPath, ".js") {
			entrypoint := p.publicPath(outputPath)
			scripts = append(scripts, entrypoint)
			visited[outputPath] = true
			p.addDependencies(info, &scripts, visited)
			return scripts, entrypoint, nil
		}
	}

	return nil, "", errors.New("entrypoint not found in metadata")
}

func (p *Pipeline) addDependencies(output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if imp.Kind == "dynamic-import" {
			continue
		}
		if !visited[imp.Path] {
			visited[imp.Path] = true
			*scripts = append(*scripts, p.publicPath(imp.Path))

			if chunkInfo, exists := p.metadata.Outputs[imp.Path]; exists {
				p.addDependencies(chunkInfo, scripts, visited)
			}
		}
	}
}

// relRoot returns path relative to the project root in metafile form.
func (p *Pipeline) relRoot(path string) string {
	rel, err := filepath.Rel(p.config.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// publicPath maps a metafile output path to the URL it is served from.
func (p *Pipeline) publicPath(outputPath string) string {
	abs := filepath.Join(p.config.Root, filepath.FromSlash(outputPath))
	rel, err := filepath.Rel(p.config.OutputDir, abs)
	if err != nil {
		return "/" + outputPath
	}
	return "/" + filepath.ToSlash(rel)
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
