package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/bundlekit/internal/dotenv"
	"github.com/wolfeidau/bundlekit/internal/settings"
)

// ErrUnsafeClean indicates the output directory is not strictly inside the
// project root and will not be removed.
var ErrUnsafeClean = errors.New("refusing to clean output directory outside the project")

// aliasPlugin rewrites imports of "name" and "name/rest" to the aliased
// directory and lets esbuild resolve the result with its usual extension and
// index lookup.
func aliasPlugin(aliases map[string]string) api.Plugin {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	// longest first so "@app/ui" wins over "@app"
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	return api.Plugin{
		Name: "alias",
		Setup: func(build api.PluginBuild) {
			for _, name := range names {
				target := aliases[name]
				build.OnResolve(api.OnResolveOptions{Filter: "^" + regexp.QuoteMeta(name) + "(/.*)?$"},
					func(args api.OnResolveArgs) (api.OnResolveResult, error) {
						rest := strings.TrimPrefix(args.Path, name)
						resolved := build.Resolve(filepath.Join(target, filepath.FromSlash(rest)), api.ResolveOptions{
							Importer:   args.Importer,
							ResolveDir: args.ResolveDir,
							Kind:       args.Kind,
						})
						if len(resolved.Errors) > 0 {
							return api.OnResolveResult{Errors: resolved.Errors}, nil
						}
						return api.OnResolveResult{
							Path:      resolved.Path,
							Namespace: resolved.Namespace,
							External:  resolved.External,
						}, nil
					})
			}
		},
	}
}

// urlPlugin inlines matching files as data URLs.
func urlPlugin(filter string) api.Plugin {
	return api.Plugin{
		Name: "url",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: filter, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					data, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					contents := string(data)
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderDataURL}, nil
				})
		},
	}
}

// cleanPlugin empties the output directory before the first build of this
// pipeline. Rebuilds in watch mode keep the directory.
func (p *Pipeline) cleanPlugin() api.Plugin {
	return api.Plugin{
		Name: "clean",
		Setup: func(build api.PluginBuild) {
			build.OnStart(func() (api.OnStartResult, error) {
				var err error
				p.cleanOnce.Do(func() {
					err = cleanDir(p.config.Root, p.config.OutputDir)
				})
				return api.OnStartResult{}, err
			})
		},
	}
}

func cleanDir(root, dir string) error {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s", ErrUnsafeClean, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}

	log.Debug().Str("dir", dir).Int("removed", len(entries)).Msg("Cleaned output directory")
	return nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// dotenvDefines replaces process.env.NAME references with the values from the
// env file, and from the process environment when system variables are on.
func dotenvDefines(mode settings.Mode, plugin *settings.DotenvPlugin, env settings.Env) (map[string]string, error) {
	vars := map[string]string{}

	fileVars, err := dotenv.Read(plugin.Path)
	if err != nil {
		return nil, err
	}
	for k, v := range fileVars {
		vars[k] = v
	}
	if plugin.SystemVars {
		for k, v := range env {
			vars[k] = v
		}
	}
	vars[settings.EnvMode] = string(mode)

	defines := make(map[string]string, len(vars))
	for k, v := range vars {
		if !identifier.MatchString(k) {
			continue
		}
		quoted, merr := json.Marshal(v)
		if merr != nil {
			continue
		}
		defines["process.env."+k] = string(quoted)
	}

	return defines, nil
}

// statsPlugin reports build messages through zerolog, dropping warnings the
// filter matches.
func statsPlugin(stats settings.Stats) api.Plugin {
	return api.Plugin{
		Name: "stats",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				suppressed := 0
				for _, msg := range result.Warnings {
					if stats.Suppressed(msg.Text) {
						suppressed++
						continue
					}
					log.Warn().Str("warning", msg.Text).Str("file", location(msg)).Msg("Build warning")
				}
				for _, msg := range result.Errors {
					log.Error().Str("error", msg.Text).Str("file", location(msg)).Msg("Build error")
				}
				if suppressed > 0 {
					log.Debug().Int("count", suppressed).Msg("Suppressed filtered warnings")
				}
				return api.OnEndResult{}, nil
			})
		},
	}
}

func location(msg api.Message) string {
	if msg.Location == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", msg.Location.File, msg.Location.Line, msg.Location.Column)
}

const liveReloadSnippet = `<script>new EventSource("/esbuild").addEventListener("change", () => location.reload())</script>`

// outputPlugin writes the metafile, caches the parsed metadata and renders
// the page template after every successful build.
func (p *Pipeline) outputPlugin() api.Plugin {
	return api.Plugin{
		Name: "output",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 {
					return api.OnEndResult{}, nil
				}
				return api.OnEndResult{}, p.writeOutputs(result.Metafile)
			})
		},
	}
}

func (p *Pipeline) writeOutputs(metafile string) error {
	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(metafile), &metadata); err != nil {
		return err
	}

	if err := os.MkdirAll(p.config.OutputDir, 0o755); err != nil {
		return err
	}

	// Write metafile
	if err := os.WriteFile(p.config.MetafilePath, []byte(metafile), 0o600); err != nil {
		return err
	}

	p.mu.Lock()
	p.metadata = &metadata
	p.mu.Unlock()

	if p.settings.Plugins.HTML == nil {
		return nil
	}
	return p.renderPage(p.settings.Plugins.HTML)
}

func (p *Pipeline) renderPage(plugin *settings.HTMLPlugin) error {
	path := plugin.Template
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("template", path).Msg("Page template not found, using default")
		path = ""
	}

	tmpl, err := parseTemplate(path)
	if err != nil {
		return fmt.Errorf("failed to parse page template: %w", err)
	}

	var scripts []string
	for _, ep := range p.config.EntryPoints {
		s, _, err := p.LoadScripts(ep.OutputPath)
		if err != nil {
			return err
		}
		scripts = append(scripts, s...)
	}

	data := map[string]any{
		"Mode":          string(p.settings.Mode),
		"Scripts":       scripts,
		"ReactDevtools": plugin.TemplateParameters.ReactDevtools.URL,
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, data); err != nil {
		return fmt.Errorf("failed to render page template: %w", err)
	}

	page := buf.String()

	p.mu.RLock()
	liveReload := p.liveReload
	p.mu.RUnlock()
	if liveReload {
		if i := strings.LastIndex(page, "</body>"); i >= 0 {
			page = page[:i] + liveReloadSnippet + "\n" + page[i:]
		} else {
			page += liveReloadSnippet + "\n"
		}
	}

	filename := plugin.Filename
	if filename == "" {
		filename = "index.html"
	}

	out := filepath.Join(p.config.OutputDir, filename)
	if err := os.WriteFile(out, []byte(page), 0o600); err != nil {
		return err
	}

	log.Debug().Str("file", out).Strs("scripts", scripts).Msg("Rendered page")
	return nil
}
