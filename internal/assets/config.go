package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/bundlekit/internal/settings"
)

// ErrEntryNotFound indicates an entry does not resolve to a file with any of
// the configured extensions.
var ErrEntryNotFound = errors.New("entry point not found")

// Config is the esbuild facing view of the build settings.
type Config struct {
	// Project root, esbuild's working directory
	Root string
	// Entry name to resolved source file
	EntryPoints []api.EntryPoint
	// Output directory for built files
	OutputDir string
	// Path to metafile
	MetafilePath string
	// Filename templates in esbuild syntax
	EntryNames string
	ChunkNames string
	// Whether to minify output
	Minify    bool
	SourceMap api.SourceMap
}

// browserEngines are the targets CSS is lowered for when the postcss step is
// configured. None of them support native nesting.
var browserEngines = []api.Engine{
	{Name: api.EngineChrome, Version: "80"},
	{Name: api.EngineFirefox, Version: "78"},
	{Name: api.EngineSafari, Version: "13"},
	{Name: api.EngineEdge, Version: "88"},
}

// NewConfig derives the esbuild configuration from the settings. Entries are
// resolved against the source root using the configured extensions.
func NewConfig(s *settings.BuildSettings) (Config, error) {
	root := filepath.Dir(s.Context)

	names := make([]string, 0, len(s.Entry))
	for name := range s.Entry {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]api.EntryPoint, 0, len(names))
	for _, name := range names {
		input, err := resolveEntry(filepath.Join(s.Context, filepath.FromSlash(s.Entry[name])), s.Resolve.Extensions)
		if err != nil {
			return Config{}, err
		}
		entries = append(entries, api.EntryPoint{InputPath: input, OutputPath: name})
	}

	return Config{
		Root:         root,
		EntryPoints:  entries,
		OutputDir:    s.Output.Path,
		MetafilePath: filepath.Join(s.Output.Path, "meta.json"),
		EntryNames:   entryNames(s.Output.Filename),
		ChunkNames:   chunkNames(s.Optimization.SplitChunks),
		Minify:       s.Mode == settings.Production,
		SourceMap:    sourceMap(s.Devtool),
	}, nil
}

func resolveEntry(base string, extensions []string) (string, error) {
	if info, err := os.Stat(base); err == nil && !info.IsDir() {
		return base, nil
	}

	candidates := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		candidates = append(candidates, base+ext)
	}
	for _, ext := range extensions {
		candidates = append(candidates, filepath.Join(base, "index"+ext))
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrEntryNotFound, base)
}

var hashPlaceholder = regexp.MustCompile(`\[(content)?hash(:\d+)?\]`)

// entryNames converts "[name].[hash:7].js" into esbuild's "[name].[hash]".
func entryNames(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	return hashPlaceholder.ReplaceAllString(name, "[hash]")
}

func chunkNames(split settings.SplitChunks) string {
	if group, ok := split.CacheGroups["commons"]; ok && group.Name != "" {
		return group.Name + "-[hash]"
	}
	return "chunk-[hash]"
}

func sourceMap(devtool string) api.SourceMap {
	switch {
	case devtool == "" || devtool == "false":
		return api.SourceMapNone
	case strings.Contains(devtool, "eval"), strings.Contains(devtool, "inline"):
		return api.SourceMapInline
	default:
		return api.SourceMapLinked
	}
}
