package cssmodule

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
)

// moduleTemplate injects the stylesheet once per file and exports the class
// mapping. The data-file attribute lets a rebuild replace the previous rules.
const moduleTemplate = `const __file = %q;
const __css = %s;
if (typeof document !== "undefined") {
  let s = document.querySelector('style[data-file="' + __file + '"]');
  if (!s) { s = document.createElement("style"); s.dataset.file = __file; document.head.appendChild(s); }
  s.textContent = __css;
}
export default %s;
`

type Options struct {
	// Filter selects the stylesheets to load, a Go regular expression.
	Filter string
	// Pattern is the class name template, see Interpolate.
	Pattern string
	// Root anchors the paths that feed the class name hash.
	Root string
	// Engines are the browsers the injected CSS is lowered for.
	Engines []api.Engine
	Minify  bool
}

// Plugin loads matching stylesheets as scoped, self-injecting JS modules.
func Plugin(opts Options) api.Plugin {
	return api.Plugin{
		Name: "css-modules",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: opts.Filter, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					source, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}

					contents, err := Module(string(source), relPath(opts.Root, args.Path), opts)
					if err != nil {
						return api.OnLoadResult{}, fmt.Errorf("%s: %w", args.Path, err)
					}

					return api.OnLoadResult{
						Contents:   &contents,
						Loader:     api.LoaderJS,
						ResolveDir: filepath.Dir(args.Path),
						WatchFiles: []string{args.Path},
					}, nil
				})
		},
	}
}

// Module turns one stylesheet into the JS module the plugin emits.
func Module(source, path string, opts Options) (string, error) {
	scoped, classes := Rewrite(source, func(local string) string {
		return Interpolate(opts.Pattern, Target{Path: path, Local: local})
	})

	result := api.Transform(scoped, api.TransformOptions{
		Loader:           api.LoaderCSS,
		Sourcefile:       path,
		Engines:          opts.Engines,
		MinifyWhitespace: opts.Minify,
		MinifySyntax:     opts.Minify,
		LogLevel:         api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		errs := make([]error, len(result.Errors))
		for i, msg := range result.Errors {
			errs[i] = errors.New(msg.Text)
		}
		return "", errors.Join(errs...)
	}

	css, err := json.Marshal(string(result.Code))
	if err != nil {
		return "", err
	}
	mapping, err := json.Marshal(classes)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(moduleTemplate, path, css, mapping), nil
}

func relPath(root, path string) string {
	if root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
