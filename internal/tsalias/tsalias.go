// Package tsalias derives module aliases from the compilerOptions.paths table
// of a TypeScript project file.
//
// A paths entry such as "@utils/*": ["./src/utils/*"] becomes the alias
// "@utils" pointing at the absolute directory of "./src/utils". Targets are
// resolved against baseUrl when one is set, otherwise against the directory of
// the file that declares paths. Relative extends chains are followed with the
// extending file taking precedence. An array of extends is applied in order,
// later entries overriding earlier ones.
package tsalias

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

type tsconfig struct {
	Extends         any `json:"extends"`
	CompilerOptions struct {
		BaseURL *string             `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// effective holds the options that survive the extends chain, already
// anchored to absolute directories.
type effective struct {
	baseURL   string
	paths     map[string][]string
	pathsBase string
}

// Resolve reads the project file at path and returns its alias table.
func Resolve(path string) (map[string]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	eff, err := load(abs, map[string]bool{})
	if err != nil {
		return nil, err
	}

	base := eff.pathsBase
	if eff.baseURL != "" {
		base = eff.baseURL
	}

	aliases := make(map[string]string, len(eff.paths))
	for key, targets := range eff.paths {
		if len(targets) == 0 || targets[0] == "" {
			return nil, fmt.Errorf("%w: paths entry %q has no target", ErrMalformed, key)
		}

		name := strings.TrimSuffix(key, "/*")
		if name == "" {
			return nil, fmt.Errorf("%w: paths entry %q has an empty alias", ErrMalformed, key)
		}

		target := strings.TrimSuffix(strings.TrimSuffix(targets[0], "*"), "/")
		aliases[name] = filepath.Join(base, filepath.FromSlash(target))
	}

	return aliases, nil
}

func load(path string, visited map[string]bool) (*effective, error) {
	if visited[path] {
		return nil, fmt.Errorf("%w: %s", ErrExtendsCycle, path)
	}
	visited[path] = true
	defer delete(visited, path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	var cfg tsconfig
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	dir := filepath.Dir(path)

	refs, err := extendsRefs(cfg.Extends)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	eff := &effective{}
	for _, ref := range refs {
		parentPath, err := extendsPath(dir, ref)
		if err != nil {
			return nil, err
		}
		parent, err := load(parentPath, visited)
		if err != nil {
			return nil, err
		}
		eff.merge(parent)
	}

	if cfg.CompilerOptions.BaseURL != nil {
		eff.baseURL = filepath.Join(dir, filepath.FromSlash(*cfg.CompilerOptions.BaseURL))
	}
	if cfg.CompilerOptions.Paths != nil {
		eff.paths = cfg.CompilerOptions.Paths
		eff.pathsBase = dir
	}

	return eff, nil
}

func (e *effective) merge(other *effective) {
	if other.baseURL != "" {
		e.baseURL = other.baseURL
	}
	if other.paths != nil {
		e.paths = other.paths
		e.pathsBase = other.pathsBase
	}
}

// extendsRefs accepts the string and array forms of extends.
func extendsRefs(v any) ([]string, error) {
	switch ext := v.(type) {
	case nil:
		return nil, nil
	case string:
		if ext == "" {
			return nil, nil
		}
		return []string{ext}, nil
	case []any:
		refs := make([]string, 0, len(ext))
		for _, item := range ext {
			ref, ok := item.(string)
			if !ok || ref == "" {
				return nil, fmt.Errorf("extends entries must be non-empty strings, got %v", item)
			}
			refs = append(refs, ref)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("extends must be a string or an array, got %T", v)
	}
}

// extendsPath only supports file references; package references would need
// node_modules resolution.
func extendsPath(dir, ref string) (string, error) {
	if !filepath.IsAbs(ref) && !strings.HasPrefix(ref, ".") {
		return "", fmt.Errorf("%w: unsupported extends %q", ErrMalformed, ref)
	}

	p := ref
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, filepath.FromSlash(ref))
	}
	if filepath.Ext(p) != ".json" {
		if _, err := os.Stat(p); err != nil {
			p += ".json"
		}
	}

	return p, nil
}
