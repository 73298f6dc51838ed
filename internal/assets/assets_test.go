package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/bundlekit/internal/settings"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
}

func testProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"tsconfig.json":      `{"compilerOptions": {"paths": {"@utils/*": ["./src/utils/*"]}}}`,
		".env":               "API_URL=https://api.local\n",
		"src/utils/greet.ts": "export const greet = (name: string): string => `hello ${name}`;\n",
		"src/app.css":        ".title { color: red; & .icon { width: 1em; } }\n",
		"src/index.ts": `import { greet } from "@utils/greet";
import styles from "./app.css";

document.title = greet(process.env.API_URL ?? "nobody") + " " + styles.title;
`,
		"src/index.html": `<html><body>
{{- range .Scripts}}<script type="module" src="{{.}}"></script>{{end}}
{{- if .ReactDevtools}}<script src="{{.ReactDevtools}}"></script>{{end}}
</body></html>`,
		"dist/stale.txt": "left over from a previous build",
	})
	return dir
}

func buildSettings(t *testing.T, dir string, env settings.Env) *settings.BuildSettings {
	t.Helper()
	s, err := settings.Build(env, settings.Options{Root: dir})
	require.NoError(t, err)
	return s
}

func TestEntryNames(t *testing.T) {
	require.Equal(t, "[name]", entryNames("[name].js"))
	require.Equal(t, "[name].[hash]", entryNames("[name].[hash:7].js"))
	require.Equal(t, "[name]-[hash]", entryNames("[name]-[contenthash].js"))
}

func TestSourceMap(t *testing.T) {
	require.Equal(t, api.SourceMapInline, sourceMap("cheap-module-eval-source-map"))
	require.Equal(t, api.SourceMapInline, sourceMap("inline-source-map"))
	require.Equal(t, api.SourceMapLinked, sourceMap("source-map"))
	require.Equal(t, api.SourceMapNone, sourceMap(""))
	require.Equal(t, api.SourceMapNone, sourceMap("false"))
}

func TestNewConfig(t *testing.T) {
	dir := testProject(t)
	s := buildSettings(t, dir, settings.Env{settings.EnvMode: "production"})

	cfg, err := NewConfig(s)
	require.NoError(t, err)

	require.Equal(t, dir, cfg.Root)
	require.Equal(t, []api.EntryPoint{
		{InputPath: filepath.Join(dir, "src", "index.ts"), OutputPath: "index"},
	}, cfg.EntryPoints)
	require.Equal(t, filepath.Join(dir, "dist"), cfg.OutputDir)
	require.Equal(t, filepath.Join(dir, "dist", "meta.json"), cfg.MetafilePath)
	require.Equal(t, "[name].[hash]", cfg.EntryNames)
	require.Equal(t, "commons-[hash]", cfg.ChunkNames)
	require.True(t, cfg.Minify)
}

func TestNewConfig_MissingEntry(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"tsconfig.json": `{}`})

	_, err := NewConfig(buildSettings(t, dir, nil))
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestCleanDir(t *testing.T) {
	root := t.TempDir()
	dist := filepath.Join(root, "dist")
	writeFiles(t, root, map[string]string{
		"dist/old.js":        "x",
		"dist/nested/old.js": "x",
		"src/index.ts":       "x",
	})

	require.NoError(t, cleanDir(root, dist))

	entries, err := os.ReadDir(dist)
	require.NoError(t, err)
	require.Empty(t, entries)
	require.FileExists(t, filepath.Join(root, "src", "index.ts"))

	require.NoError(t, cleanDir(root, filepath.Join(root, "missing")))

	require.ErrorIs(t, cleanDir(root, root), ErrUnsafeClean)
	require.ErrorIs(t, cleanDir(root, filepath.Dir(root)), ErrUnsafeClean)
	require.ErrorIs(t, cleanDir(root, filepath.Join(filepath.Dir(root), "elsewhere")), ErrUnsafeClean)
}

func TestDotenvDefines(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	writeFiles(t, dir, map[string]string{".env": "API_URL=https://file\nFEATURE=on\n"})

	env := settings.Env{"API_URL": "https://process", "HOME": "/home/dev", "not-an-ident": "x"}

	defines, err := dotenvDefines(settings.Development, &settings.DotenvPlugin{Path: envFile, SystemVars: true}, env)
	require.NoError(t, err)
	require.Equal(t, `"https://process"`, defines["process.env.API_URL"])
	require.Equal(t, `"on"`, defines["process.env.FEATURE"])
	require.Equal(t, `"/home/dev"`, defines["process.env.HOME"])
	require.Equal(t, `"development"`, defines["process.env.NODE_ENV"])
	require.NotContains(t, defines, "process.env.not-an-ident")

	defines, err = dotenvDefines(settings.Production, &settings.DotenvPlugin{Path: envFile}, env)
	require.NoError(t, err)
	require.Equal(t, `"https://file"`, defines["process.env.API_URL"])
	require.NotContains(t, defines, "process.env.HOME")
	require.Equal(t, `"production"`, defines["process.env.NODE_ENV"])
}

func TestLoadScripts(t *testing.T) {
	dir := t.TempDir()
	p := &Pipeline{
		config: Config{
			Root:        dir,
			OutputDir:   filepath.Join(dir, "dist"),
			EntryPoints: []api.EntryPoint{{InputPath: filepath.Join(dir, "src", "index.tsx"), OutputPath: "index"}},
		},
	}

	_, _, err := p.LoadScripts("index")
	require.Error(t, err)

	p.metadata = &BuildMetadata{Outputs: map[string]OutputInfo{
		"dist/index.js": {
			EntryPoint: "src/index.tsx",
			Imports: []ImportInfo{
				{Path: "dist/commons-AAAA.js", Kind: "import-statement"},
				{Path: "dist/lazy-BBBB.js", Kind: "dynamic-import"},
			},
		},
		"dist/index.js.map":    {},
		"dist/commons-AAAA.js": {Imports: []ImportInfo{{Path: "dist/commons-CCCC.js", Kind: "import-statement"}}},
		"dist/commons-CCCC.js": {},
		"dist/lazy-BBBB.js":    {},
	}}

	scripts, entrypoint, err := p.LoadScripts("index")
	require.NoError(t, err)
	require.Equal(t, "/index.js", entrypoint)
	require.Equal(t, []string{"/index.js", "/commons-AAAA.js", "/commons-CCCC.js"}, scripts)

	_, _, err = p.LoadScripts("admin")
	require.Error(t, err)
}

func TestPipeline_BuildProduction(t *testing.T) {
	dir := testProject(t)
	s := buildSettings(t, dir, settings.Env{settings.EnvMode: "production"})

	p, err := New(s, nil)
	require.NoError(t, err)
	require.NoError(t, p.Build())

	require.NoFileExists(t, filepath.Join(dir, "dist", "stale.txt"))
	require.FileExists(t, filepath.Join(dir, "dist", "meta.json"))

	scripts, entrypoint, err := p.LoadScripts("index")
	require.NoError(t, err)
	require.Regexp(t, `^/index\.[A-Z0-9]+\.js$`, entrypoint)
	require.Contains(t, scripts, entrypoint)

	js, err := os.ReadFile(filepath.Join(dir, "dist", filepath.FromSlash(entrypoint[1:])))
	require.NoError(t, err)
	require.Contains(t, string(js), "https://api.local")

	page, err := os.ReadFile(filepath.Join(dir, "dist", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(page), `src="`+entrypoint+`"`)
	require.NotContains(t, string(page), "8097")
	require.NotContains(t, string(page), "/esbuild")
}

func TestPipeline_BuildDevelopment(t *testing.T) {
	dir := testProject(t)
	s := buildSettings(t, dir, settings.Env{settings.EnvDevHost: "10.0.0.7"})

	p, err := New(s, nil)
	require.NoError(t, err)
	p.EnableLiveReload()
	require.NoError(t, p.Build())

	_, entrypoint, err := p.LoadScripts("index")
	require.NoError(t, err)
	require.Equal(t, "/index.js", entrypoint)

	js, err := os.ReadFile(filepath.Join(dir, "dist", "index.js"))
	require.NoError(t, err)
	require.Contains(t, string(js), "title--")
	require.Contains(t, string(js), "sourceMappingURL=data:")

	page, err := os.ReadFile(filepath.Join(dir, "dist", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(page), `src="/index.js"`)
	require.Contains(t, string(page), `src="//10.0.0.7:8097"`)
	require.Contains(t, string(page), `new EventSource("/esbuild")`)
}

func TestPipeline_BuildError(t *testing.T) {
	dir := testProject(t)
	writeFiles(t, dir, map[string]string{"src/index.ts": `import "@utils/nope";`})

	p, err := New(buildSettings(t, dir, nil), nil)
	require.NoError(t, err)
	require.ErrorIs(t, p.Build(), ErrBuildFailed)
	require.NoFileExists(t, filepath.Join(dir, "dist", "index.html"))
}

func TestParseTemplate_Funcs(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"page.html": `<pre>{{marshal .Scripts | safe}}</pre>`,
	})

	tmpl, err := parseTemplate(filepath.Join(dir, "page.html"))
	require.NoError(t, err)

	buf := new(strings.Builder)
	require.NoError(t, tmpl.Execute(buf, map[string]any{"Scripts": []string{"/index.js"}}))
	require.Contains(t, buf.String(), `<pre>["/index.js"]`)

	tmpl, err = parseTemplate("")
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, tmpl.Execute(buf, map[string]any{"Scripts": []string{"/index.js"}}))
	require.Contains(t, buf.String(), `<script type="module" src="/index.js"></script>`)
	require.NotContains(t, buf.String(), "8097")
}

func TestNew_MalformedEnvFile(t *testing.T) {
	dir := testProject(t)
	writeFiles(t, dir, map[string]string{".env": "A='unterminated\n"})

	p, err := New(buildSettings(t, dir, nil), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse env file")
	require.Nil(t, p)
	require.FileExists(t, filepath.Join(dir, "dist", "stale.txt"))
}
