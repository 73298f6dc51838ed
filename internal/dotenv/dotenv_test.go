package dotenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/bundlekit/internal/settings"
)

func TestRead(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(p, []byte("# local overrides\nAPI_URL=https://api.local\nDEV_HOST=\"10.0.0.5\"\n"), 0o600))

	vars, err := Read(p)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"API_URL":  "https://api.local",
		"DEV_HOST": "10.0.0.5",
	}, vars)
}

func TestRead_Missing(t *testing.T) {
	vars, err := Read(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	require.Empty(t, vars)
}

func TestLoad_ProcessEnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(p, []byte("NODE_ENV=production\nDEV_HOST=from-file\n"), 0o600))

	env, err := load(p, []string{"DEV_HOST=from-process", "PATH=/usr/bin", "EMPTY=", "=C:=C:\\"})
	require.NoError(t, err)

	require.Equal(t, settings.Env{
		"NODE_ENV": "production",
		"DEV_HOST": "from-process",
		"PATH":     "/usr/bin",
		"EMPTY":    "",
	}, env)
	require.Equal(t, settings.Production, settings.ModeFromEnv(env))
}

func TestLoad_UsesProcessEnvironment(t *testing.T) {
	t.Setenv("BUNDLEKIT_TEST_VAR", "set")

	env, err := Load(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	require.Equal(t, "set", env.Get("BUNDLEKIT_TEST_VAR"))
}

func TestRead_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "key without value", content: "JUSTAKEY\n"},
		{name: "unterminated quote", content: "A='unterminated\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), ".env")
			require.NoError(t, os.WriteFile(p, []byte(tt.content), 0o600))

			vars, err := Read(p)
			require.Error(t, err)
			require.Contains(t, err.Error(), "failed to parse env file")
			require.Nil(t, vars)

			env, err := Load(p)
			require.Error(t, err)
			require.Nil(t, env)
		})
	}
}
