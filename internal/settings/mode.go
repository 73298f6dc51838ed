package settings

import (
	"encoding/json"
	"fmt"
)

const (
	// EnvMode selects the build mode, only the literal "production" is honoured.
	EnvMode = "NODE_ENV"
	// EnvDevHost is the host the inspection tool is reachable on from the browser.
	EnvDevHost = "DEV_HOST"
)

// Mode is the build variant every derived option is keyed on.
type Mode string

const (
	Development Mode = "development"
	Production  Mode = "production"
)

// Env is an explicit snapshot of the process environment.
type Env map[string]string

// Get returns the value for key, empty when unset.
func (e Env) Get(key string) string {
	return e[key]
}

// ModeFromEnv treats anything other than NODE_ENV=production as development,
// including typos.
func ModeFromEnv(env Env) Mode {
	if env.Get(EnvMode) == string(Production) {
		return Production
	}
	return Development
}

func (m Mode) Dev() bool {
	return m != Production
}

// ScopedNamePattern is the class name template used for CSS modules.
func ScopedNamePattern(m Mode) string {
	return cond(m.Dev(), "[local]--[hash:base64:7]", "[hash:base64:7]")
}

// OutputFilenamePattern is the bundle filename template.
func OutputFilenamePattern(m Mode) string {
	return cond(m.Dev(), "[name].js", "[name].[hash:7].js")
}

const devtoolsPort = 8097

// DevtoolsHint is the connection string handed to the page template for the
// inspection tool. It is disabled outside development.
type DevtoolsHint struct {
	URL string
}

// DevtoolsHintFor builds the hint from DEV_HOST, falling back to localhost.
func DevtoolsHintFor(m Mode, env Env) DevtoolsHint {
	if !m.Dev() {
		return DevtoolsHint{}
	}

	host := env.Get(EnvDevHost)
	if host == "" {
		host = "localhost"
	}

	return DevtoolsHint{URL: fmt.Sprintf("//%s:%d", host, devtoolsPort)}
}

func (h DevtoolsHint) Enabled() bool {
	return h.URL != ""
}

// MarshalJSON renders a disabled hint as false.
func (h DevtoolsHint) MarshalJSON() ([]byte, error) {
	if !h.Enabled() {
		return []byte("false"), nil
	}
	return json.Marshal(h.URL)
}

// MarshalYAML renders a disabled hint as false.
func (h DevtoolsHint) MarshalYAML() (any, error) {
	if !h.Enabled() {
		return false, nil
	}
	return h.URL, nil
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
