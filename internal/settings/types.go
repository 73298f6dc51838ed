package settings

// BuildSettings is the complete bundling configuration for one build
// invocation. It is never mutated after Build returns it.
type BuildSettings struct {
	Mode         Mode              `json:"mode" yaml:"mode"`
	Devtool      string            `json:"devtool" yaml:"devtool"`
	Context      string            `json:"context" yaml:"context"`
	Entry        map[string]string `json:"entry" yaml:"entry"`
	Resolve      Resolve           `json:"resolve" yaml:"resolve"`
	Output       Output            `json:"output" yaml:"output"`
	Optimization Optimization      `json:"optimization" yaml:"optimization"`
	Module       Module            `json:"module" yaml:"module"`
	Plugins      Plugins           `json:"plugins" yaml:"plugins"`
	DevServer    DevServer         `json:"devServer" yaml:"devServer"`
	Stats        Stats             `json:"stats" yaml:"stats"`
}

type Resolve struct {
	Alias      map[string]string `json:"alias" yaml:"alias"`
	Extensions []string          `json:"extensions" yaml:"extensions"`
}

type Output struct {
	Filename string `json:"filename" yaml:"filename"`
	Path     string `json:"path" yaml:"path"`
}

type Optimization struct {
	SplitChunks SplitChunks `json:"splitChunks" yaml:"splitChunks"`
}

type SplitChunks struct {
	CacheGroups map[string]CacheGroup `json:"cacheGroups" yaml:"cacheGroups"`
}

// CacheGroup groups modules whose path matches Test into a shared chunk.
type CacheGroup struct {
	Name   string `json:"name" yaml:"name"`
	Test   string `json:"test" yaml:"test"`
	Chunks string `json:"chunks" yaml:"chunks"`
}

type Module struct {
	Rules []Rule `json:"rules" yaml:"rules"`
}

// Rule applies an ordered list of transformation steps to every file whose
// path matches Test and not Exclude. Both are Go regular expressions.
type Rule struct {
	Test    string `json:"test" yaml:"test"`
	Exclude string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Use     []Step `json:"use" yaml:"use"`
}

// Step is one named transformation with its options.
type Step struct {
	Loader  string         `json:"loader" yaml:"loader"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// Plugins run around the bundling itself, in field order.
type Plugins struct {
	Clean  *CleanPlugin  `json:"clean,omitempty" yaml:"clean,omitempty"`
	Dotenv *DotenvPlugin `json:"dotenv,omitempty" yaml:"dotenv,omitempty"`
	HTML   *HTMLPlugin   `json:"html,omitempty" yaml:"html,omitempty"`
}

// CleanPlugin empties the output directory before the first build.
type CleanPlugin struct{}

// DotenvPlugin substitutes process.env references at build time.
type DotenvPlugin struct {
	Path       string `json:"path" yaml:"path"`
	SystemVars bool   `json:"systemvars" yaml:"systemvars"`
}

// HTMLPlugin renders the page template into the output directory.
type HTMLPlugin struct {
	Template           string             `json:"template" yaml:"template"`
	Filename           string             `json:"filename" yaml:"filename"`
	TemplateParameters TemplateParameters `json:"templateParameters" yaml:"templateParameters"`
}

type TemplateParameters struct {
	ReactDevtools DevtoolsHint `json:"reactDevtools" yaml:"reactDevtools"`
}

type DevServer struct {
	ContentBase string `json:"contentBase" yaml:"contentBase"`
	Host        string `json:"host" yaml:"host"`
	Port        int    `json:"port" yaml:"port"`
	Hot         bool   `json:"hot" yaml:"hot"`
	After       Hook   `json:"after" yaml:"after"`
	Stats       Stats  `json:"stats" yaml:"stats"`
}

// Hook names a command started once the dev server is listening. An empty
// Command disables it.
type Hook struct {
	Command string `json:"command,omitempty" yaml:"command,omitempty"`
}

type Stats struct {
	WarningsFilter string `json:"warningsFilter,omitempty" yaml:"warningsFilter,omitempty"`
}
