package settings

import (
	"regexp"
	"sync"
)

// exportNotFoundFilter matches the false positive "export ... was not found"
// warning emitted for type-only re-exports once TypeScript is stripped
// (babel/babel-loader#603).
const exportNotFoundFilter = "export .+ was not found"

// CompatibilityPatch is the stats override merged into both the top level and
// the dev server section as the last construction step.
func CompatibilityPatch() Stats {
	return Stats{WarningsFilter: exportNotFoundFilter}
}

func applyCompatibilityPatch(s *BuildSettings) {
	patch := CompatibilityPatch()
	s.Stats = patch
	s.DevServer.Stats = patch
}

var (
	filterMu    sync.Mutex
	filterCache = map[string]*regexp.Regexp{}
)

// Suppressed reports whether a warning message is hidden by the filter. An
// invalid filter suppresses nothing.
func (s Stats) Suppressed(message string) bool {
	if s.WarningsFilter == "" {
		return false
	}

	filterMu.Lock()
	re, ok := filterCache[s.WarningsFilter]
	if !ok {
		re, _ = regexp.Compile(s.WarningsFilter)
		filterCache[s.WarningsFilter] = re
	}
	filterMu.Unlock()

	return re != nil && re.MatchString(message)
}
