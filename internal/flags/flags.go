// Package flags provides feature flags read from the flags section of the config.
// Flags are read-only after initialization and unknown names are always off.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/triad/internal/log"
)

const (
	// FlagRenderCache reuses rendered tally boards across runs in watch mode.
	FlagRenderCache = "render-cache"

	// FlagAbortOnDepth turns a dispatch depth overrun into a failed run instead of
	// a crash.
	FlagAbortOnDepth = "abort-on-depth"
)

// Defaults returns every known flag with its default value.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagRenderCache:  true,
		FlagAbortOnDepth: true,
	}
}

// Registry holds feature flag state.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from configured values layered over Defaults. Names that
// are not known flags are logged and ignored.
func New(configured map[string]bool) *Registry {
	flags := Defaults()
	for name, value := range configured {
		if _, known := flags[name]; !known {
			log.Warn(log.CatConfig, "Ignoring unknown feature flag", "flag", name)
			continue
		}
		flags[name] = value
	}
	r := &Registry{flags: flags}
	log.Debug(log.CatConfig, "Feature flags initialized", "flags", r.All())
	return r
}

// Enabled reports whether the named flag is on. Unknown flags and a nil registry
// report false.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	return r.flags[name]
}

// All returns a copy of all flags.
func (r *Registry) All() map[string]bool {
	if r == nil {
		return map[string]bool{}
	}
	return maps.Clone(r.flags)
}

// Names returns the known flag names, sorted.
func Names() []string {
	return slices.Sorted(maps.Keys(Defaults()))
}
