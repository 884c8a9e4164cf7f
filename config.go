package issueenvelope

import "strings"

// Category names a dispatch handler. Built-in issue type names are
// categories; CategoryCustom covers domain errors with a service-defined
// reporting issue type and CategoryUnknown is the catch-all.
type Category string

const (
	CategoryCustom  Category = "CUSTOM"
	CategoryUnknown Category = "UNKNOWN"
)

// Categories returns every category a Config can switch.
func Categories() []Category {
	out := make([]Category, 0, len(builtinIssueTypes)+1)
	for _, t := range builtinIssueTypes {
		out = append(out, Category(t.name))
	}
	return append(out, CategoryCustom)
}

// Config switches dispatch handlers on and off. Categories missing from
// Handlers.Enabled are enabled.
type Config struct {
	Handlers HandlersConfig `yaml:"handlers" mapstructure:"handlers"`
}

// HandlersConfig maps a category name to its enabled flag.
type HandlersConfig struct {
	Enabled map[string]bool `yaml:"enabled" mapstructure:"enabled"`
}

// Enabled reports whether the handler for category is active. Keys match
// case-insensitively since config loaders may lower-case map keys. When
// several spellings of one category are present, any false entry wins.
func (c Config) Enabled(category Category) bool {
	for k, v := range c.Handlers.Enabled {
		if !v && strings.EqualFold(k, string(category)) {
			return false
		}
	}
	return true
}

// Disable returns a copy of c with the given categories switched off.
func (c Config) Disable(categories ...Category) Config {
	out := Config{Handlers: HandlersConfig{Enabled: make(map[string]bool, len(c.Handlers.Enabled)+len(categories))}}
	for k, v := range c.Handlers.Enabled {
		key := strings.ToUpper(k)
		if prev, seen := out.Handlers.Enabled[key]; seen {
			v = v && prev
		}
		out.Handlers.Enabled[key] = v
	}
	for _, cat := range categories {
		out.Handlers.Enabled[string(cat)] = false
	}
	return out
}
