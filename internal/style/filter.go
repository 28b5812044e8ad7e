package style

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Filter selects style names by glob pattern, e.g. "bc250_*". The zero value
// selects every name.
type Filter struct {
	pattern string
	g       glob.Glob
}

// NewFilter compiles the pattern. An empty pattern selects every name.
func NewFilter(pattern string) (Filter, error) {
	if pattern == "" {
		return Filter{}, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return Filter{}, fmt.Errorf("invalid style pattern %q: %w", pattern, err)
	}
	return Filter{pattern: pattern, g: g}, nil
}

// Match reports whether the name is selected.
func (f Filter) Match(name string) bool {
	if f.g == nil {
		return true
	}
	return f.g.Match(name)
}

// Apply returns the selected names, preserving order.
func (f Filter) Apply(names []string) []string {
	selected := make([]string, 0, len(names))
	for _, name := range names {
		if f.Match(name) {
			selected = append(selected, name)
		}
	}
	return selected
}

func (f Filter) String() string {
	if f.pattern == "" {
		return "*"
	}
	return f.pattern
}
