// Package style associates layers with styles and handles SLD style files.
package style

import "strings"

// Match associates each layer with the style whose name is the longest
// substring of the layer name. Among matching styles of equal length the one
// appearing last in styles wins. A layer with no matching style maps to nil.
//
// Every layer has an entry in the returned map; duplicate layers collapse to
// a single entry.
func Match(layers, styles []string) map[string]*string {
	associations := make(map[string]*string, len(layers))
	for _, layer := range layers {
		var (
			best    *string
			bestLen int
		)
		for _, style := range styles {
			if strings.Contains(layer, style) && len(style) >= bestLen {
				best = &style
				bestLen = len(style)
			}
		}
		associations[layer] = best
	}
	return associations
}
