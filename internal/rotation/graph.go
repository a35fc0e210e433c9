package rotation

import (
	"sort"

	"github.com/satindergrewal/noisemachine/internal/noise"
)

// Color is a node in the color graph.
type Color struct {
	Name     string
	Type     noise.Type
	Adjacent []string
}

// ColorGraph maps color names to their graph nodes. Rotation only follows
// edges, so white and red are always bridged by pink.
var ColorGraph = map[string]*Color{
	"white": {
		Name:     "white",
		Type:     noise.White,
		Adjacent: []string{"pink"},
	},
	"pink": {
		Name:     "pink",
		Type:     noise.Pink,
		Adjacent: []string{"white", "red"},
	},
	"red": {
		Name:     "red",
		Type:     noise.Red,
		Adjacent: []string{"pink"},
	},
}

// ColorNames returns all color names in the graph, sorted.
func ColorNames() []string {
	names := make([]string, 0, len(ColorGraph))
	for name := range ColorGraph {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsValidColor checks if a color exists in the graph.
func IsValidColor(name string) bool {
	_, ok := ColorGraph[name]
	return ok
}
