package rotation

var descriptions = map[string]string{
	"white": "flat spectrum, equal energy per hertz, bright hiss",
	"pink":  "energy falls 3 dB per octave, equal energy per octave, rainfall",
	"red":   "energy falls 6 dB per octave, Brownian walk, distant surf",
}

var colorAdjectives = map[string][]string{
	"white": {"Static", "Bright", "Open", "Hissing", "Crisp", "Airy"},
	"pink":  {"Steady", "Soft", "Falling", "Rain", "Even", "Waterfall"},
	"red":   {"Deep", "Rumbling", "Drifting", "Distant", "Heavy", "Tidal"},
}

// Describe returns a one-line description of a color's spectrum.
func Describe(color string) string {
	if d, ok := descriptions[color]; ok {
		return d
	}
	return color + " noise"
}

// ClipName builds a deterministic display name from color and clip ID.
func ClipName(color, clipID string) string {
	if color == "" || clipID == "" {
		return ""
	}

	adjs := colorAdjectives[color]
	if len(adjs) == 0 {
		return color + " noise"
	}

	var h int
	for i := 0; i < len(clipID) && i < 8; i++ {
		h = h*31 + int(clipID[i])
	}
	if h < 0 {
		h = -h
	}

	return adjs[h%len(adjs)] + " " + color
}
