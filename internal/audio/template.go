package audio

import (
	"gonum.org/v1/gonum/floats"

	"github.com/strumspace/strumspace/internal/chord"
)

// Unknown is reported when no template matches well enough.
const Unknown = "Unknown"

// DefaultThreshold is the cosine similarity a template must exceed to be reported.
const DefaultThreshold = 0.7

// Template is a binary pitch class profile for one chord.
type Template struct {
	Name    string
	Profile []float64
}

// NewTemplate builds a template with ones at the given pitch classes.
func NewTemplate(name string, classes ...int) Template {
	p := make([]float64, 12)
	for _, c := range classes {
		p[((c%12)+12)%12] = 1
	}
	return Template{Name: name, Profile: p}
}

// DefaultTemplates returns the basic triad templates, in match priority order.
func DefaultTemplates() []Template {
	return []Template{
		NewTemplate("C", 0, 4, 7),
		NewTemplate("G", 7, 11, 2),
		NewTemplate("D", 2, 6, 9),
		NewTemplate("A", 9, 1, 4),
		NewTemplate("E", 4, 8, 11),
		NewTemplate("Em", 4, 7, 11),
		NewTemplate("Am", 9, 0, 4),
		NewTemplate("Dm", 2, 5, 9),
	}
}

// TableTemplates extends base with a template for every chord in the table
// that base does not already cover, built from the pitch classes of its voicing.
func TableTemplates(base []Template, t *chord.Table) []Template {
	seen := make(map[string]bool, len(base))
	out := make([]Template, 0, len(base)+t.Len())
	for _, tpl := range base {
		seen[tpl.Name] = true
		out = append(out, tpl)
	}
	for _, c := range t.List("") {
		name := c.Label()
		if seen[name] || len(c.Positions) == 0 {
			continue
		}
		seen[name] = true
		out = append(out, NewTemplate(name, chord.PitchClasses(c)...))
	}
	return out
}

// Match returns the template closest to chroma by cosine similarity together
// with its score. Earlier templates win ties. When the best score does not
// exceed threshold the name is Unknown.
func Match(chroma []float64, templates []Template, threshold float64) (string, float64) {
	best, bestScore := Unknown, 0.0

	cn := floats.Norm(chroma, 2)
	if cn == 0 {
		return Unknown, 0
	}
	for _, tpl := range templates {
		tn := floats.Norm(tpl.Profile, 2)
		if tn == 0 {
			continue
		}
		score := floats.Dot(chroma, tpl.Profile) / (cn * tn)
		if score > bestScore {
			best, bestScore = tpl.Name, score
		}
	}

	if bestScore <= threshold {
		return Unknown, bestScore
	}
	return best, bestScore
}
