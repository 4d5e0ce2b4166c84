package arranger

import (
	"maps"
	"slices"
)

// RhythmTemplate defines timing and accent patterns for musical elements
type RhythmTemplate struct {
	Name string
	// Beats is the cycle the offsets are written against; it is stretched
	// to the action's length.
	Beats float64
	// Offsets within one cycle, in beats
	Offsets []float64
	// Velocity multipliers for accents (1.0 = normal)
	Accents []float64
	// Duration multiplier applied to each hit
	Articulation float64
}

const (
	articulationFull    = 1.0
	articulationHigh    = 0.9
	articulationMidHigh = 0.85
	articulationMedium  = 0.8
	articulationShort   = 0.4
	articulationOverlap = 1.1
)

var rhythmTemplates = buildRhythmTemplates([]RhythmTemplate{
	// Subdivisions
	{"whole", 4, []float64{0}, []float64{1.0}, articulationFull},
	{"half", 4, []float64{0, 2}, []float64{1.0, 0.9}, articulationFull},
	{"quarters", 4, []float64{0, 1, 2, 3}, []float64{1.0, 0.8, 0.9, 0.8}, articulationHigh},
	{"8ths", 4, []float64{0, 0.5, 1, 1.5, 2, 2.5, 3, 3.5}, []float64{1.0, 0.7, 0.9, 0.7, 0.95, 0.7, 0.9, 0.7}, articulationMidHigh},
	{"16ths", 4,
		[]float64{0, 0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2, 2.25, 2.5, 2.75, 3, 3.25, 3.5, 3.75},
		[]float64{1.0, 0.6, 0.8, 0.6, 0.9, 0.6, 0.8, 0.6, 0.95, 0.6, 0.8, 0.6, 0.9, 0.6, 0.8, 0.6},
		articulationMedium},

	// Triplet feel
	{"swing", 4, []float64{0, 0.67, 1, 1.67, 2, 2.67, 3, 3.67}, []float64{1.0, 0.7, 0.9, 0.7, 0.95, 0.7, 0.9, 0.7}, articulationMidHigh},
	{"shuffle", 4, []float64{0, 0.67, 1, 1.67, 2, 2.67, 3, 3.67}, []float64{1.0, 0.8, 0.9, 0.8, 1.0, 0.8, 0.9, 0.8}, articulationHigh},

	// Latin; bossa spans two bars
	{"bossa", 8, []float64{0, 1.5, 3, 4.5, 6, 7.5}, []float64{1.0, 0.8, 0.9, 0.8, 1.0, 0.8}, articulationHigh},
	{"samba", 4, []float64{0, 0.5, 1.5, 2, 3, 3.5}, []float64{1.0, 0.7, 0.9, 0.85, 0.95, 0.7}, articulationMedium},
	{"tresillo", 4, []float64{0, 1.5, 3}, []float64{1.0, 0.9, 0.95}, articulationHigh},

	// Three-beat cycles
	{"waltz", 3, []float64{0, 1, 2}, []float64{1.0, 0.7, 0.75}, articulationHigh},
	{"6/8", 3, []float64{0, 0.5, 1, 1.5, 2, 2.5}, []float64{1.0, 0.6, 0.7, 0.9, 0.6, 0.7}, articulationMidHigh},

	// Syncopation
	{"offbeat", 4, []float64{0.5, 1.5, 2.5, 3.5}, []float64{0.9, 0.85, 0.9, 0.85}, articulationMidHigh},
	{"syncopated", 4, []float64{0, 0.5, 1.5, 2, 3, 3.5}, []float64{1.0, 0.8, 0.9, 0.85, 0.95, 0.8}, articulationMidHigh},
	{"anticipation", 4, []float64{0, 1, 1.75, 3, 3.75}, []float64{1.0, 0.8, 0.9, 0.85, 0.9}, articulationMidHigh},

	// Broken-chord figures
	{"broken", 4, []float64{0, 0.5, 1, 1.5}, []float64{1.0, 0.8, 0.85, 0.75}, articulationHigh},
	{"alberti", 4, []float64{0, 0.25, 0.5, 0.75}, []float64{1.0, 0.7, 0.85, 0.7}, articulationMidHigh},
	{"stride", 4, []float64{0, 1, 2, 3}, []float64{1.0, 0.8, 0.9, 0.8}, articulationHigh},

	// Articulation only
	{"staccato", 4, []float64{0, 1, 2, 3}, []float64{1.0, 0.9, 0.95, 0.9}, articulationShort},
	{"legato", 4, []float64{0, 1, 2, 3}, []float64{0.9, 0.85, 0.9, 0.85}, articulationOverlap},
})

func buildRhythmTemplates(list []RhythmTemplate) map[string]RhythmTemplate {
	out := make(map[string]RhythmTemplate, len(list))
	for _, tmpl := range list {
		out[tmpl.Name] = tmpl
	}
	return out
}

// GetRhythmTemplate returns a rhythm template by name
func GetRhythmTemplate(name string) (RhythmTemplate, bool) {
	tmpl, ok := rhythmTemplates[name]
	return tmpl, ok
}

// RhythmNames lists the available rhythm templates.
func RhythmNames() []string {
	return slices.Sorted(maps.Keys(rhythmTemplates))
}

// hit is one onset produced by a template.
type hit struct {
	index    int // position in the cycle
	beat     float64
	duration float64
	velocity int
}

// hits lays a template over [startBeat, startBeat+length) and repeats that
// cycle. Durations are shortened so a hit never runs into the next one or
// past the end of its cycle.
func (t RhythmTemplate) hits(startBeat, length float64, repeat, velocity int) []hit {
	scale := length / t.Beats
	var out []hit
	for r := 0; r < repeat; r++ {
		cycleStart := startBeat + float64(r)*length
		for i, offset := range t.Offsets {
			pos := offset * scale
			if pos >= length {
				break
			}

			accent := velocity
			if i < len(t.Accents) {
				accent = clampVelocity(int(float64(velocity) * t.Accents[i]))
			}

			limit := length - pos
			if i+1 < len(t.Offsets) {
				limit = min(limit, t.Offsets[i+1]*scale-pos)
			}
			duration := min((length/float64(len(t.Offsets)))*t.Articulation, limit)

			out = append(out, hit{
				index:    i,
				beat:     cycleStart + pos,
				duration: duration,
				velocity: accent,
			})
		}
	}
	return out
}
