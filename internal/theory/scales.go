package theory

import (
	"fmt"
	"maps"
	"slices"
)

// Built-in scale names.
const (
	ScaleChromatic     = "Chromatic"
	ScaleIonian        = "Ionian"
	ScaleDorian        = "Dorian"
	ScalePhrygian      = "Phrygian"
	ScaleLydian        = "Lydian"
	ScaleMixolydian    = "Mixolydian"
	ScaleAeolian       = "Aeolian"
	ScaleLocrian       = "Locrian"
	ScaleMajor         = "Major"
	ScaleMinor         = "Minor"
	ScaleHarmonicMinor = "Harmonic Minor"
)

const (
	numChromatics          = 12
	middleC                = 60
	defaultReferenceOctave = 4
)

var modeNames = []string{
	ScaleIonian, ScaleDorian, ScalePhrygian, ScaleLydian,
	ScaleMixolydian, ScaleAeolian, ScaleLocrian,
}

// Origin fixes which octave number holds middle C (MIDI 60).
type Origin struct {
	ReferenceOctave int `json:"reference_octave"`
	Shift           int `json:"shift"`
}

// OriginAt returns the origin that puts degree 1 of octave at MIDI 60.
func OriginAt(octave int) Origin {
	return Origin{
		ReferenceOctave: octave,
		Shift:           middleC - octave*numChromatics,
	}
}

// Engine owns the scale registry, the chord tables and the origin. It does
// no locking: concurrent callers must serialize access themselves.
//
// Scales and ChordDegrees are open for direct reads and writes.
type Engine struct {
	// Scales maps a scale name to its semitone offsets within one octave.
	Scales map[string][]int
	// ChordDegrees maps a chord-type token to degrees of the major scale.
	ChordDegrees map[string][]Spec

	nashvilleTypes map[string][]string
	origin         Origin
}

// New returns an engine with the built-in scales and chord tables
// registered and the origin at octave 4.
func New() *Engine {
	e := &Engine{
		Scales:         map[string][]int{ScaleChromatic: {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
		ChordDegrees:   defaultChordDegrees(),
		nashvilleTypes: defaultNashvilleTypes(),
		origin:         OriginAt(defaultReferenceOctave),
	}
	if err := e.bootstrap(); err != nil {
		panic(fmt.Sprintf("theory: bootstrap failed: %v", err))
	}
	return e
}

func (e *Engine) bootstrap() error {
	if err := e.AddScale(ScaleIonian, Specs(1, 3, 5, 6, 8, 10, 12), ScaleChromatic); err != nil {
		return err
	}

	// Each mode starts on the second step of the previous one; shifting
	// down by that step and adding 1 turns offsets into Chromatic degrees.
	for i := 1; i < len(modeNames); i++ {
		prev := e.Scales[modeNames[i-1]]
		delta := prev[1] - prev[0]
		degrees := make([]Spec, 0, len(prev))
		for j := 1; j < len(prev); j++ {
			degrees = append(degrees, Int(prev[j]-delta+1))
		}
		degrees = append(degrees, Int(prev[0]-delta+numChromatics+1))
		if err := e.AddScale(modeNames[i], degrees, ScaleChromatic); err != nil {
			return err
		}
	}

	if err := e.AddScale(ScaleMajor, Specs(1, 2, 3, 4, 5, 6, 7), ScaleIonian); err != nil {
		return err
	}
	if err := e.AddScale(ScaleMinor, Specs(1, 2, "b3", 4, 5, 6, "b7"), ScaleIonian); err != nil {
		return err
	}
	return e.AddScale(ScaleHarmonicMinor, Specs(1, 2, "b3", 4, 5, "b6", 7), ScaleIonian)
}

// AddScale registers name from degrees of relativeScale (Ionian when
// empty), resolved at octave 0 with no shift. Use ScaleChromatic to give
// semitone offsets directly as 1-based degrees. Re-adding a name replaces it.
func (e *Engine) AddScale(name string, degrees []Spec, relativeScale string) error {
	if name == "" {
		return fmt.Errorf("%w: empty scale name", ErrMalformedSpec)
	}
	if relativeScale == "" {
		relativeScale = ScaleIonian
	}
	offsets, err := e.Chromatics(degrees, WithScale(relativeScale), WithOctave(0), WithShift(0))
	if err != nil {
		return fmt.Errorf("scale %q: %w", name, err)
	}
	e.Scales[name] = offsets
	return nil
}

// Scale returns a copy of the offsets registered under name.
func (e *Engine) Scale(name string) ([]int, error) {
	offsets, ok := e.Scales[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScale, name)
	}
	return slices.Clone(offsets), nil
}

// ScaleNames lists the registered scales in name order.
func (e *Engine) ScaleNames() []string {
	return slices.Sorted(maps.Keys(e.Scales))
}

// Origin returns the current origin.
func (e *Engine) Origin() Origin {
	return e.origin
}

// SetOriginOctave makes degree 1 of octave resolve to MIDI 60.
func (e *Engine) SetOriginOctave(octave int) {
	e.origin = OriginAt(octave)
}
