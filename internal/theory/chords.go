package theory

import (
	"fmt"
	"maps"
	"slices"
)

// Nashville scale qualities.
const (
	QualityMajor         = "M"
	QualityMinor         = "m"
	QualityHarmonicMinor = "hm"
	QualityMajor7        = "M7"
	QualityMinor7        = "m7"
	QualityHarmonic7     = "hm7"
)

const nashvilleDegrees = 7

// defaultChordDegrees holds chord types as degrees of the major scale.
func defaultChordDegrees() map[string][]Spec {
	return map[string][]Spec{
		"":     Specs(1, 3, 5),
		"M":    Specs(1, 3, 5),
		"Dom":  Specs(1, 3, 5),
		"m":    Specs(1, "b3", 5),
		"+":    Specs(1, 3, "#5"),
		"b5":   Specs(1, 3, "b5"),
		"dim":  Specs(1, "b3", "b5"),
		"aug":  Specs(1, 3, "#5"),
		"sus4": Specs(1, 4, 5),
		"sus2": Specs(1, 2, 5),
		"M6":   Specs(1, 3, 5, 6),
		"m6":   Specs(1, "b3", 5, 6),
		"7":    Specs(1, 3, 5, "b7"),
		"Dom7": Specs(1, 3, 5, "b7"),
		"M7":   Specs(1, 3, 5, 7),
		"m7":   Specs(1, "b3", 5, "b7"),
		"mM7":  Specs(1, "b3", 5, 7),
		"+7":   Specs(1, 3, "#5", "b7"),
		"+M7":  Specs(1, 3, "#5", 7),
		"dim7": Specs(1, "b3", "b5", 6),
		"7b5":  Specs(1, 3, "b5", "b7"),
		"m7b5": Specs(1, "b3", "b5", "b7"),
		"add9": Specs(1, 3, 5, 9),
	}
}

// defaultNashvilleTypes gives the chord type on each degree 1..7 of a scale
// quality.
func defaultNashvilleTypes() map[string][]string {
	return map[string][]string{
		QualityMajor:         {"M", "m", "m", "M", "M", "m", "dim"},
		QualityMinor:         {"m", "dim", "M", "m", "m", "M", "M"},
		QualityHarmonicMinor: {"m", "dim", "aug", "m", "M", "M", "dim"},
		QualityMajor7:        {"M7", "m7", "m7", "M7", "7", "m7", "m7b5"},
		QualityMinor7:        {"m7", "m7b5", "M7", "m7", "m7", "M7", "7"},
		QualityHarmonic7:     {"mM7", "m7b5", "+7", "m7", "7", "M7", "dim7"},
	}
}

// AddChordType registers a chord type as degrees of the major scale,
// replacing any existing entry.
func (e *Engine) AddChordType(token string, degrees []Spec) error {
	for _, d := range degrees {
		if _, err := ParseDegree(d, nil); err != nil {
			return fmt.Errorf("chord type %q: %w", token, err)
		}
	}
	e.ChordDegrees[token] = slices.Clone(degrees)
	return nil
}

// ChordTypes lists the registered chord-type tokens in order.
func (e *Engine) ChordTypes() []string {
	return slices.Sorted(maps.Keys(e.ChordDegrees))
}

// NashvilleQualities lists the scale qualities NashvilleToMidi understands.
func (e *Engine) NashvilleQualities() []string {
	return slices.Sorted(maps.Keys(e.nashvilleTypes))
}

// NashvilleTypes returns the seven chord types of a scale quality.
func (e *Engine) NashvilleTypes(quality string) ([]string, error) {
	types, ok := e.nashvilleTypes[quality]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScaleQuality, quality)
	}
	return slices.Clone(types), nil
}

// DegreesToMidi resolves degrees of a scale rooted at WithRoot. Each
// degree's own :<octave> suffix wins over WithOctave.
//
//	e.DegreesToMidi(Specs(1, "b2", 2))                           // [60 61 62]
//	e.DegreesToMidi(Specs(1, 3, 5, 7), WithShift(64), WithOctave(0)) // M7 on E4
func (e *Engine) DegreesToMidi(degrees []Spec, opts ...Option) ([]int, error) {
	o := e.configure(opts)
	rootIdx, err := NoteIndex(o.root)
	if err != nil {
		return nil, fmt.Errorf("root: %w", err)
	}
	shift := o.shiftOr(e.origin.Shift) + rootIdx
	return e.chromatics(degrees, o.scale, o.octaveOr(e.origin.ReferenceOctave), shift)
}

// NotesToMidi resolves note names such as "C", "D#:2" or "Bb". Only
// WithOctave applies; the origin shift is always used.
func (e *Engine) NotesToMidi(notes []Spec, opts ...Option) ([]int, error) {
	o := e.configure(opts)
	defaultOctave := o.octaveOr(e.origin.ReferenceOctave)
	result := make([]int, 0, len(notes))
	for _, spec := range notes {
		tok, err := ParseNote(spec, &defaultOctave)
		if err != nil {
			return nil, err
		}
		idx, err := NoteIndex(tok.Note)
		if err != nil {
			return nil, err
		}
		n, err := e.resolve(idx+1, 0, ScaleChromatic, *tok.Octave, e.origin.Shift)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, nil
}

// ChordToMidi resolves a chord name such as "CM7", "C#m7:3" or "Db:5".
func (e *Engine) ChordToMidi(name Spec, opts ...Option) ([]int, error) {
	o := e.configure(opts)
	defaultOctave := o.octaveOr(e.origin.ReferenceOctave)
	tok, err := ParseChord(name, &defaultOctave)
	if err != nil {
		return nil, err
	}
	idx, err := NoteIndex(tok.Note)
	if err != nil {
		return nil, err
	}
	degrees, ok := e.ChordDegrees[tok.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q in chord %q", ErrUnknownChordType, tok.Type, name)
	}
	return e.chromatics(degrees, o.scale, *tok.Octave, e.origin.Shift+idx)
}

// NashvilleToMidi resolves a Nashville chord such as 1, "4^7" or "b7:3" in
// WithKey. Without an explicit ^type the chord type comes from the
// WithQuality row; the chord itself is always built on the major scale.
func (e *Engine) NashvilleToMidi(name Spec, opts ...Option) ([]int, error) {
	o := e.configure(opts)
	defaultOctave := o.octaveOr(e.origin.ReferenceOctave)
	tok, err := ParseNashvilleChord(name, &defaultOctave)
	if err != nil {
		return nil, err
	}

	chordType := tok.Type
	if chordType == "" {
		types, ok := e.nashvilleTypes[o.quality]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScaleQuality, o.quality)
		}
		if tok.Number < 1 || tok.Number > nashvilleDegrees {
			return nil, fmt.Errorf("%w: nashville number %d not in 1..%d", ErrDegreeOutOfRange, tok.Number, nashvilleDegrees)
		}
		chordType = types[tok.Number-1]
	}

	degrees, ok := e.ChordDegrees[chordType]
	if !ok {
		return nil, fmt.Errorf("%w: %q in nashville chord %q", ErrUnknownChordType, chordType, name)
	}
	keyIdx, err := NoteIndex(o.key)
	if err != nil {
		return nil, fmt.Errorf("key: %w", err)
	}
	rootOffset, err := e.resolve(tok.Number, 0, ScaleIonian, 0, 0)
	if err != nil {
		return nil, err
	}

	shift := e.origin.Shift + keyIdx + rootOffset + tok.Offset
	return e.chromatics(degrees, ScaleIonian, *tok.Octave, shift)
}
