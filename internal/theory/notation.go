package theory

import (
	"fmt"
	"regexp"
	"strconv"
)

// Grammars for each spec kind. The leading accidental of a note name binds
// to the letter, so "C#m7" is C# plus "m7", never C plus "#m7".
var (
	noteRe      = regexp.MustCompile(`^([A-G][#b]?)(?::(-?\d+))?$`)
	degreeRe    = regexp.MustCompile(`^([#b]*)(-?\d+)(?::(-?\d+))?$`)
	qualifierRe = regexp.MustCompile(`^([#b]*)(-?\d+)$`)
	chordRe     = regexp.MustCompile(`^([A-G][#b]?)([\w/+#]*)(?::(-?\d+))?$`)
	nashvilleRe = regexp.MustCompile(`^([#b]*)(-?\d+)(?:\^([\w/+#]*))?(?::(-?\d+))?$`)
)

// Spellings of the twelve pitch classes, indexed like the Chromatic scale.
var (
	sharpNotes = []string{"B#", "C#", "D", "D#", "E", "E#", "F#", "G", "G#", "A", "A#", "B"}
	flatNotes  = []string{"C", "Db", "D", "Eb", "Fb", "F", "Gb", "G", "Ab", "A", "Bb", "Cb"}
)

// NoteToken is a parsed note spec such as "C#:3".
type NoteToken struct {
	Note   string
	Octave *int
}

// DegreeToken is a parsed degree spec such as "b3:5".
type DegreeToken struct {
	Base   int
	Offset int
	Octave *int
}

// ChordToken is a parsed chord spec such as "Bbm7b5:3".
type ChordToken struct {
	Note   string
	Type   string
	Octave *int
}

// NashvilleToken is a parsed Nashville chord spec such as "b7^7:3".
// An empty Type means the chord type comes from the scale-quality table.
type NashvilleToken struct {
	Number int
	Offset int
	Type   string
	Octave *int
}

// ParseNote parses <A-G>[#|b][:<octave>].
func ParseNote(spec Spec, defaultOctave *int) (NoteToken, error) {
	if _, ok := spec.Int(); ok {
		return NoteToken{}, fmt.Errorf("%w: note %q is a number", ErrMalformedSpec, spec)
	}
	m := noteRe.FindStringSubmatch(spec.String())
	if m == nil {
		return NoteToken{}, fmt.Errorf("%w: note %q", ErrMalformedSpec, spec)
	}
	octave, err := parseOctave(m[2], defaultOctave)
	if err != nil {
		return NoteToken{}, fmt.Errorf("note %q: %w", spec, err)
	}
	return NoteToken{Note: m[1], Octave: octave}, nil
}

// ParseDegree parses [#|b...]<digits>[:<octave>]. Numeric specs carry no
// octave of their own.
func ParseDegree(spec Spec, defaultOctave *int) (DegreeToken, error) {
	if n, ok := spec.Int(); ok {
		return DegreeToken{Base: n, Octave: defaultOctave}, nil
	}
	m := degreeRe.FindStringSubmatch(spec.String())
	if m == nil {
		return DegreeToken{}, fmt.Errorf("%w: degree %q", ErrMalformedSpec, spec)
	}
	base, err := strconv.Atoi(m[2])
	if err != nil {
		return DegreeToken{}, fmt.Errorf("%w: degree %q: %v", ErrMalformedSpec, spec, err)
	}
	octave, err := parseOctave(m[3], defaultOctave)
	if err != nil {
		return DegreeToken{}, fmt.Errorf("degree %q: %w", spec, err)
	}
	return DegreeToken{Base: base, Offset: accidentalOffset(m[1]), Octave: octave}, nil
}

// ParseChord parses <note><type>[:<octave>]. The type may be empty, which
// names the plain major triad.
func ParseChord(spec Spec, defaultOctave *int) (ChordToken, error) {
	if _, ok := spec.Int(); ok {
		return ChordToken{}, fmt.Errorf("%w: chord %q is a number", ErrMalformedSpec, spec)
	}
	m := chordRe.FindStringSubmatch(spec.String())
	if m == nil {
		return ChordToken{}, fmt.Errorf("%w: chord %q", ErrMalformedSpec, spec)
	}
	octave, err := parseOctave(m[3], defaultOctave)
	if err != nil {
		return ChordToken{}, fmt.Errorf("chord %q: %w", spec, err)
	}
	return ChordToken{Note: m[1], Type: m[2], Octave: octave}, nil
}

// ParseNashvilleChord parses [#|b...]<digits>[^<type>][:<octave>].
func ParseNashvilleChord(spec Spec, defaultOctave *int) (NashvilleToken, error) {
	if n, ok := spec.Int(); ok {
		return NashvilleToken{Number: n, Octave: defaultOctave}, nil
	}
	m := nashvilleRe.FindStringSubmatch(spec.String())
	if m == nil {
		return NashvilleToken{}, fmt.Errorf("%w: nashville chord %q", ErrMalformedSpec, spec)
	}
	number, err := strconv.Atoi(m[2])
	if err != nil {
		return NashvilleToken{}, fmt.Errorf("%w: nashville chord %q: %v", ErrMalformedSpec, spec, err)
	}
	octave, err := parseOctave(m[4], defaultOctave)
	if err != nil {
		return NashvilleToken{}, fmt.Errorf("nashville chord %q: %w", spec, err)
	}
	return NashvilleToken{
		Number: number,
		Offset: accidentalOffset(m[1]),
		Type:   m[3],
		Octave: octave,
	}, nil
}

// ResolveQualifiers splits a degree such as "#b#4" into its base degree (4)
// and the net accidental offset (+1).
func ResolveQualifiers(spec Spec) (base, offset int, err error) {
	if n, ok := spec.Int(); ok {
		return n, 0, nil
	}
	m := qualifierRe.FindStringSubmatch(spec.String())
	if m == nil {
		return 0, 0, fmt.Errorf("%w: degree %q", ErrMalformedSpec, spec)
	}
	base, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: degree %q: %v", ErrMalformedSpec, spec, err)
	}
	return base, accidentalOffset(m[1]), nil
}

// NoteIndex returns the pitch class (0-11) of a note name, trying sharp
// spellings before flat ones.
func NoteIndex(note string) (int, error) {
	for i, n := range sharpNotes {
		if n == note {
			return i, nil
		}
	}
	for i, n := range flatNotes {
		if n == note {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownNote, note)
}

func accidentalOffset(run string) int {
	offset := 0
	for _, ch := range run {
		switch ch {
		case '#':
			offset++
		case 'b':
			offset--
		}
	}
	return offset
}

func parseOctave(text string, defaultOctave *int) (*int, error) {
	if text == "" {
		return defaultOctave, nil
	}
	octave, err := strconv.Atoi(text)
	if err != nil {
		return nil, fmt.Errorf("%w: octave %q: %v", ErrMalformedSpec, text, err)
	}
	return &octave, nil
}
