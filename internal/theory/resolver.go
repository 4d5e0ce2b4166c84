package theory

import "fmt"

// Option adjusts a single engine call. Options an operation does not use
// are ignored.
type Option func(*options)

type options struct {
	scale   string
	octave  *int
	shift   *int
	root    string
	key     string
	quality string
}

// WithScale selects the scale degrees are resolved against (Ionian by
// default).
func WithScale(name string) Option {
	return func(o *options) {
		o.scale = name
	}
}

// WithOctave sets the octave for specs without an explicit :<octave>
// suffix (the origin's reference octave by default).
func WithOctave(octave int) Option {
	return func(o *options) {
		o.octave = &octave
	}
}

// WithShift overrides the origin shift.
func WithShift(shift int) Option {
	return func(o *options) {
		o.shift = &shift
	}
}

// WithRoot sets the root note for DegreesToMidi ("C" by default).
func WithRoot(note string) Option {
	return func(o *options) {
		o.root = note
	}
}

// WithKey sets the key for NashvilleToMidi ("C" by default).
func WithKey(note string) Option {
	return func(o *options) {
		o.key = note
	}
}

// WithQuality selects the Nashville scale-quality table row ("M7" by
// default).
func WithQuality(quality string) Option {
	return func(o *options) {
		o.quality = quality
	}
}

func (e *Engine) configure(opts []Option) options {
	o := options{
		scale:   ScaleIonian,
		root:    "C",
		key:     "C",
		quality: QualityMajor7,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) octaveOr(fallback int) int {
	if o.octave != nil {
		return *o.octave
	}
	return fallback
}

func (o options) shiftOr(fallback int) int {
	if o.shift != nil {
		return *o.shift
	}
	return fallback
}

// Chromatic returns the MIDI number of a scale degree. Degrees outside
// 1..len(scale) wrap into neighbouring octaves, so degree 8 of a
// seven-note scale is degree 1 an octave up and degree 0 is degree 7 an
// octave down.
func (e *Engine) Chromatic(degree Spec, opts ...Option) (int, error) {
	o := e.configure(opts)
	return e.chromatic(degree, o.scale, o.octaveOr(e.origin.ReferenceOctave), o.shiftOr(e.origin.Shift))
}

// Chromatics resolves each degree in order. The first failure aborts the
// whole list.
func (e *Engine) Chromatics(degrees []Spec, opts ...Option) ([]int, error) {
	o := e.configure(opts)
	return e.chromatics(degrees, o.scale, o.octaveOr(e.origin.ReferenceOctave), o.shiftOr(e.origin.Shift))
}

func (e *Engine) chromatics(degrees []Spec, scale string, octave, shift int) ([]int, error) {
	result := make([]int, 0, len(degrees))
	for _, degree := range degrees {
		n, err := e.chromatic(degree, scale, octave, shift)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, nil
}

func (e *Engine) chromatic(degree Spec, scale string, octave, shift int) (int, error) {
	tok, err := ParseDegree(degree, &octave)
	if err != nil {
		return 0, err
	}
	return e.resolve(tok.Base, tok.Offset, scale, *tok.Octave, shift)
}

func (e *Engine) resolve(base, offset int, scale string, octave, shift int) (int, error) {
	offsets, ok := e.Scales[scale]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownScale, scale)
	}
	size := len(offsets)
	if size == 0 {
		return 0, fmt.Errorf("%w: %q has no degrees", ErrUnknownScale, scale)
	}

	n := base - 1
	step := ((n % size) + size) % size
	octaveDelta := floorDiv(n, size)
	return offsets[step] + offset + (octave+octaveDelta)*numChromatics + shift, nil
}

// floorDiv rounds toward negative infinity, unlike Go's / operator.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
