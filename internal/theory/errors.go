package theory

import "errors"

// Error kinds returned by the engine. They are always wrapped with the
// offending input, so test with errors.Is.
var (
	ErrMalformedSpec       = errors.New("malformed spec")
	ErrUnknownNote         = errors.New("unknown note")
	ErrUnknownScale        = errors.New("unknown scale")
	ErrUnknownChordType    = errors.New("unknown chord type")
	ErrUnknownScaleQuality = errors.New("unknown scale quality")
	ErrDegreeOutOfRange    = errors.New("degree out of range")
)

// IsInputError reports whether err is one of the error kinds above, i.e.
// caused by the caller's input rather than a fault in the engine.
func IsInputError(err error) bool {
	for _, kind := range []error{
		ErrMalformedSpec, ErrUnknownNote, ErrUnknownScale,
		ErrUnknownChordType, ErrUnknownScaleQuality, ErrDegreeOutOfRange,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
