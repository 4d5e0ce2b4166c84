package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChromatic(t *testing.T) {
	e := New()

	tests := []struct {
		name     string
		degree   Spec
		opts     []Option
		expected int
	}{
		{name: "middle C", degree: Int(1), expected: 60},
		{name: "flat tonic", degree: Str("b1"), expected: 59},
		{name: "sharp tonic", degree: Str("#1"), expected: 61},
		{name: "degree zero wraps down", degree: Int(0), expected: 59},
		{name: "octave above", degree: Int(8), expected: 72},
		{name: "two octaves below", degree: Int(-13), expected: 36},
		{name: "negative degree", degree: Int(-6), expected: 48},
		{name: "octave suffix", degree: Str("3:5"), expected: 76},
		{name: "octave option", degree: Int(5), opts: []Option{WithOctave(2)}, expected: 43},
		{name: "suffix beats option", degree: Str("5:3"), opts: []Option{WithOctave(2)}, expected: 55},
		{name: "shift option", degree: Int(1), opts: []Option{WithOctave(0), WithShift(64)}, expected: 64},
		{name: "dorian third", degree: Int(3), opts: []Option{WithScale(ScaleDorian)}, expected: 63},
		{name: "chromatic scale", degree: Int(13), opts: []Option{WithScale(ScaleChromatic)}, expected: 72},
		{name: "stacked accidentals", degree: Str("##5"), expected: 69},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Chromatic(tt.degree, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestChromaticErrors(t *testing.T) {
	e := New()

	_, err := e.Chromatic(Int(1), WithScale("Nope"))
	assert.ErrorIs(t, err, ErrUnknownScale)

	_, err = e.Chromatic(Str("three"))
	assert.ErrorIs(t, err, ErrMalformedSpec)

	e.Scales["Empty"] = nil
	_, err = e.Chromatic(Int(1), WithScale("Empty"))
	assert.ErrorIs(t, err, ErrUnknownScale)
}

func TestChromatics(t *testing.T) {
	e := New()

	got, err := e.Chromatics(Specs(1, 3, 5, "b7"), WithScale(ScaleIonian))
	require.NoError(t, err)
	assert.Equal(t, []int{60, 64, 67, 70}, got)

	got, err = e.Chromatics(Specs(1, 3, 5, 7))
	require.NoError(t, err)
	assert.Equal(t, []int{60, 64, 67, 71}, got)

	all := Specs("1", "#1", "2", "b3", "3", "4", "#4", "5", "b6", "6", "b7", "7")
	got, err = e.Chromatics(all, WithScale(ScaleIonian))
	require.NoError(t, err)
	assert.Equal(t, []int{60, 61, 62, 63, 64, 65, 66, 67, 68, 69, 70, 71}, got)

	// Order and duplicates are preserved.
	got, err = e.Chromatics(Specs(8, 7, 6, 5, 5, 1))
	require.NoError(t, err)
	assert.Equal(t, []int{72, 71, 69, 67, 67, 60}, got)
}

func TestChromaticsAbortsOnFirstError(t *testing.T) {
	e := New()
	got, err := e.Chromatics(Specs(1, "bad", 5))
	require.ErrorIs(t, err, ErrMalformedSpec)
	assert.Nil(t, got)
}

func TestChromaticOctaveWrapIsLinear(t *testing.T) {
	e := New()
	require.NoError(t, e.AddScale("Major Pentatonic", Specs(1, 2, 3, 5, 6), ""))

	for _, name := range e.ScaleNames() {
		size := len(e.Scales[name])
		for degree := -20; degree <= 20; degree++ {
			base, err := e.Chromatic(Int(degree), WithScale(name))
			require.NoError(t, err)
			for k := -3; k <= 3; k++ {
				shifted, err := e.Chromatic(Int(degree+k*size), WithScale(name))
				require.NoError(t, err)
				assert.Equal(t, base, shifted-k*numChromatics, "%s degree %d k %d", name, degree, k)
			}
		}
	}
}

func TestChromaticOctaveSpacing(t *testing.T) {
	e := New()
	for _, name := range e.ScaleNames() {
		for octave := -2; octave <= 8; octave++ {
			upper, err := e.Chromatic(Int(1), WithScale(name), WithOctave(octave))
			require.NoError(t, err)
			lower, err := e.Chromatic(Int(1), WithScale(name), WithOctave(octave-1))
			require.NoError(t, err)
			assert.Equal(t, lower+numChromatics, upper, "%s octave %d", name, octave)
		}
	}
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 0, floorDiv(0, 7))
	assert.Equal(t, 0, floorDiv(6, 7))
	assert.Equal(t, 1, floorDiv(7, 7))
	assert.Equal(t, -1, floorDiv(-1, 7))
	assert.Equal(t, -1, floorDiv(-7, 7))
	assert.Equal(t, -2, floorDiv(-8, 7))
}
