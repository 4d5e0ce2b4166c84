package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapScales(t *testing.T) {
	e := New()

	expected := map[string][]int{
		ScaleChromatic:     {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
		ScaleIonian:        {0, 2, 4, 5, 7, 9, 11},
		ScaleDorian:        {0, 2, 3, 5, 7, 9, 10},
		ScalePhrygian:      {0, 1, 3, 5, 7, 8, 10},
		ScaleLydian:        {0, 2, 4, 6, 7, 9, 11},
		ScaleMixolydian:    {0, 2, 4, 5, 7, 9, 10},
		ScaleAeolian:       {0, 2, 3, 5, 7, 8, 10},
		ScaleLocrian:       {0, 1, 3, 5, 6, 8, 10},
		ScaleMajor:         {0, 2, 4, 5, 7, 9, 11},
		ScaleMinor:         {0, 2, 3, 5, 7, 8, 10},
		ScaleHarmonicMinor: {0, 2, 3, 5, 7, 8, 11},
	}

	assert.Len(t, e.Scales, len(expected))
	for name, offsets := range expected {
		t.Run(name, func(t *testing.T) {
			got, err := e.Scale(name)
			require.NoError(t, err)
			assert.Equal(t, offsets, got)
		})
	}
}

func TestModesAreWellFormed(t *testing.T) {
	e := New()
	for _, name := range modeNames {
		offsets := e.Scales[name]
		require.Len(t, offsets, 7, name)
		assert.Equal(t, 0, offsets[0], name)
		assert.Less(t, offsets[len(offsets)-1], numChromatics, name)
		for i := 1; i < len(offsets); i++ {
			assert.Greater(t, offsets[i], offsets[i-1], "%s not ascending at %d", name, i)
		}
	}
}

func TestAddScale(t *testing.T) {
	e := New()

	require.NoError(t, e.AddScale("Major Pentatonic", Specs(1, 2, 3, 5, 6), ""))
	assert.Equal(t, []int{0, 2, 4, 7, 9}, e.Scales["Major Pentatonic"])

	// Relative to another mode rather than Ionian.
	require.NoError(t, e.AddScale("Dorian Triad", Specs(1, 3, 5), ScaleDorian))
	assert.Equal(t, []int{0, 3, 7}, e.Scales["Dorian Triad"])

	// Direct semitone offsets, 1-based on Chromatic.
	require.NoError(t, e.AddScale("Whole Tone", Specs(1, 3, 5, 7, 9, 11), ScaleChromatic))
	assert.Equal(t, []int{0, 2, 4, 6, 8, 10}, e.Scales["Whole Tone"])

	n, err := e.Chromatic(Int(6), WithScale("Major Pentatonic"))
	require.NoError(t, err)
	assert.Equal(t, 72, n)
}

func TestAddScaleIsDeterministic(t *testing.T) {
	e := New()
	degrees := Specs(1, 2, "b3", 4, 5, "b6", "b7")

	require.NoError(t, e.AddScale("Natural Minor", degrees, ScaleIonian))
	first := e.Scales["Natural Minor"]
	require.NoError(t, e.AddScale("Natural Minor", degrees, ScaleIonian))
	assert.Equal(t, first, e.Scales["Natural Minor"])
	assert.Equal(t, e.Scales[ScaleAeolian], first)
}

func TestAddScaleOverwrites(t *testing.T) {
	e := New()
	require.NoError(t, e.AddScale("Custom", Specs(1, 5), ""))
	require.NoError(t, e.AddScale("Custom", Specs(1, 4), ""))
	assert.Equal(t, []int{0, 5}, e.Scales["Custom"])
}

func TestAddScaleErrors(t *testing.T) {
	e := New()

	err := e.AddScale("Broken", Specs(1, 3), "Nope")
	require.ErrorIs(t, err, ErrUnknownScale)
	assert.NotContains(t, e.Scales, "Broken")

	err = e.AddScale("Broken", Specs(1, "x3"), "")
	require.ErrorIs(t, err, ErrMalformedSpec)
	assert.NotContains(t, e.Scales, "Broken")

	err = e.AddScale("", Specs(1), "")
	assert.ErrorIs(t, err, ErrMalformedSpec)
}

func TestScaleReturnsCopy(t *testing.T) {
	e := New()
	offsets, err := e.Scale(ScaleIonian)
	require.NoError(t, err)
	offsets[0] = 99
	assert.Equal(t, 0, e.Scales[ScaleIonian][0])

	_, err = e.Scale("Nope")
	assert.ErrorIs(t, err, ErrUnknownScale)
}

func TestScaleNamesSorted(t *testing.T) {
	names := New().ScaleNames()
	assert.Equal(t, []string{
		ScaleAeolian, ScaleChromatic, ScaleDorian, ScaleHarmonicMinor, ScaleIonian,
		ScaleLocrian, ScaleLydian, ScaleMajor, ScaleMinor, ScaleMixolydian, ScalePhrygian,
	}, names)
}

func TestSetOriginOctave(t *testing.T) {
	e := New()
	assert.Equal(t, Origin{ReferenceOctave: 4, Shift: 12}, e.Origin())

	e.SetOriginOctave(3)
	assert.Equal(t, Origin{ReferenceOctave: 3, Shift: 24}, e.Origin())

	n, err := e.Chromatic(Int(1))
	require.NoError(t, err)
	assert.Equal(t, 60, n)

	e.SetOriginOctave(5)
	assert.Equal(t, 0, e.Origin().Shift)
	n, err = e.Chromatic(Int(1))
	require.NoError(t, err)
	assert.Equal(t, 60, n)
}

func TestEnginesAreIndependent(t *testing.T) {
	a, b := New(), New()
	require.NoError(t, a.AddScale("Only A", Specs(1, 3, 5), ""))
	a.SetOriginOctave(3)

	assert.NotContains(t, b.Scales, "Only A")
	assert.Equal(t, 4, b.Origin().ReferenceOctave)
}
