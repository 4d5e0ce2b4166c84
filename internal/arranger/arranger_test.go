package arranger

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-theory/internal/models"
	"github.com/Conceptual-Machines/magda-theory/internal/render"
	"github.com/Conceptual-Machines/magda-theory/internal/services"
	"github.com/Conceptual-Machines/magda-theory/internal/theory"
)

func newTestArranger() *Arranger {
	return New(services.NewNotationService(theory.New(), nil), 100)
}

func pitches(events []models.NoteEvent) []int {
	out := make([]int, len(events))
	for i, e := range events {
		out[i] = e.MidiNoteNumber
	}
	return out
}

func starts(events []models.NoteEvent) []float64 {
	out := make([]float64, len(events))
	for i, e := range events {
		out[i] = e.StartBeats
	}
	return out
}

func TestConvertChord(t *testing.T) {
	a := newTestArranger()
	ctx := context.Background()

	events, err := a.ConvertActionToNoteEvents(ctx, models.Action{"type": "chord", "chord": "CM7"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{60, 64, 67, 71}, pitches(events))
	for _, e := range events {
		assert.Equal(t, 100, e.Velocity)
		assert.Equal(t, 0.0, e.StartBeats)
		assert.Equal(t, 4.0, e.DurationBeats)
	}

	events, err = a.ConvertActionToNoteEvents(ctx, models.Action{
		"type": "chord", "chord": "G7", "length": 2.0, "repeat": 2, "octave": 3, "velocity": 90,
	}, 8)
	require.NoError(t, err)
	require.Len(t, events, 8)
	assert.Equal(t, []int{55, 59, 62, 65, 55, 59, 62, 65}, pitches(events))
	assert.Equal(t, []float64{8, 8, 8, 8, 10, 10, 10, 10}, starts(events))
	assert.Equal(t, 90, events[0].Velocity)
}

func TestConvertChordWithRhythm(t *testing.T) {
	a := newTestArranger()

	events, err := a.ConvertActionToNoteEvents(context.Background(), models.Action{
		"type": "chord", "chord": "C", "rhythm": "quarters",
	}, 0)
	require.NoError(t, err)
	require.Len(t, events, 12)

	assert.Equal(t, []float64{0, 0, 0, 1, 1, 1, 2, 2, 2, 3, 3, 3}, starts(events))
	assert.Equal(t, 100, events[0].Velocity)
	assert.Equal(t, 80, events[3].Velocity)
	for _, e := range events {
		assert.InDelta(t, 0.9, e.DurationBeats, 1e-9)
	}
}

func TestConvertChordWithThreeBeatRhythm(t *testing.T) {
	a := newTestArranger()

	events, err := a.ConvertActionToNoteEvents(context.Background(), models.Action{
		"type": "chord", "chord": "C", "rhythm": "waltz", "length": 3.0, "repeat": 2,
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 1, 1, 1, 2, 2, 2, 3, 3, 3, 4, 4, 4, 5, 5, 5}, starts(events))
}

func TestConvertChordInversion(t *testing.T) {
	a := newTestArranger()

	events, err := a.ConvertActionToNoteEvents(context.Background(), models.Action{
		"type": "chord", "chord": "CM7", "inversion": 1,
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{64, 67, 71, 72}, pitches(events))
}

func TestConvertChordInversionWrapsOctaves(t *testing.T) {
	a := newTestArranger()

	tests := []struct {
		inversion int
		expected  []int
	}{
		{inversion: 0, expected: []int{60, 64, 67}},
		{inversion: 2, expected: []int{67, 72, 76}},
		{inversion: 3, expected: []int{72, 76, 79}},
		{inversion: 4, expected: []int{76, 79, 84}},
		{inversion: 7, expected: []int{88, 91, 96}},
	}

	for _, tt := range tests {
		events, err := a.ConvertActionToNoteEvents(context.Background(), models.Action{
			"type": "chord", "chord": "C", "inversion": tt.inversion,
		}, 0)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, pitches(events), "inversion %d", tt.inversion)
	}
}

func TestRhythmAccentsKeepNotesAudible(t *testing.T) {
	a := newTestArranger()

	arrangement, err := a.Build(context.Background(), []models.Action{
		{"type": "chord", "chord": "C", "velocity": 1, "rhythm": "16ths"},
		{"type": "arpeggio", "chord": "C", "velocity": 1, "rhythm": "8ths"},
	})
	require.NoError(t, err)

	for i, n := range arrangement.Notes {
		assert.GreaterOrEqual(t, n.Velocity, 1, "note %d", i)
	}
	assert.NoError(t, render.WriteSMF(io.Discard, arrangement.Notes, render.Options{}))
}

func TestConvertArpeggio(t *testing.T) {
	a := newTestArranger()
	ctx := context.Background()

	tests := []struct {
		name     string
		action   models.Action
		expected []int
	}{
		{
			name:     "fills the bar",
			action:   models.Action{"type": "arpeggio", "chord": "Am", "note_duration": 0.5},
			expected: []int{69, 72, 76, 69, 72, 76, 69, 72},
		},
		{
			name:     "updown",
			action:   models.Action{"type": "arpeggio", "chord": "CM7", "note_duration": 0.5, "direction": "updown"},
			expected: []int{60, 64, 67, 71, 67, 64, 60, 64},
		},
		{
			name:     "down once",
			action:   models.Action{"type": "arpeggio", "chord": "C", "direction": "down", "repeat": 1},
			expected: []int{67, 64, 60},
		},
		{
			name:     "default 16ths",
			action:   models.Action{"type": "arpeggio", "chord": "C", "length": 1.0},
			expected: []int{60, 64, 67, 60},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := a.ConvertActionToNoteEvents(ctx, tt.action, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, pitches(events))
			for i, e := range events {
				assert.InDelta(t, float64(i)*e.DurationBeats, e.StartBeats, 1e-9)
			}
		})
	}
}

func TestConvertArpeggioTrimsLastNote(t *testing.T) {
	a := newTestArranger()

	events, err := a.ConvertActionToNoteEvents(context.Background(), models.Action{
		"type": "arpeggio", "chord": "C", "note_duration": 1.5, "length": 4.0,
	}, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.InDelta(t, 1.0, events[2].DurationBeats, 1e-9)
}

func TestConvertArpeggioWithRhythm(t *testing.T) {
	a := newTestArranger()

	// repeat defaults to 0 for arpeggios; a template still plays one cycle.
	events, err := a.ConvertActionToNoteEvents(context.Background(), models.Action{
		"type": "arpeggio", "chord": "C", "rhythm": "broken",
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{60, 64, 67, 60}, pitches(events))
	assert.Equal(t, []float64{0, 0.5, 1, 1.5}, starts(events))
}

func TestConvertNashville(t *testing.T) {
	a := newTestArranger()

	events, err := a.ConvertActionToNoteEvents(context.Background(), models.Action{
		"type": "nashville", "chord": "b7^7", "key": "D",
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{72, 76, 79, 82}, pitches(events))

	// JSON numbers are whole-number floats.
	events, err = a.ConvertActionToNoteEvents(context.Background(), models.Action{
		"type": "nashville", "chord": 3.0, "quality": "m",
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{64, 68, 71}, pitches(events))
}

func TestConvertProgression(t *testing.T) {
	a := newTestArranger()
	ctx := context.Background()

	events, err := a.ConvertActionToNoteEvents(ctx, models.Action{
		"type": "progression", "chords": []string{"Dm7", "G7", "CM7"}, "length": 12.0,
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{62, 65, 69, 72, 67, 71, 74, 77, 60, 64, 67, 71}, pitches(events))
	assert.Equal(t, []float64{0, 0, 0, 0, 4, 4, 4, 4, 8, 8, 8, 8}, starts(events))

	nashville, err := a.ConvertActionToNoteEvents(ctx, models.Action{
		"type": "progression", "numbers": []string{"2", "5", "1"}, "key": "C",
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, events, nashville)
}

func TestConvertProgressionRepeatsAndRhythm(t *testing.T) {
	a := newTestArranger()

	events, err := a.ConvertActionToNoteEvents(context.Background(), models.Action{
		"type": "progression", "chords": []any{"C", "F"}, "repeat": 2, "rhythm": "half",
	}, 0)
	require.NoError(t, err)
	// 2 chords x 2 repeats x 2 hits x 3 notes
	require.Len(t, events, 24)
	assert.Equal(t, 14.0, events[len(events)-1].StartBeats)
}

func TestConvertNoteAndDegrees(t *testing.T) {
	a := newTestArranger()
	ctx := context.Background()

	events, err := a.ConvertActionToNoteEvents(ctx, models.Action{"type": "note", "pitch": "E:1", "duration": 8}, 2)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.NoteEvent{MidiNoteNumber: 28, Velocity: 100, StartBeats: 2, DurationBeats: 8}, events[0])

	// Degrees rooted on an incoming note.
	events, err = a.ConvertActionToNoteEvents(ctx, models.Action{
		"type": "degrees", "degrees": "1 3 5", "shift": 61, "octave": 0,
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{61, 65, 68}, pitches(events))
	assert.Equal(t, []float64{0, 1, 2}, starts(events))

	events, err = a.ConvertActionToNoteEvents(ctx, models.Action{
		"type": "degrees", "degrees": []string{"1", "3", "5"}, "root": "D", "scale": theory.ScaleDorian,
		"note_duration": 0.5, "repeat": 2,
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{62, 65, 69, 62, 65, 69}, pitches(events))
	assert.Equal(t, 2.5, events[5].StartBeats)
}

func TestConvertDecodedJSONAction(t *testing.T) {
	var action models.Action
	require.NoError(t, json.Unmarshal([]byte(`{"type": "degrees", "degrees": [1, "b3", 5], "velocity": 90}`), &action))

	events, err := newTestArranger().ConvertActionToNoteEvents(context.Background(), action, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{60, 63, 67}, pitches(events))
	assert.Equal(t, 90, events[0].Velocity)
}

func TestConvertErrors(t *testing.T) {
	a := newTestArranger()
	ctx := context.Background()

	tests := []struct {
		name    string
		action  models.Action
		wantErr error
	}{
		{name: "missing type", action: models.Action{"chord": "C"}, wantErr: ErrInvalidAction},
		{name: "unknown type", action: models.Action{"type": "drum"}, wantErr: ErrInvalidAction},
		{name: "missing chord", action: models.Action{"type": "chord"}, wantErr: ErrInvalidAction},
		{name: "bad direction", action: models.Action{"type": "arpeggio", "chord": "C", "direction": "sideways"}, wantErr: ErrInvalidAction},
		{name: "zero length", action: models.Action{"type": "chord", "chord": "C", "length": 0}, wantErr: ErrInvalidAction},
		{name: "negative repeat", action: models.Action{"type": "chord", "chord": "C", "repeat": -1}, wantErr: ErrInvalidAction},
		{name: "negative start", action: models.Action{"type": "note", "pitch": "C", "start": -1}, wantErr: ErrInvalidAction},
		{name: "fractional degree", action: models.Action{"type": "degrees", "degrees": []any{1.5}}, wantErr: ErrInvalidAction},
		{name: "empty progression", action: models.Action{"type": "progression", "chords": []string{}}, wantErr: ErrInvalidAction},
		{name: "unknown chord type", action: models.Action{"type": "chord", "chord": "Cxyz"}, wantErr: theory.ErrUnknownChordType},
		{name: "bad progression chord", action: models.Action{"type": "progression", "chords": "C H7"}, wantErr: theory.ErrMalformedSpec},
		{name: "nashville out of range", action: models.Action{"type": "nashville", "chord": "8"}, wantErr: theory.ErrDegreeOutOfRange},
		{name: "inversion too high", action: models.Action{"type": "chord", "chord": "C", "inversion": 300000000}, wantErr: ErrInvalidAction},
		{name: "negative inversion", action: models.Action{"type": "chord", "chord": "C", "inversion": -1}, wantErr: ErrInvalidAction},
		{name: "repeat too high", action: models.Action{"type": "chord", "chord": "C", "repeat": 1e12}, wantErr: ErrInvalidAction},
		{name: "arpeggio fill too long", action: models.Action{"type": "arpeggio", "chord": "C", "length": 1e12, "note_duration": 1e-9}, wantErr: ErrInvalidAction},
		{name: "arpeggio rhythm too long", action: models.Action{"type": "arpeggio", "chord": "C", "rhythm": "16ths", "repeat": 40000}, wantErr: ErrInvalidAction},
		{name: "chord rhythm too long", action: models.Action{"type": "chord", "chord": "C", "rhythm": "16ths", "repeat": 40000}, wantErr: ErrInvalidAction},
		{name: "progression too long", action: models.Action{"type": "progression", "chords": "C F", "rhythm": "8ths", "repeat": 40000}, wantErr: ErrInvalidAction},
		{name: "degrees too long", action: models.Action{"type": "degrees", "degrees": "1 3 5 7", "repeat": 40000}, wantErr: ErrInvalidAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.ConvertActionToNoteEvents(ctx, tt.action, 0)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuildPlacesActionsSequentially(t *testing.T) {
	a := newTestArranger()

	arrangement, err := a.Build(context.Background(), []models.Action{
		{"type": "chord", "chord": "C", "length": 2.0},
		{"type": "arpeggio", "chord": "G", "note_duration": 1.0},
		{"type": "note", "pitch": "C:2", "duration": 6.0, "start": 0.0},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, arrangement.Actions)
	assert.Equal(t, 6.0, arrangement.LengthBeats)
	// C triad and the bass note at 0, then G arpeggio from beat 2.
	assert.Equal(t, []float64{0, 0, 0, 0, 2, 3, 4, 5}, starts(arrangement.Notes))
	assert.Equal(t, []int{60, 64, 67, 36, 67, 71, 74, 67}, pitches(arrangement.Notes))
}

func TestBuildErrors(t *testing.T) {
	a := newTestArranger()

	_, err := a.Build(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = a.Build(context.Background(), []models.Action{
		{"type": "chord", "chord": "C"},
		{"type": "chord", "chord": "Q"},
	})
	assert.ErrorIs(t, err, theory.ErrMalformedSpec)
	assert.Contains(t, err.Error(), "action 2")

	// Each action fits on its own; together they pass the note limit.
	melody := models.Action{"type": "degrees", "degrees": "1 3 5", "repeat": 10000}
	_, err = a.Build(context.Background(), []models.Action{melody, melody})
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Contains(t, err.Error(), "action 2")
}

func TestRhythmTemplates(t *testing.T) {
	names := RhythmNames()
	assert.Len(t, names, 20)
	for _, name := range names {
		tmpl, ok := GetRhythmTemplate(name)
		require.True(t, ok, name)
		assert.Len(t, tmpl.Accents, len(tmpl.Offsets), name)
		assert.Positive(t, tmpl.Beats, name)
		for _, offset := range tmpl.Offsets {
			assert.Less(t, offset, tmpl.Beats, name)
		}
	}

	_, ok := GetRhythmTemplate("polka")
	assert.False(t, ok)
}

func TestHitsNeverOverlap(t *testing.T) {
	for _, name := range RhythmNames() {
		tmpl, _ := GetRhythmTemplate(name)
		hits := tmpl.hits(0, 4, 2, 100)
		for i := 1; i < len(hits); i++ {
			assert.LessOrEqual(t, hits[i-1].beat+hits[i-1].duration, hits[i].beat+1e-9, "%s hit %d", name, i)
		}
	}
}
