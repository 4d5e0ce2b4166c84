package arranger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"slices"
	"strings"

	"github.com/Conceptual-Machines/magda-theory/internal/models"
	"github.com/Conceptual-Machines/magda-theory/internal/theory"
)

// ErrInvalidAction is returned for actions with a missing or unusable field.
var ErrInvalidAction = errors.New("invalid action")

const (
	defaultLength       = 4.0  // one bar
	defaultNoteDuration = 0.25 // 16th notes for arpeggios
	maxVelocity         = 127

	// maxEvents bounds the notes one arrangement may produce.
	maxEvents = 50000
	// maxInversion is the highest inversion accepted, ten octaves of a triad.
	maxInversion = 30
)

// Resolver turns notation into MIDI note numbers.
// services.NotationService implements it.
type Resolver interface {
	ChordToMidi(ctx context.Context, name theory.Spec, opts ...theory.Option) ([]int, error)
	NashvilleToMidi(ctx context.Context, name theory.Spec, opts ...theory.Option) ([]int, error)
	NotesToMidi(ctx context.Context, notes []theory.Spec, opts ...theory.Option) ([]int, error)
	DegreesToMidi(ctx context.Context, degrees []theory.Spec, opts ...theory.Option) ([]int, error)
}

// Arranger lays arrangement actions out as timed note events.
type Arranger struct {
	resolver        Resolver
	defaultVelocity int
}

// New returns an arranger that resolves notation through resolver.
func New(resolver Resolver, defaultVelocity int) *Arranger {
	if defaultVelocity <= 0 || defaultVelocity > maxVelocity {
		defaultVelocity = 100
	}
	return &Arranger{resolver: resolver, defaultVelocity: defaultVelocity}
}

// Build places actions one after another. An action with an explicit
// "start" is placed there instead; the timeline continues from whichever
// action ends last. Notes are returned ordered by start beat.
func (a *Arranger) Build(ctx context.Context, actions []models.Action) (*models.Arrangement, error) {
	if len(actions) == 0 {
		return nil, fmt.Errorf("%w: no actions", ErrInvalidAction)
	}

	var notes []models.NoteEvent
	cursor := 0.0
	for i, action := range actions {
		events, end, err := a.convert(ctx, action, cursor)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		notes = append(notes, events...)
		if err := checkEventCount(float64(len(notes))); err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		cursor = max(cursor, end)
	}

	slices.SortStableFunc(notes, func(x, y models.NoteEvent) int {
		return cmp.Compare(x.StartBeats, y.StartBeats)
	})

	return &models.Arrangement{
		Actions:     len(actions),
		LengthBeats: cursor,
		Notes:       notes,
	}, nil
}

// ConvertActionToNoteEvents converts a single action to note events.
// Handles: chord, arpeggio, nashville, progression, note, degrees
func (a *Arranger) ConvertActionToNoteEvents(ctx context.Context, action models.Action, startBeat float64) ([]models.NoteEvent, error) {
	events, _, err := a.convert(ctx, action, startBeat)
	return events, err
}

// convert returns the events and the beat at which the action ends.
func (a *Arranger) convert(ctx context.Context, action models.Action, startBeat float64) ([]models.NoteEvent, float64, error) {
	actionType, ok := getString(action, "type", "")
	if !ok {
		return nil, 0, fmt.Errorf("%w: missing type field", ErrInvalidAction)
	}
	if explicitStart, ok := getFloat(action, "start", 0); ok {
		if explicitStart < 0 {
			return nil, 0, fmt.Errorf("%w: negative start %.2f", ErrInvalidAction, explicitStart)
		}
		startBeat = explicitStart
	}

	switch actionType {
	case "chord", "nashville":
		return a.convertChord(ctx, action, startBeat)
	case "arpeggio":
		return a.convertArpeggio(ctx, action, startBeat)
	case "progression":
		return a.convertProgression(ctx, action, startBeat)
	case "note":
		return a.convertNote(ctx, action, startBeat)
	case "degrees":
		return a.convertDegrees(ctx, action, startBeat)
	default:
		return nil, 0, fmt.Errorf("%w: unknown action type %q", ErrInvalidAction, actionType)
	}
}

// resolveChord resolves the action's "chord" field as a chord name, or as a
// Nashville chord for nashville actions, and applies "inversion".
func (a *Arranger) resolveChord(ctx context.Context, action models.Action) ([]int, error) {
	symbol, ok := getSpec(action, "chord")
	if !ok {
		return nil, fmt.Errorf("%w: missing chord field", ErrInvalidAction)
	}

	var notes []int
	var err error
	if t, _ := getString(action, "type", ""); t == "nashville" {
		notes, err = a.resolver.NashvilleToMidi(ctx, symbol, resolverOptions(action)...)
	} else {
		notes, err = a.resolver.ChordToMidi(ctx, symbol, resolverOptions(action)...)
	}
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, fmt.Errorf("%w: chord %s has no notes", ErrInvalidAction, symbol)
	}

	inversion, _ := getFloat(action, "inversion", 0)
	if inversion < 0 || inversion > maxInversion {
		return nil, fmt.Errorf("%w: inversion must be between 0 and %d, got %.0f", ErrInvalidAction, maxInversion, inversion)
	}
	return invert(notes, int(inversion)), nil
}

// convertChord plays a chord as simultaneous notes, either held for the
// whole length or struck on a rhythm template.
func (a *Arranger) convertChord(ctx context.Context, action models.Action, startBeat float64) ([]models.NoteEvent, float64, error) {
	length, repeat, velocity, err := a.commonParams(action, 1)
	if err != nil {
		return nil, 0, err
	}
	chordNotes, err := a.resolveChord(ctx, action)
	if err != nil {
		return nil, 0, err
	}
	end := startBeat + length*float64(repeat)

	if tmpl, ok := a.rhythm(action); ok {
		if err := checkEventCount(float64(repeat) * float64(len(tmpl.Offsets)) * float64(len(chordNotes))); err != nil {
			return nil, 0, err
		}
		var events []models.NoteEvent
		for _, h := range tmpl.hits(startBeat, length, repeat, velocity) {
			events = append(events, strike(chordNotes, h.beat, h.duration, h.velocity)...)
		}
		return events, end, nil
	}

	if err := checkEventCount(float64(repeat) * float64(len(chordNotes))); err != nil {
		return nil, 0, err
	}
	var events []models.NoteEvent
	for r := 0; r < repeat; r++ {
		events = append(events, strike(chordNotes, startBeat+float64(r)*length, length, velocity)...)
	}
	return events, end, nil
}

// convertArpeggio plays chord notes one after another. With a rhythm
// template the notes cycle through the template's hits; otherwise each note
// lasts note_duration and the figure repeats until length is filled.
func (a *Arranger) convertArpeggio(ctx context.Context, action models.Action, startBeat float64) ([]models.NoteEvent, float64, error) {
	length, repeat, velocity, err := a.commonParams(action, 0)
	if err != nil {
		return nil, 0, err
	}
	chordNotes, err := a.resolveChord(ctx, action)
	if err != nil {
		return nil, 0, err
	}
	direction, _ := getString(action, "direction", "up")
	sequence, err := applyDirection(chordNotes, direction)
	if err != nil {
		return nil, 0, err
	}

	if tmpl, ok := a.rhythm(action); ok {
		cycles := max(repeat, 1)
		if err := checkEventCount(float64(cycles) * float64(len(tmpl.Offsets))); err != nil {
			return nil, 0, err
		}
		var events []models.NoteEvent
		for _, h := range tmpl.hits(startBeat, length, cycles, velocity) {
			events = append(events, models.NoteEvent{
				MidiNoteNumber: sequence[h.index%len(sequence)],
				Velocity:       h.velocity,
				StartBeats:     h.beat,
				DurationBeats:  h.duration,
			})
		}
		return events, startBeat + length*float64(cycles), nil
	}

	noteDuration, err := positive(action, "note_duration", defaultNoteDuration)
	if err != nil {
		return nil, 0, err
	}

	// repeat=0 fills the length
	count := math.Ceil(length/noteDuration - 1e-9)
	if repeat > 0 {
		count = min(count, float64(repeat)*float64(len(sequence)))
	}
	if err := checkEventCount(count); err != nil {
		return nil, 0, err
	}
	total := int(count)

	events := make([]models.NoteEvent, 0, total)
	endBeat := startBeat + length
	for i := 0; i < total; i++ {
		beat := startBeat + float64(i)*noteDuration
		events = append(events, models.NoteEvent{
			MidiNoteNumber: sequence[i%len(sequence)],
			Velocity:       velocity,
			StartBeats:     beat,
			DurationBeats:  min(noteDuration, endBeat-beat),
		})
	}
	return events, endBeat, nil
}

// convertProgression plays a list of chord names ("chords") or Nashville
// chords ("numbers"), splitting length evenly between them.
func (a *Arranger) convertProgression(ctx context.Context, action models.Action, startBeat float64) ([]models.NoteEvent, float64, error) {
	symbols, nashville := getSpecs(action, "numbers")
	if !nashville {
		symbols, _ = getSpecs(action, "chords")
	}
	if len(symbols) == 0 {
		return nil, 0, fmt.Errorf("%w: progression missing chords", ErrInvalidAction)
	}

	length, err := positive(action, "length", float64(len(symbols))*defaultLength)
	if err != nil {
		return nil, 0, err
	}
	_, repeat, velocity, err := a.commonParams(action, 1)
	if err != nil {
		return nil, 0, err
	}
	tmpl, hasRhythm := a.rhythm(action)
	opts := resolverOptions(action)

	chords := make([][]int, len(symbols))
	for i, symbol := range symbols {
		if nashville {
			chords[i], err = a.resolver.NashvilleToMidi(ctx, symbol, opts...)
		} else {
			chords[i], err = a.resolver.ChordToMidi(ctx, symbol, opts...)
		}
		if err != nil {
			return nil, 0, fmt.Errorf("progression chord %d (%s): %w", i+1, symbol, err)
		}
	}

	hitsPerChord := 1
	if hasRhythm {
		hitsPerChord = len(tmpl.Offsets)
	}
	noteCount := 0
	for _, chordNotes := range chords {
		noteCount += len(chordNotes)
	}
	if err := checkEventCount(float64(repeat) * float64(hitsPerChord) * float64(noteCount)); err != nil {
		return nil, 0, err
	}

	chordDuration := length / float64(len(chords))
	log.Printf("🎵 Progression: %d chords x %d, %.2f beats each", len(chords), repeat, chordDuration)

	var events []models.NoteEvent
	currentBeat := startBeat
	for r := 0; r < repeat; r++ {
		for _, chordNotes := range chords {
			if hasRhythm {
				for _, h := range tmpl.hits(currentBeat, chordDuration, 1, velocity) {
					events = append(events, strike(chordNotes, h.beat, h.duration, h.velocity)...)
				}
			} else {
				events = append(events, strike(chordNotes, currentBeat, chordDuration, velocity)...)
			}
			currentBeat += chordDuration
		}
	}
	return events, currentBeat, nil
}

// convertNote plays one note, e.g. {"pitch": "E:1", "duration": 4}.
func (a *Arranger) convertNote(ctx context.Context, action models.Action, startBeat float64) ([]models.NoteEvent, float64, error) {
	pitch, ok := getSpec(action, "pitch")
	if !ok {
		return nil, 0, fmt.Errorf("%w: note missing pitch field", ErrInvalidAction)
	}
	duration, err := positive(action, "duration", defaultLength)
	if err != nil {
		return nil, 0, err
	}
	_, _, velocity, err := a.commonParams(action, 1)
	if err != nil {
		return nil, 0, err
	}

	notes, err := a.resolver.NotesToMidi(ctx, []theory.Spec{pitch}, resolverOptions(action)...)
	if err != nil {
		return nil, 0, err
	}
	return strike(notes, startBeat, duration, velocity), startBeat + duration, nil
}

// convertDegrees plays scale degrees as a melody. With "shift" set to an
// incoming MIDI note and "octave" 0 the degrees are rooted on that note.
func (a *Arranger) convertDegrees(ctx context.Context, action models.Action, startBeat float64) ([]models.NoteEvent, float64, error) {
	degrees, ok := getSpecs(action, "degrees")
	if !ok || len(degrees) == 0 {
		return nil, 0, fmt.Errorf("%w: degrees missing degrees field", ErrInvalidAction)
	}
	noteDuration, err := positive(action, "note_duration", 1)
	if err != nil {
		return nil, 0, err
	}
	_, repeat, velocity, err := a.commonParams(action, 1)
	if err != nil {
		return nil, 0, err
	}

	notes, err := a.resolver.DegreesToMidi(ctx, degrees, resolverOptions(action)...)
	if err != nil {
		return nil, 0, err
	}
	direction, _ := getString(action, "direction", "up")
	sequence, err := applyDirection(notes, direction)
	if err != nil {
		return nil, 0, err
	}

	if err := checkEventCount(float64(repeat) * float64(len(sequence))); err != nil {
		return nil, 0, err
	}

	events := make([]models.NoteEvent, 0, len(sequence)*repeat)
	beat := startBeat
	for r := 0; r < repeat; r++ {
		for _, n := range sequence {
			events = append(events, models.NoteEvent{
				MidiNoteNumber: n,
				Velocity:       velocity,
				StartBeats:     beat,
				DurationBeats:  noteDuration,
			})
			beat += noteDuration
		}
	}
	return events, beat, nil
}

// commonParams reads length, repeat and velocity. defaultRepeat is 1 for
// chords and 0 (fill the length) for arpeggios.
func (a *Arranger) commonParams(action models.Action, defaultRepeat int) (float64, int, int, error) {
	length, err := positive(action, "length", defaultLength)
	if err != nil {
		return 0, 0, 0, err
	}
	repeatValue, _ := getFloat(action, "repeat", float64(defaultRepeat))
	if repeatValue < 0 {
		return 0, 0, 0, fmt.Errorf("%w: negative repeat %.0f", ErrInvalidAction, repeatValue)
	}
	if repeatValue > maxEvents {
		return 0, 0, 0, fmt.Errorf("%w: repeat %.0f exceeds %d", ErrInvalidAction, repeatValue, maxEvents)
	}
	repeat := int(repeatValue)
	if repeat == 0 && defaultRepeat > 0 {
		repeat = defaultRepeat
	}
	velocity, _ := getInt(action, "velocity", a.defaultVelocity)
	return length, repeat, clampVelocity(velocity), nil
}

func (a *Arranger) rhythm(action models.Action) (RhythmTemplate, bool) {
	name, ok := getString(action, "rhythm", "")
	if !ok || name == "" {
		return RhythmTemplate{}, false
	}
	tmpl, ok := GetRhythmTemplate(name)
	if !ok {
		log.Printf("⚠️ Unknown rhythm template: %s, using default timing", name)
	}
	return tmpl, ok
}

// resolverOptions maps action fields onto engine options.
func resolverOptions(action models.Action) []theory.Option {
	var opts []theory.Option
	if v, ok := getInt(action, "octave", 0); ok {
		opts = append(opts, theory.WithOctave(v))
	}
	if v, ok := getInt(action, "shift", 0); ok {
		opts = append(opts, theory.WithShift(v))
	}
	if v, ok := getString(action, "scale", ""); ok && v != "" {
		opts = append(opts, theory.WithScale(v))
	}
	if v, ok := getString(action, "root", ""); ok && v != "" {
		opts = append(opts, theory.WithRoot(v))
	}
	if v, ok := getString(action, "key", ""); ok && v != "" {
		opts = append(opts, theory.WithKey(v))
	}
	if v, ok := getString(action, "quality", ""); ok && v != "" {
		opts = append(opts, theory.WithQuality(v))
	}
	return opts
}

func strike(notes []int, beat, duration float64, velocity int) []models.NoteEvent {
	events := make([]models.NoteEvent, len(notes))
	for i, n := range notes {
		events[i] = models.NoteEvent{
			MidiNoteNumber: n,
			Velocity:       velocity,
			StartBeats:     beat,
			DurationBeats:  duration,
		}
	}
	return events
}

// invert moves the lowest note up an octave n times. Every len(notes)
// steps the chord is back in root position one octave higher.
func invert(notes []int, n int) []int {
	if len(notes) == 0 || n <= 0 {
		return slices.Clone(notes)
	}
	octaves, rotation := n/len(notes), n%len(notes)
	out := make([]int, 0, len(notes))
	for _, note := range notes[rotation:] {
		out = append(out, note+12*octaves)
	}
	for _, note := range notes[:rotation] {
		out = append(out, note+12*(octaves+1))
	}
	return out
}

func applyDirection(notes []int, direction string) ([]int, error) {
	switch direction {
	case "", "up":
		return slices.Clone(notes), nil
	case "down":
		return reverseSlice(notes), nil
	case "updown":
		// Up then back down without repeating the top or bottom note
		if len(notes) < 3 {
			return slices.Clone(notes), nil
		}
		return append(slices.Clone(notes), reverseSlice(notes[1:len(notes)-1])...), nil
	default:
		return nil, fmt.Errorf("%w: unknown direction %q", ErrInvalidAction, direction)
	}
}

func checkEventCount(n float64) error {
	if math.IsNaN(n) || n > maxEvents {
		return fmt.Errorf("%w: action produces too many notes (limit %d)", ErrInvalidAction, maxEvents)
	}
	return nil
}

func clampVelocity(v int) int {
	return max(1, min(v, maxVelocity))
}

func positive(m models.Action, key string, defaultValue float64) (float64, error) {
	v, _ := getFloat(m, key, defaultValue)
	if v <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %.2f", ErrInvalidAction, key, v)
	}
	return v, nil
}

func getFloat(m models.Action, key string, defaultValue float64) (float64, bool) {
	if v, ok := m[key]; ok {
		switch val := v.(type) {
		case float64:
			return val, true
		case int:
			return float64(val), true
		case int64:
			return float64(val), true
		}
	}
	return defaultValue, false
}

func getInt(m models.Action, key string, defaultValue int) (int, bool) {
	if v, ok := m[key]; ok {
		switch val := v.(type) {
		case int:
			return val, true
		case int64:
			return int(val), true
		case float64:
			return int(val), true
		}
	}
	return defaultValue, false
}

func getString(m models.Action, key string, defaultValue string) (string, bool) {
	if v, ok := m[key]; ok {
		if str, ok := v.(string); ok {
			return str, true
		}
	}
	return defaultValue, false
}

// getSpec reads a degree, note or chord spec. JSON numbers arrive as
// float64 and must be whole.
func getSpec(m models.Action, key string) (theory.Spec, bool) {
	return toSpec(m[key])
}

func toSpec(v any) (theory.Spec, bool) {
	switch val := v.(type) {
	case theory.Spec:
		return val, true
	case string:
		return theory.Str(val), val != ""
	case int:
		return theory.Int(val), true
	case int64:
		return theory.Int(int(val)), true
	case float64:
		if val != math.Trunc(val) {
			return theory.Spec{}, false
		}
		return theory.Int(int(val)), true
	}
	return theory.Spec{}, false
}

// getSpecs reads a spec list given as a slice or as one space-separated
// string such as "1 3 5 b7".
func getSpecs(m models.Action, key string) ([]theory.Spec, bool) {
	switch val := m[key].(type) {
	case []theory.Spec:
		return val, true
	case string:
		fields := strings.Fields(val)
		out := make([]theory.Spec, len(fields))
		for i, f := range fields {
			out[i] = theory.Str(f)
		}
		return out, true
	case []string:
		out := make([]theory.Spec, len(val))
		for i, s := range val {
			out[i] = theory.Str(s)
		}
		return out, true
	case []int:
		out := make([]theory.Spec, len(val))
		for i, n := range val {
			out[i] = theory.Int(n)
		}
		return out, true
	case []any:
		out := make([]theory.Spec, 0, len(val))
		for _, item := range val {
			spec, ok := toSpec(item)
			if !ok {
				return nil, false
			}
			out = append(out, spec)
		}
		return out, true
	}
	return nil, false
}

func reverseSlice(s []int) []int {
	result := make([]int, len(s))
	for i, v := range s {
		result[len(s)-1-i] = v
	}
	return result
}
