package models

// NoteEvent represents a single musical note with timing and pitch information
type NoteEvent struct {
	MidiNoteNumber int     `json:"midiNoteNumber"`
	Velocity       int     `json:"velocity"`
	StartBeats     float64 `json:"startBeats"`
	DurationBeats  float64 `json:"durationBeats"`
}

// EndBeats is the beat at which the note stops sounding.
func (n NoteEvent) EndBeats() float64 {
	return n.StartBeats + n.DurationBeats
}

// Action is one arrangement step, e.g.
//
//	{"type": "chord", "chord": "CM7:3", "length": 4, "rhythm": "quarters"}
//
// Keys mirror the DSL parameters; numbers may arrive as int or float64.
type Action = map[string]any

// Arrangement is the result of laying out a list of actions on a timeline.
type Arrangement struct {
	Actions     int         `json:"actions"`
	LengthBeats float64     `json:"lengthBeats"`
	Notes       []NoteEvent `json:"notes"`
}
