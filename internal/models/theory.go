package models

import "github.com/Conceptual-Machines/magda-theory/internal/theory"

// ChromaticsRequest resolves scale degrees against a named scale.
type ChromaticsRequest struct {
	Degrees []theory.Spec `json:"degrees" binding:"required"`
	Scale   string        `json:"scale,omitempty"`
	Octave  *int          `json:"octave,omitempty"`
	Shift   *int          `json:"shift,omitempty"`
}

// DegreesRequest resolves degrees of a scale rooted at a note.
type DegreesRequest struct {
	Degrees       []theory.Spec `json:"degrees" binding:"required"`
	Root          string        `json:"root,omitempty"`
	Scale         string        `json:"scale,omitempty"`
	DefaultOctave *int          `json:"default_octave,omitempty"`
	Shift         *int          `json:"shift,omitempty"`
}

// NotesRequest resolves note names.
type NotesRequest struct {
	Notes         []theory.Spec `json:"notes" binding:"required"`
	DefaultOctave *int          `json:"default_octave,omitempty"`
}

// ChordRequest resolves a chord name such as "CM7:3".
type ChordRequest struct {
	Name          theory.Spec `json:"name"`
	Scale         string      `json:"scale,omitempty"`
	DefaultOctave *int        `json:"default_octave,omitempty"`
}

// NashvilleRequest resolves a Nashville chord such as "b7^7" in a key.
type NashvilleRequest struct {
	Name          theory.Spec `json:"name"`
	Key           string      `json:"key,omitempty"`
	Quality       string      `json:"quality,omitempty"`
	DefaultOctave *int        `json:"default_octave,omitempty"`
}

// NotesResponse carries resolved MIDI note numbers.
type NotesResponse struct {
	Notes []int `json:"notes"`
}

// AddScaleRequest registers a scale derived from degrees of another scale.
type AddScaleRequest struct {
	Name          string        `json:"name" binding:"required"`
	Degrees       []theory.Spec `json:"degrees" binding:"required"`
	RelativeScale string        `json:"relative_scale,omitempty"`
}

// ScaleResponse describes one registered scale.
type ScaleResponse struct {
	Name    string `json:"name"`
	Offsets []int  `json:"offsets"`
}

// ScalesResponse lists registered scale names.
type ScalesResponse struct {
	Scales []string `json:"scales"`
}

// AddChordTypeRequest registers a chord type as degrees of the major scale.
type AddChordTypeRequest struct {
	Type    string        `json:"type" binding:"required"`
	Degrees []theory.Spec `json:"degrees" binding:"required"`
}

// ChordTypesResponse lists registered chord types with their degrees.
type ChordTypesResponse struct {
	ChordTypes map[string][]theory.Spec `json:"chord_types"`
}

// NashvilleQualitiesResponse lists the chord type on each degree of every
// scale quality.
type NashvilleQualitiesResponse struct {
	Qualities map[string][]string `json:"qualities"`
}

// OriginRequest moves the reference octave.
type OriginRequest struct {
	Octave *int `json:"octave" binding:"required"`
}

// ArrangeRequest lays out either DSL code or explicit actions. Format is
// "json" (default) or "midi".
type ArrangeRequest struct {
	DSL     string   `json:"dsl,omitempty"`
	Actions []Action `json:"actions,omitempty"`
	Format  string   `json:"format,omitempty"`
}
