// Package render writes note events as Standard MIDI Files.
package render

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/Conceptual-Machines/magda-theory/internal/models"
)

// ErrInvalidEvent is returned for notes or options that cannot be encoded.
var ErrInvalidEvent = errors.New("invalid midi event")

const (
	DefaultTicksPerQuarter = 960
	DefaultTempoBPM        = 120.0
	DefaultTrackName       = "magda"

	// maxTick is the largest delta-time a variable-length quantity holds.
	maxTick = 0x0FFFFFFF
	// maxTicksPerQuarter is the largest metric division in the header.
	maxTicksPerQuarter = 0x7FFF
)

// Options configures the written file.
type Options struct {
	TempoBPM        float64
	Channel         int
	TicksPerQuarter int
	TrackName       string
}

func (o Options) withDefaults() Options {
	if o.TempoBPM <= 0 {
		o.TempoBPM = DefaultTempoBPM
	}
	if o.TicksPerQuarter <= 0 {
		o.TicksPerQuarter = DefaultTicksPerQuarter
	}
	if o.TrackName == "" {
		o.TrackName = DefaultTrackName
	}
	return o
}

type timedMessage struct {
	tick uint32
	on   bool
	key  uint8
	msg  midi.Message
}

// WriteSMF writes notes as a single-track SMF on w. One beat is one quarter
// note.
func WriteSMF(w io.Writer, notes []models.NoteEvent, opts Options) error {
	opts = opts.withDefaults()
	if opts.Channel < 0 || opts.Channel > 15 {
		return fmt.Errorf("%w: channel %d not in 0..15", ErrInvalidEvent, opts.Channel)
	}
	if opts.TicksPerQuarter > maxTicksPerQuarter {
		return fmt.Errorf("%w: %d ticks per quarter exceeds %d", ErrInvalidEvent, opts.TicksPerQuarter, maxTicksPerQuarter)
	}
	channel := uint8(opts.Channel)

	toTicks := func(beats float64) (uint32, bool) {
		t := math.Round(beats * float64(opts.TicksPerQuarter))
		if !(t >= 0 && t < maxTick) {
			return 0, false
		}
		return uint32(t), true
	}

	messages := make([]timedMessage, 0, len(notes)*2)
	for i, n := range notes {
		if n.MidiNoteNumber < 0 || n.MidiNoteNumber > 127 {
			return fmt.Errorf("%w: note %d: key %d not in 0..127", ErrInvalidEvent, i, n.MidiNoteNumber)
		}
		if n.Velocity < 1 || n.Velocity > 127 {
			return fmt.Errorf("%w: note %d: velocity %d not in 1..127", ErrInvalidEvent, i, n.Velocity)
		}
		if n.StartBeats < 0 || n.DurationBeats <= 0 {
			return fmt.Errorf("%w: note %d: start %.3f duration %.3f", ErrInvalidEvent, i, n.StartBeats, n.DurationBeats)
		}

		start, startOK := toTicks(n.StartBeats)
		end, endOK := toTicks(n.EndBeats())
		if !startOK || !endOK {
			return fmt.Errorf("%w: note %d: start %.3f duration %.3f beyond the last tick", ErrInvalidEvent, i, n.StartBeats, n.DurationBeats)
		}
		end = max(end, start+1)

		key := uint8(n.MidiNoteNumber)
		messages = append(messages,
			timedMessage{tick: start, on: true, key: key, msg: midi.NoteOn(channel, key, uint8(n.Velocity))},
			timedMessage{tick: end, on: false, key: key, msg: midi.NoteOff(channel, key)},
		)
	}

	// Offs before ons on the same tick so repeated notes retrigger.
	slices.SortStableFunc(messages, func(a, b timedMessage) int {
		if c := cmp.Compare(a.tick, b.tick); c != 0 {
			return c
		}
		if a.on != b.on {
			if a.on {
				return 1
			}
			return -1
		}
		return cmp.Compare(a.key, b.key)
	})

	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName(opts.TrackName))
	track.Add(0, smf.MetaTempo(opts.TempoBPM))

	var last uint32
	for _, m := range messages {
		track.Add(m.tick-last, m.msg)
		last = m.tick
	}
	track.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(opts.TicksPerQuarter)
	if err := s.Add(track); err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write smf: %w", err)
	}
	return nil
}
