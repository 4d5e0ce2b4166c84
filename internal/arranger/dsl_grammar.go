package arranger

// GetArrangerDSLGrammar returns the Lark grammar for the arrangement DSL.
// Symbols are written in engine notation: chord names like "CM7:3",
// Nashville chords like "b7^7", notes like "E:1" and degrees like "b3".
// Lists are space-separated inside one string.
func GetArrangerDSLGrammar() string {
	return `
// Arrangement DSL Grammar
// SYNTAX (statements separated by ";"):
//   chord(symbol="CM7", length=4, rhythm="quarters")
//   arpeggio(symbol="Am7:3", note_duration=0.25, direction=updown)
//   nashville(symbol="b7^7", key="D", length=2)
//   progression(chords="Dm7 G7 CM7", length=12)
//   progression(numbers="2 5 1", key="Bb", quality="M7")
//   note(pitch="E:1", duration=4)
//   degrees(degrees="1 3 5 b7", root="D", scale="Dorian", note_duration=0.5)

// ---------- Start rule ----------
start: statement (";" statement)*

statement: chord_call
         | arpeggio_call
         | nashville_call
         | progression_call
         | note_call
         | degrees_call

// ---------- Chord: SIMULTANEOUS notes ----------
chord_call: "chord" "(" chord_params ")"

chord_params: chord_named_params

chord_named_params: chord_named_param ("," SP chord_named_param)*
chord_named_param: "symbol" "=" STRING
                 | "length" "=" NUMBER
                 | "start" "=" NUMBER
                 | "repeat" "=" NUMBER
                 | "velocity" "=" NUMBER
                 | "octave" "=" NUMBER
                 | "inversion" "=" NUMBER
                 | "scale" "=" STRING
                 | "rhythm" "=" STRING

// ---------- Arpeggio: SEQUENTIAL chord notes ----------
arpeggio_call: "arpeggio" "(" arpeggio_params ")"

arpeggio_params: arpeggio_named_params

arpeggio_named_params: arpeggio_named_param ("," SP arpeggio_named_param)*
arpeggio_named_param: "symbol" "=" STRING
                    | "length" "=" NUMBER
                    | "start" "=" NUMBER
                    | "note_duration" "=" NUMBER  // 0.25=16th, 0.5=8th, 1=quarter
                    | "repeat" "=" NUMBER
                    | "velocity" "=" NUMBER
                    | "octave" "=" NUMBER
                    | "inversion" "=" NUMBER
                    | "scale" "=" STRING
                    | "rhythm" "=" STRING
                    | "direction" "=" DIRECTION

// ---------- Nashville chord in a key ----------
nashville_call: "nashville" "(" nashville_params ")"

nashville_params: nashville_named_params

nashville_named_params: nashville_named_param ("," SP nashville_named_param)*
nashville_named_param: "symbol" "=" STRING
                     | "key" "=" STRING
                     | "quality" "=" STRING
                     | "length" "=" NUMBER
                     | "start" "=" NUMBER
                     | "repeat" "=" NUMBER
                     | "velocity" "=" NUMBER
                     | "octave" "=" NUMBER
                     | "inversion" "=" NUMBER
                     | "rhythm" "=" STRING

// ---------- Progression: chords one after another ----------
progression_call: "progression" "(" progression_params ")"

progression_params: progression_named_params

progression_named_params: progression_named_param ("," SP progression_named_param)*
progression_named_param: "chords" "=" STRING   // chord names
                       | "numbers" "=" STRING  // Nashville chords
                       | "key" "=" STRING
                       | "quality" "=" STRING
                       | "length" "=" NUMBER
                       | "start" "=" NUMBER
                       | "repeat" "=" NUMBER
                       | "velocity" "=" NUMBER
                       | "octave" "=" NUMBER
                       | "rhythm" "=" STRING

// ---------- Single note ----------
note_call: "note" "(" note_params ")"

note_params: note_named_params

note_named_params: note_named_param ("," SP note_named_param)*
note_named_param: "pitch" "=" STRING
                | "duration" "=" NUMBER
                | "velocity" "=" NUMBER
                | "start" "=" NUMBER
                | "octave" "=" NUMBER

// ---------- Scale degrees as a melody ----------
degrees_call: "degrees" "(" degrees_params ")"

degrees_params: degrees_named_params

degrees_named_params: degrees_named_param ("," SP degrees_named_param)*
degrees_named_param: "degrees" "=" STRING
                   | "root" "=" STRING
                   | "scale" "=" STRING
                   | "shift" "=" NUMBER    // root the degrees on this MIDI note (with octave=0)
                   | "octave" "=" NUMBER
                   | "note_duration" "=" NUMBER
                   | "repeat" "=" NUMBER
                   | "velocity" "=" NUMBER
                   | "start" "=" NUMBER
                   | "direction" "=" DIRECTION

// ---------- Terminals ----------
DIRECTION: "updown" | "up" | "down"
SP: " "+
STRING: /"[^"]*"/
NUMBER: /-?\d+(\.\d+)?/
`
}
