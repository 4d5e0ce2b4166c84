package arranger

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"slices"
	"strings"

	"github.com/Conceptual-Machines/grammar-school-go/gs"

	"github.com/Conceptual-Machines/magda-theory/internal/models"
)

// DSLParser parses arrangement DSL code into actions.
// Uses Grammar School Engine for parsing.
type DSLParser struct {
	engine  *gs.Engine
	dsl     *ArrangementDSL
	actions []models.Action
}

// ArrangementDSL implements the DSL side-effect methods.
type ArrangementDSL struct {
	parser *DSLParser
}

// Parameters shared by the calls, by value type.
var (
	numberParams = []string{"length", "start", "note_duration", "duration"}
	intParams    = []string{"repeat", "velocity", "octave", "inversion", "shift"}
	stringParams = []string{"scale", "rhythm", "direction", "key", "quality", "root"}
)

// callParams lists the parameters each call accepts, as in the grammar.
var callParams = map[string][]string{
	"chord":       {"symbol", "length", "start", "repeat", "velocity", "octave", "inversion", "scale", "rhythm"},
	"arpeggio":    {"symbol", "length", "start", "note_duration", "repeat", "velocity", "octave", "inversion", "scale", "rhythm", "direction"},
	"nashville":   {"symbol", "key", "quality", "length", "start", "repeat", "velocity", "octave", "inversion", "rhythm"},
	"progression": {"chords", "numbers", "key", "quality", "length", "start", "repeat", "velocity", "octave", "rhythm"},
	"note":        {"pitch", "duration", "velocity", "start", "octave"},
	"degrees":     {"degrees", "root", "scale", "shift", "octave", "note_duration", "repeat", "velocity", "start", "direction"},
}

var (
	argPattern       = regexp.MustCompile(`(\w+)\s*=\s*("[^"]*"|[^,;)\s]*)`)
	numberPattern    = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	directionPattern = regexp.MustCompile(`^(updown|up|down)$`)
)

// grammarParser holds argument values to the grammar's terminals before
// handing the code to the Lark parser, which reads bare words as strings
// and strips quotes.
type grammarParser struct {
	lark *gs.LarkParser
}

func (p grammarParser) Parse(input string) (*gs.CallChain, error) {
	for _, m := range argPattern.FindAllStringSubmatch(input, -1) {
		if err := checkTerminal(m[1], m[2]); err != nil {
			return nil, err
		}
	}
	return p.lark.Parse(input)
}

func checkTerminal(key, raw string) error {
	switch {
	case slices.Contains(numberParams, key) || slices.Contains(intParams, key):
		if !numberPattern.MatchString(raw) {
			return fmt.Errorf("%s=%s: expected a number", key, raw)
		}
	case key == "direction":
		if !directionPattern.MatchString(raw) {
			return fmt.Errorf("%s=%s: expected up, down or updown", key, raw)
		}
	default:
		if len(raw) < 2 || !strings.HasPrefix(raw, `"`) || !strings.HasSuffix(raw, `"`) {
			return fmt.Errorf("%s=%s: expected a quoted string", key, raw)
		}
	}
	return nil
}

// NewDSLParser creates a new arrangement DSL parser.
func NewDSLParser() (*DSLParser, error) {
	parser := &DSLParser{
		dsl:     &ArrangementDSL{},
		actions: make([]models.Action, 0),
	}
	parser.dsl.parser = parser

	engine, err := gs.NewEngine(GetArrangerDSLGrammar(), parser.dsl, grammarParser{lark: gs.NewLarkParser()})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	parser.engine = engine
	return parser, nil
}

// ParseDSL parses DSL code and returns arrangement actions.
// A parser is not safe for concurrent use.
func (p *DSLParser) ParseDSL(ctx context.Context, dslCode string) ([]models.Action, error) {
	if strings.TrimSpace(dslCode) == "" {
		return nil, fmt.Errorf("%w: empty DSL code", ErrInvalidAction)
	}

	p.actions = make([]models.Action, 0)

	if err := p.engine.Execute(ctx, dslCode); err != nil {
		return nil, fmt.Errorf("%w: failed to execute DSL: %v", ErrInvalidAction, err)
	}

	if len(p.actions) == 0 {
		return nil, fmt.Errorf("%w: no actions found in DSL code", ErrInvalidAction)
	}

	log.Printf("✅ Arrangement DSL Parser: Translated %d actions from DSL", len(p.actions))
	return p.actions, nil
}

// Chord handles chord() calls.
// Example: chord(symbol="CM7:3", length=2, rhythm="quarters")
func (d *ArrangementDSL) Chord(args gs.Args) error {
	return d.symbolCall("chord", args)
}

// Arpeggio handles arpeggio() calls.
// Example: arpeggio(symbol="Am7", note_duration=0.25, direction=updown)
func (d *ArrangementDSL) Arpeggio(args gs.Args) error {
	return d.symbolCall("arpeggio", args)
}

// Nashville handles nashville() calls.
// Example: nashville(symbol="4^7", key="G")
func (d *ArrangementDSL) Nashville(args gs.Args) error {
	return d.symbolCall("nashville", args)
}

func (d *ArrangementDSL) symbolCall(kind string, args gs.Args) error {
	symbol, ok := stringArg(args, "symbol")
	if !ok || symbol == "" {
		return fmt.Errorf("%s: missing symbol", kind)
	}

	action, err := newAction(kind, args)
	if err != nil {
		return err
	}
	action["chord"] = symbol
	d.parser.actions = append(d.parser.actions, action)
	return nil
}

// Progression handles progression() calls.
// Example: progression(chords="Dm7 G7 CM7", length=12, repeat=2)
func (d *ArrangementDSL) Progression(args gs.Args) error {
	action, err := newAction("progression", args)
	if err != nil {
		return err
	}

	if chords, ok := stringArg(args, "chords"); ok {
		action["chords"] = strings.Fields(chords)
	}
	if numbers, ok := stringArg(args, "numbers"); ok {
		action["numbers"] = strings.Fields(numbers)
	}
	_, hasChords := action["chords"]
	_, hasNumbers := action["numbers"]
	if hasChords == hasNumbers {
		return fmt.Errorf("progression: exactly one of chords or numbers is required")
	}

	d.parser.actions = append(d.parser.actions, action)
	return nil
}

// Note handles note() calls for single notes.
// Example: note(pitch="E:1", duration=4)
func (d *ArrangementDSL) Note(args gs.Args) error {
	pitch, ok := stringArg(args, "pitch")
	if !ok || pitch == "" {
		return fmt.Errorf("note: missing pitch")
	}

	action, err := newAction("note", args)
	if err != nil {
		return err
	}
	action["pitch"] = pitch
	d.parser.actions = append(d.parser.actions, action)
	return nil
}

// Degrees handles degrees() calls.
// Example: degrees(degrees="1 3 5 b7", root="D", scale="Dorian")
func (d *ArrangementDSL) Degrees(args gs.Args) error {
	degrees, ok := stringArg(args, "degrees")
	if !ok || len(strings.Fields(degrees)) == 0 {
		return fmt.Errorf("degrees: missing degrees")
	}

	action, err := newAction("degrees", args)
	if err != nil {
		return err
	}
	action["degrees"] = strings.Fields(degrees)
	d.parser.actions = append(d.parser.actions, action)
	return nil
}

// newAction copies the optional parameters present in args. Parameters the
// call does not accept are an error.
func newAction(kind string, args gs.Args) (models.Action, error) {
	for key := range args {
		if !slices.Contains(callParams[kind], key) {
			return nil, fmt.Errorf("%s: unknown parameter %q", kind, key)
		}
	}

	action := models.Action{"type": kind}
	for _, key := range numberParams {
		if v, ok := numberArg(args, key); ok {
			action[key] = v
		}
	}
	for _, key := range intParams {
		if v, ok := numberArg(args, key); ok {
			action[key] = int(v)
		}
	}
	for _, key := range stringParams {
		if v, ok := stringArg(args, key); ok {
			action[key] = v
		}
	}
	return action, nil
}

// stringArg returns a string argument without the quotes STRING keeps.
func stringArg(args gs.Args, key string) (string, bool) {
	v, ok := args[key]
	if !ok || v.Kind != gs.ValueString {
		return "", false
	}
	return strings.Trim(v.Str, "\""), true
}

func numberArg(args gs.Args, key string) (float64, bool) {
	v, ok := args[key]
	if !ok || v.Kind != gs.ValueNumber {
		return 0, false
	}
	return v.Num, true
}
