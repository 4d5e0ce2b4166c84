package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Conceptual-Machines/magda-theory/internal/arranger"
	"github.com/Conceptual-Machines/magda-theory/internal/render"
	"github.com/Conceptual-Machines/magda-theory/internal/services"
	"github.com/Conceptual-Machines/magda-theory/internal/theory"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7dd3fc"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	notesStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fff"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171"))
)

var errUsage = errors.New("usage")

func main() {
	// Resolution logs are noise on a terminal
	if os.Getenv("THEORY_DEBUG") == "" {
		log.SetOutput(io.Discard)
	}

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			usage(os.Stderr)
		} else {
			fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		}
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render("Music Theory CLI"))
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  chromatic [-scale S] [-octave N] [-shift N] DEGREE...")
	fmt.Fprintln(w, "  degrees   [-root R] [-scale S] [-octave N] [-shift N] DEGREE...")
	fmt.Fprintln(w, "  notes     [-octave N] NOTE...")
	fmt.Fprintln(w, "  chord     [-scale S] [-octave N] CHORD...")
	fmt.Fprintln(w, "  nashville [-key K] [-quality Q] [-octave N] CHORD...")
	fmt.Fprintln(w, "  scales    - List scales")
	fmt.Fprintln(w, "  chords    - List chord types")
	fmt.Fprintln(w, "  arrange   [-o out.mid] [-tempo BPM] DSL")
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}

	service := services.NewNotationService(theory.New(), nil)

	switch args[0] {
	case "chromatic":
		return resolveList(ctx, out, args, service.Chromatics, "scale", "shift")
	case "degrees":
		return resolveList(ctx, out, args, service.DegreesToMidi, "root", "scale", "shift")
	case "notes":
		return resolveList(ctx, out, args, service.NotesToMidi)
	case "chord":
		return resolveEach(ctx, out, args, service.ChordToMidi, "scale")
	case "nashville":
		return resolveEach(ctx, out, args, service.NashvilleToMidi, "key", "quality")
	case "scales":
		return listScales(out, service)
	case "chords":
		return listChordTypes(out, service)
	case "arrange":
		return arrange(ctx, out, args, service)
	default:
		return errUsage
	}
}

// optionFlags parses the resolution flags a subcommand accepts. Only flags
// given on the command line become options.
func optionFlags(args []string, names ...string) ([]theory.Option, []string, error) {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	ints := map[string]*int{"octave": fs.Int("octave", 0, "octave")}
	strs := make(map[string]*string)
	for _, name := range names {
		if name == "shift" {
			ints[name] = fs.Int(name, 0, "MIDI shift")
		} else {
			strs[name] = fs.String(name, "", name)
		}
	}
	if err := fs.Parse(args[1:]); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", args[0], err)
	}
	if fs.NArg() == 0 {
		return nil, nil, errUsage
	}

	var opts []theory.Option
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "octave":
			opts = append(opts, theory.WithOctave(*ints["octave"]))
		case "shift":
			opts = append(opts, theory.WithShift(*ints["shift"]))
		case "scale":
			opts = append(opts, theory.WithScale(*strs["scale"]))
		case "root":
			opts = append(opts, theory.WithRoot(*strs["root"]))
		case "key":
			opts = append(opts, theory.WithKey(*strs["key"]))
		case "quality":
			opts = append(opts, theory.WithQuality(*strs["quality"]))
		}
	})
	return opts, fs.Args(), nil
}

// toSpecs reads "3" as a number and anything else as text.
func toSpecs(args []string) []theory.Spec {
	specs := make([]theory.Spec, len(args))
	for i, a := range args {
		if n, err := strconv.Atoi(a); err == nil {
			specs[i] = theory.Int(n)
		} else {
			specs[i] = theory.Str(a)
		}
	}
	return specs
}

type listResolver func(context.Context, []theory.Spec, ...theory.Option) ([]int, error)

type chordResolver func(context.Context, theory.Spec, ...theory.Option) ([]int, error)

func resolveList(ctx context.Context, out io.Writer, args []string, resolve listResolver, flags ...string) error {
	opts, rest, err := optionFlags(args, flags...)
	if err != nil {
		return err
	}
	notes, err := resolve(ctx, toSpecs(rest), opts...)
	if err != nil {
		return err
	}
	printNotes(out, strings.Join(rest, " "), notes)
	return nil
}

func resolveEach(ctx context.Context, out io.Writer, args []string, resolve chordResolver, flags ...string) error {
	opts, rest, err := optionFlags(args, flags...)
	if err != nil {
		return err
	}
	for i, spec := range toSpecs(rest) {
		notes, err := resolve(ctx, spec, opts...)
		if err != nil {
			return err
		}
		printNotes(out, rest[i], notes)
	}
	return nil
}

func printNotes(out io.Writer, label string, notes []int) {
	parts := make([]string, len(notes))
	for i, n := range notes {
		parts[i] = strconv.Itoa(n)
	}
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render(label+":"), notesStyle.Render(strings.Join(parts, " ")))
}

func listScales(out io.Writer, service *services.NotationService) error {
	fmt.Fprintln(out, titleStyle.Render("=== Scales ==="))
	for _, name := range service.ScaleNames() {
		offsets, err := service.Scale(name)
		if err != nil {
			return err
		}
		printNotes(out, name, offsets)
	}
	return nil
}

func listChordTypes(out io.Writer, service *services.NotationService) error {
	fmt.Fprintln(out, titleStyle.Render("=== Chord types ==="))
	types := service.ChordTypes()
	for _, name := range slices.Sorted(maps.Keys(types)) {
		degrees := make([]string, len(types[name]))
		for i, d := range types[name] {
			degrees[i] = d.String()
		}
		label := name
		if label == "" {
			label = "(major)"
		}
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render(label+":"), notesStyle.Render(strings.Join(degrees, " ")))
	}
	return nil
}

func arrange(ctx context.Context, out io.Writer, args []string, service *services.NotationService) error {
	fs := flag.NewFlagSet("arrange", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	output := fs.String("o", "", "write a MIDI file")
	tempo := fs.Float64("tempo", render.DefaultTempoBPM, "tempo in BPM")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("arrange: %w", err)
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	parser, err := arranger.NewDSLParser()
	if err != nil {
		return err
	}
	actions, err := parser.ParseDSL(ctx, strings.Join(fs.Args(), " "))
	if err != nil {
		return err
	}
	arrangement, err := arranger.New(service, 0).Build(ctx, actions)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("=== %d actions, %.2f beats ===", arrangement.Actions, arrangement.LengthBeats)))
	for _, n := range arrangement.Notes {
		fmt.Fprintf(out, "%s %s\n",
			labelStyle.Render(fmt.Sprintf("%7.2f +%.2f", n.StartBeats, n.DurationBeats)),
			notesStyle.Render(fmt.Sprintf("%3d vel %d", n.MidiNoteNumber, n.Velocity)))
	}

	if *output == "" {
		return nil
	}
	f, err := os.Create(*output)
	if err != nil {
		return err
	}
	if err := render.WriteSMF(f, arrangement.Notes, render.Options{TempoBPM: *tempo}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(out, labelStyle.Render("wrote "+*output))
	return nil
}
