package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Conceptual-Machines/magda-theory/internal/logger"
	"github.com/Conceptual-Machines/magda-theory/internal/metrics"
	"github.com/Conceptual-Machines/magda-theory/internal/theory"
)

// NotationService shares one theory.Engine between concurrent callers.
// Resolutions take the read lock; registry and origin changes take the
// write lock.
type NotationService struct {
	mu            sync.RWMutex
	engine        *theory.Engine
	cloudwatch    *metrics.Client
	sentryMetrics *metrics.SentryMetrics
}

// NewNotationService wraps engine. cloudwatch may be nil.
func NewNotationService(engine *theory.Engine, cloudwatch *metrics.Client) *NotationService {
	return &NotationService{
		engine:        engine,
		cloudwatch:    cloudwatch,
		sentryMetrics: metrics.NewSentryMetrics(),
	}
}

// Chromatics resolves scale degrees.
func (s *NotationService) Chromatics(ctx context.Context, degrees []theory.Spec, opts ...theory.Option) ([]int, error) {
	return s.resolve(ctx, "chromatics", joinSpecs(degrees), func(e *theory.Engine) ([]int, error) {
		return e.Chromatics(degrees, opts...)
	})
}

// DegreesToMidi resolves degrees of a scale rooted at a note.
func (s *NotationService) DegreesToMidi(ctx context.Context, degrees []theory.Spec, opts ...theory.Option) ([]int, error) {
	return s.resolve(ctx, "degrees", joinSpecs(degrees), func(e *theory.Engine) ([]int, error) {
		return e.DegreesToMidi(degrees, opts...)
	})
}

// NotesToMidi resolves note names.
func (s *NotationService) NotesToMidi(ctx context.Context, notes []theory.Spec, opts ...theory.Option) ([]int, error) {
	return s.resolve(ctx, "notes", joinSpecs(notes), func(e *theory.Engine) ([]int, error) {
		return e.NotesToMidi(notes, opts...)
	})
}

// ChordToMidi resolves a chord name.
func (s *NotationService) ChordToMidi(ctx context.Context, name theory.Spec, opts ...theory.Option) ([]int, error) {
	return s.resolve(ctx, "chord", name.String(), func(e *theory.Engine) ([]int, error) {
		return e.ChordToMidi(name, opts...)
	})
}

// NashvilleToMidi resolves a Nashville chord.
func (s *NotationService) NashvilleToMidi(ctx context.Context, name theory.Spec, opts ...theory.Option) ([]int, error) {
	return s.resolve(ctx, "nashville", name.String(), func(e *theory.Engine) ([]int, error) {
		return e.NashvilleToMidi(name, opts...)
	})
}

func (s *NotationService) resolve(
	ctx context.Context,
	operation, input string,
	fn func(*theory.Engine) ([]int, error),
) ([]int, error) {
	start := time.Now()

	s.mu.RLock()
	notes, err := fn(s.engine)
	s.mu.RUnlock()

	s.sentryMetrics.RecordResolution(ctx, operation, input, len(notes), err)
	s.cloudwatch.RecordResolution(operation, len(notes), err == nil)

	if err != nil {
		logger.Warn("Resolution failed", logger.Fields{
			"operation": operation,
			"input":     input,
			"error":     err.Error(),
		})
		return nil, err
	}

	logger.LogResolution(ctx, operation, input, len(notes), time.Since(start), nil)
	return notes, nil
}

// AddScale registers a scale. See theory.Engine.AddScale.
func (s *NotationService) AddScale(name string, degrees []theory.Spec, relativeScale string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.AddScale(name, degrees, relativeScale); err != nil {
		return nil, err
	}
	s.cloudwatch.RecordRegistryChange("scales")
	logger.Info("Scale registered", logger.Fields{
		"scale":    name,
		"degrees":  joinSpecs(degrees),
		"relative": relativeScale,
	})
	return slices.Clone(s.engine.Scales[name]), nil
}

// Scale returns the offsets of a registered scale.
func (s *NotationService) Scale(name string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Scale(name)
}

// ScaleNames lists registered scales.
func (s *NotationService) ScaleNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.ScaleNames()
}

// AddChordType registers a chord type.
func (s *NotationService) AddChordType(token string, degrees []theory.Spec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.AddChordType(token, degrees); err != nil {
		return err
	}
	s.cloudwatch.RecordRegistryChange("chord_types")
	logger.Info("Chord type registered", logger.Fields{
		"type":    token,
		"degrees": joinSpecs(degrees),
	})
	return nil
}

// ChordTypes returns a copy of the chord-type table.
func (s *NotationService) ChordTypes() map[string][]theory.Spec {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]theory.Spec, len(s.engine.ChordDegrees))
	for token, degrees := range s.engine.ChordDegrees {
		out[token] = slices.Clone(degrees)
	}
	return out
}

// NashvilleQualities returns the chord type on each degree of every scale
// quality.
func (s *NotationService) NashvilleQualities() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]string)
	for _, quality := range s.engine.NashvilleQualities() {
		types, err := s.engine.NashvilleTypes(quality)
		if err != nil {
			continue
		}
		out[quality] = types
	}
	return out
}

// Origin returns the current origin.
func (s *NotationService) Origin() theory.Origin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Origin()
}

// SetOriginOctave moves the reference octave for every later resolution.
func (s *NotationService) SetOriginOctave(octave int) theory.Origin {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.SetOriginOctave(octave)
	origin := s.engine.Origin()
	logger.Info("Origin changed", logger.Fields{
		"reference_octave": origin.ReferenceOctave,
		"shift":            origin.Shift,
	})
	return origin
}

// Summary describes the registries for the metrics endpoint.
func (s *NotationService) Summary() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"scales":              len(s.engine.Scales),
		"chord_types":         len(s.engine.ChordDegrees),
		"nashville_qualities": s.engine.NashvilleQualities(),
		"origin":              s.engine.Origin(),
	}
}

func joinSpecs(specs []theory.Spec) string {
	parts := make([]string, len(specs))
	for i, spec := range specs {
		parts[i] = spec.String()
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, " "))
}
