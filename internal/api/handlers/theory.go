package handlers

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-theory/internal/logger"
	"github.com/Conceptual-Machines/magda-theory/internal/models"
	"github.com/Conceptual-Machines/magda-theory/internal/services"
	"github.com/Conceptual-Machines/magda-theory/internal/theory"
)

// TheoryHandler exposes the notation engine over HTTP.
type TheoryHandler struct {
	service *services.NotationService
}

func NewTheoryHandler(service *services.NotationService) *TheoryHandler {
	return &TheoryHandler{service: service}
}

// Chromatics resolves scale degrees.
// POST /api/v1/chromatics {"degrees": [1, "b3", 5], "scale": "Dorian", "octave": 3}
func (h *TheoryHandler) Chromatics(c *gin.Context) {
	var req models.ChromaticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := optionalInts(req.Octave, theory.WithOctave, req.Shift, theory.WithShift)
	if req.Scale != "" {
		opts = append(opts, theory.WithScale(req.Scale))
	}

	notes, err := h.service.Chromatics(c.Request.Context(), req.Degrees, opts...)
	respondNotes(c, notes, err)
}

// Degrees resolves degrees of a scale rooted at a note.
// POST /api/v1/degrees {"degrees": [1, 3, 5, 7], "root": "E", "default_octave": 0, "shift": 64}
func (h *TheoryHandler) Degrees(c *gin.Context) {
	var req models.DegreesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := optionalInts(req.DefaultOctave, theory.WithOctave, req.Shift, theory.WithShift)
	if req.Scale != "" {
		opts = append(opts, theory.WithScale(req.Scale))
	}
	if req.Root != "" {
		opts = append(opts, theory.WithRoot(req.Root))
	}

	notes, err := h.service.DegreesToMidi(c.Request.Context(), req.Degrees, opts...)
	respondNotes(c, notes, err)
}

// Notes resolves note names.
// POST /api/v1/notes {"notes": ["C", "Eb:3", "G"]}
func (h *TheoryHandler) Notes(c *gin.Context) {
	var req models.NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := optionalInts(req.DefaultOctave, theory.WithOctave, nil, nil)
	notes, err := h.service.NotesToMidi(c.Request.Context(), req.Notes, opts...)
	respondNotes(c, notes, err)
}

// Chord resolves a chord name.
// POST /api/v1/chords {"name": "CM7:3"}
func (h *TheoryHandler) Chord(c *gin.Context) {
	var req models.ChordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name.String() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	opts := optionalInts(req.DefaultOctave, theory.WithOctave, nil, nil)
	if req.Scale != "" {
		opts = append(opts, theory.WithScale(req.Scale))
	}

	notes, err := h.service.ChordToMidi(c.Request.Context(), req.Name, opts...)
	respondNotes(c, notes, err)
}

// Nashville resolves a Nashville chord in a key.
// POST /api/v1/nashville {"name": "b7^7", "key": "D"}
func (h *TheoryHandler) Nashville(c *gin.Context) {
	var req models.NashvilleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name.String() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	opts := optionalInts(req.DefaultOctave, theory.WithOctave, nil, nil)
	if req.Key != "" {
		opts = append(opts, theory.WithKey(req.Key))
	}
	if req.Quality != "" {
		opts = append(opts, theory.WithQuality(req.Quality))
	}

	notes, err := h.service.NashvilleToMidi(c.Request.Context(), req.Name, opts...)
	respondNotes(c, notes, err)
}

// ListScales returns the registered scale names.
func (h *TheoryHandler) ListScales(c *gin.Context) {
	c.JSON(http.StatusOK, models.ScalesResponse{Scales: h.service.ScaleNames()})
}

// GetScale returns the chromatic offsets of one scale.
func (h *TheoryHandler) GetScale(c *gin.Context) {
	name := c.Param("name")
	offsets, err := h.service.Scale(name)
	if err != nil {
		if errors.Is(err, theory.ErrUnknownScale) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ScaleResponse{Name: name, Offsets: offsets})
}

// AddScale registers a scale derived from another scale.
// POST /api/v1/scales {"name": "Pentatonic", "degrees": [1, 2, 3, 5, 6]}
func (h *TheoryHandler) AddScale(c *gin.Context) {
	var req models.AddScaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offsets, err := h.service.AddScale(req.Name, req.Degrees, req.RelativeScale)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ScaleResponse{Name: req.Name, Offsets: offsets})
}

// ListChordTypes returns every chord type with its degrees.
func (h *TheoryHandler) ListChordTypes(c *gin.Context) {
	c.JSON(http.StatusOK, models.ChordTypesResponse{ChordTypes: h.service.ChordTypes()})
}

// AddChordType registers a chord type.
// POST /api/v1/chord-types {"type": "M7/3rd", "degrees": [-4, 1, 3, 5, 7]}
func (h *TheoryHandler) AddChordType(c *gin.Context) {
	var req models.AddChordTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.AddChordType(req.Type, req.Degrees); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"type": req.Type, "degrees": req.Degrees})
}

// ListNashvilleQualities returns the chord type on each degree of every
// scale quality.
func (h *TheoryHandler) ListNashvilleQualities(c *gin.Context) {
	c.JSON(http.StatusOK, models.NashvilleQualitiesResponse{Qualities: h.service.NashvilleQualities()})
}

// GetOrigin returns the current reference octave and shift.
func (h *TheoryHandler) GetOrigin(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Origin())
}

// SetOrigin moves the reference octave.
// PUT /api/v1/origin {"octave": 3}
func (h *TheoryHandler) SetOrigin(c *gin.Context) {
	var req models.OriginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := logger.WithContext(c)
	fields["octave"] = *req.Octave
	logger.Info("Origin update requested", fields)

	c.JSON(http.StatusOK, h.service.SetOriginOctave(*req.Octave))
}

// optionalInts turns the non-nil pointers into options.
func optionalInts(a *int, withA func(int) theory.Option, b *int, withB func(int) theory.Option) []theory.Option {
	var opts []theory.Option
	if a != nil {
		opts = append(opts, withA(*a))
	}
	if b != nil {
		opts = append(opts, withB(*b))
	}
	return opts
}

func respondNotes(c *gin.Context, notes []int, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NotesResponse{Notes: notes})
}

// respondError maps input errors to 400 and reports everything else.
func respondError(c *gin.Context, err error) {
	if isClientError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logger.Error("Request failed", err, logger.WithContext(c))
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	} else {
		sentry.CaptureException(err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":      "Internal server error",
		"request_id": c.GetString("request_id"),
	})
}
