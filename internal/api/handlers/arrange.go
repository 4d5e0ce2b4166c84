package handlers

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-theory/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-theory/internal/arranger"
	"github.com/Conceptual-Machines/magda-theory/internal/config"
	"github.com/Conceptual-Machines/magda-theory/internal/metrics"
	"github.com/Conceptual-Machines/magda-theory/internal/models"
	"github.com/Conceptual-Machines/magda-theory/internal/render"
	"github.com/Conceptual-Machines/magda-theory/internal/theory"
)

const (
	formatJSON = "json"
	formatMIDI = "midi"

	midiContentType = "audio/midi"
)

// ArrangeHandler lays arrangement DSL or actions out as note events.
type ArrangeHandler struct {
	arranger      *arranger.Arranger
	cfg           *config.Config
	sentryMetrics *metrics.SentryMetrics
}

func NewArrangeHandler(arr *arranger.Arranger, cfg *config.Config) *ArrangeHandler {
	return &ArrangeHandler{
		arranger:      arr,
		cfg:           cfg,
		sentryMetrics: metrics.NewSentryMetrics(),
	}
}

// Arrange builds an arrangement.
// POST /api/v1/arrange
// Body: {"dsl": "progression(chords=\"Dm7 G7 CM7\", length=12)", "format": "midi"}
func (h *ArrangeHandler) Arrange(c *gin.Context) {
	var req models.ArrangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	format := req.Format
	if format == "" {
		format = formatJSON
	}
	if format != formatJSON && format != formatMIDI {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json or midi"})
		return
	}
	if (req.DSL == "") == (len(req.Actions) == 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of dsl or actions is required"})
		return
	}

	userID, _ := middleware.GetUserIDFromGateway(c)
	log.Printf("🎼 Arrange request from user %s (format=%s)", userID, format)

	ctx := c.Request.Context()
	actions := req.Actions
	if req.DSL != "" {
		parser, err := arranger.NewDSLParser()
		if err != nil {
			respondError(c, err)
			return
		}
		if actions, err = parser.ParseDSL(ctx, req.DSL); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   err.Error(),
				"dsl":     req.DSL,
				"success": false,
			})
			return
		}
	}

	start := time.Now()
	arrangement, err := h.arranger.Build(ctx, actions)
	if err != nil {
		respondError(c, err)
		return
	}
	h.sentryMetrics.RecordArrangement(ctx, arrangement.Actions, len(arrangement.Notes), time.Since(start))

	if format == formatMIDI {
		var buf bytes.Buffer
		err := render.WriteSMF(&buf, arrangement.Notes, render.Options{
			TempoBPM:  float64(h.cfg.TempoBPM),
			Channel:   h.cfg.MIDIChannel,
			TrackName: "arrangement",
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="arrangement.mid"`)
		c.Data(http.StatusOK, midiContentType, buf.Bytes())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"dsl":         req.DSL,
		"arrangement": arrangement,
	})
}

// ListRhythms returns the rhythm template names usable in actions.
func (h *ArrangeHandler) ListRhythms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rhythms": arranger.RhythmNames()})
}

func isClientError(err error) bool {
	return theory.IsInputError(err) ||
		errors.Is(err, arranger.ErrInvalidAction) ||
		errors.Is(err, render.ErrInvalidEvent)
}
