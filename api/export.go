package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lifeline-ems/lifeline/core/model"
	"github.com/lifeline-ems/lifeline/pkg/export"
)

// getScores exports the stored score breakdown of one request. The
// format query parameter selects json (default) or csv.
func (h *Handler) getScores(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.store.RequestByID(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	recs, err := h.store.ScoresForRequest(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if recs == nil {
		recs = []model.ScoreRecord{}
	}
	switch c.DefaultQuery("format", "json") {
	case "csv":
		c.Header("Content-Type", "text/csv")
		if err := export.WriteScoresCSV(c.Writer, recs); err != nil {
			h.log.Errorf("write scores csv: %v", err)
		}
	default:
		c.Status(http.StatusOK)
		c.Header("Content-Type", "application/json")
		if err := export.WriteScoresJSON(c.Writer, recs); err != nil {
			h.log.Errorf("write scores json: %v", err)
		}
	}
}

// getEvents exports the event log of one request.
func (h *Handler) getEvents(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.store.RequestByID(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	events, err := h.store.EventsForRequest(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	switch c.DefaultQuery("format", "json") {
	case "csv":
		c.Header("Content-Type", "text/csv")
		if err := export.WriteEventsCSV(c.Writer, events); err != nil {
			h.log.Errorf("write events csv: %v", err)
		}
	default:
		c.Status(http.StatusOK)
		c.Header("Content-Type", "application/json")
		if err := export.WriteEventsJSON(c.Writer, events); err != nil {
			h.log.Errorf("write events json: %v", err)
		}
	}
}
