package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lifeline-ems/lifeline/core/model"
)

func (h *Handler) getAmbulance(c *gin.Context) {
	amb, err := h.store.AmbulanceByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, amb)
}

func (h *Handler) updateAmbulanceLocation(c *gin.Context) {
	var in updateLocationRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	amb, err := h.coord.UpdateAmbulanceLocation(c.Request.Context(), c.Param("id"),
		model.Coordinate{Lat: in.Lat, Lng: in.Lng})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, amb)
}

// activeTrip returns the request the ambulance is currently serving,
// with a navigation link to the patient.
func (h *Handler) activeTrip(c *gin.Context) {
	req, err := h.store.ActiveRequestForAmbulance(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, activeTripResponse{
		Request:       req,
		NavigationURL: navigationURL(req.Location),
	})
}
