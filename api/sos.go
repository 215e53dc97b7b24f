package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lifeline-ems/lifeline/core/dispatch"
	"github.com/lifeline-ems/lifeline/core/model"
)

func (h *Handler) createSOS(c *gin.Context) {
	var in createSOSRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req, ranking, err := h.coord.CreateRequest(c.Request.Context(), dispatch.Intake{
		Location:      model.Coordinate{Lat: in.Lat, Lng: in.Lng},
		EmergencyType: in.EmergencyType,
		Severity:      in.Severity,
		Notes:         in.Notes,
	})
	if err != nil {
		if errors.Is(err, dispatch.ErrNoCandidates) {
			// The request exists; the operator has to route it manually.
			c.JSON(http.StatusCreated, sosResponse{
				Request: req,
				Message: "no hospitals within search radius",
			})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sosResponse{Request: req, Candidates: toCandidates(ranking)})
}

func (h *Handler) getSOS(c *gin.Context) {
	req, err := h.store.RequestByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sosResponse{Request: req})
}

func (h *Handler) listActiveSOS(c *gin.Context) {
	reqs, err := h.store.ActiveRequests(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if reqs == nil {
		reqs = []model.SOSRequest{}
	}
	c.JSON(http.StatusOK, reqs)
}

func (h *Handler) confirmHospital(c *gin.Context) {
	var in confirmHospitalRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req, err := h.coord.ConfirmHospital(c.Request.Context(), c.Param("id"), in.HospitalID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sosResponse{Request: req})
}

func (h *Handler) driverAccept(c *gin.Context) {
	h.driverAction(c, h.coord.DriverAccept)
}

func (h *Handler) driverEnroute(c *gin.Context) {
	h.driverAction(c, h.coord.DriverEnroute)
}

func (h *Handler) driverArrived(c *gin.Context) {
	h.driverAction(c, h.coord.DriverArrived)
}

func (h *Handler) driverAction(c *gin.Context, fn func(ctx context.Context, requestID, ambulanceID string) (model.SOSRequest, error)) {
	var in driverActionRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req, err := fn(c.Request.Context(), c.Param("id"), in.AmbulanceID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sosResponse{Request: req})
}

func (h *Handler) completeSOS(c *gin.Context) {
	// The body is optional: drivers send their ambulance id, admins
	// complete with the actor headers alone.
	var in struct {
		AmbulanceID string `json:"ambulance_id"`
	}
	_ = c.ShouldBindJSON(&in)

	req, err := h.coord.Complete(c.Request.Context(), c.Param("id"), in.AmbulanceID, actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sosResponse{Request: req})
}

func (h *Handler) cancelSOS(c *gin.Context) {
	req, err := h.coord.Cancel(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sosResponse{Request: req})
}

func (h *Handler) reassignSOS(c *gin.Context) {
	req, err := h.coord.Reassign(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sosResponse{Request: req})
}
