// Package api exposes the dispatch engine over HTTP using gin. The
// routes fall into three groups: the public SOS intake, driver actions
// validated against the assigned ambulance, and administrative
// operations gated by the actor headers.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lifeline-ems/lifeline/core/auth"
	"github.com/lifeline-ems/lifeline/core/dispatch"
	"github.com/lifeline-ems/lifeline/core/logger"
	"github.com/lifeline-ems/lifeline/internal/eventbus"
)

// Handler bundles the API dependencies.
type Handler struct {
	coord *dispatch.Coordinator
	store dispatch.Store
	bus   *eventbus.Bus
	log   logger.Logger
}

// NewHandler creates the API handler. The bus may be nil, which
// disables the event stream endpoint.
func NewHandler(coord *dispatch.Coordinator, store dispatch.Store, bus *eventbus.Bus, log logger.Logger) *Handler {
	return &Handler{coord: coord, store: store, bus: bus, log: log}
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/emergency-types", h.listEmergencyTypes)

		sos := api.Group("/sos")
		{
			sos.POST("", h.createSOS)
			sos.GET("", h.listActiveSOS)
			sos.GET("/:id", h.getSOS)
			sos.GET("/:id/scores", h.getScores)
			sos.GET("/:id/events", h.getEvents)
			sos.POST("/:id/confirm", h.confirmHospital)
			sos.POST("/:id/accept", h.driverAccept)
			sos.POST("/:id/enroute", h.driverEnroute)
			sos.POST("/:id/arrived", h.driverArrived)
			sos.POST("/:id/complete", h.completeSOS)
			sos.POST("/:id/cancel", h.cancelSOS)
			sos.POST("/:id/reassign", h.reassignSOS)
		}

		hospitals := api.Group("/hospitals")
		{
			hospitals.GET("", h.listHospitals)
			hospitals.GET("/:id", h.getHospital)
			hospitals.PUT("/:id/status", h.updateHospitalStatus)
		}

		ambulances := api.Group("/ambulances")
		{
			ambulances.GET("/:id", h.getAmbulance)
			ambulances.PUT("/:id/location", h.updateAmbulanceLocation)
			ambulances.GET("/:id/active", h.activeTrip)
		}

		if h.bus != nil {
			api.GET("/events/stream", h.streamEvents)
		}
	}
	return r
}

// actor maps the identity headers to an auth actor. Token verification
// is handled upstream; these headers are what the edge proxy injects.
func actor(c *gin.Context) auth.Actor {
	return auth.Actor{
		ID:   c.GetHeader("X-Actor-ID"),
		Role: auth.Role(c.GetHeader("X-Actor-Role")),
	}
}

// fail writes the error with a status derived from the error class.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dispatch.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, dispatch.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, dispatch.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, dispatch.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, dispatch.ErrNoAvailableAmbulance):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.log.Errorf("api error: %v", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
