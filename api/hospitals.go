package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lifeline-ems/lifeline/core/catalog"
	"github.com/lifeline-ems/lifeline/core/dispatch"
	"github.com/lifeline-ems/lifeline/core/model"
)

func (h *Handler) listHospitals(c *gin.Context) {
	hospitals, err := h.store.Hospitals(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if spec := strings.ToLower(strings.TrimSpace(c.Query("specialization"))); spec != "" {
		filtered := make([]model.Hospital, 0, len(hospitals))
		for _, hosp := range hospitals {
			for _, s := range hosp.Specializations {
				if strings.EqualFold(s, spec) {
					filtered = append(filtered, hosp)
					break
				}
			}
		}
		hospitals = filtered
	}
	c.JSON(http.StatusOK, hospitals)
}

func (h *Handler) getHospital(c *gin.Context) {
	hospital, err := h.store.HospitalByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, hospital)
}

func (h *Handler) updateHospitalStatus(c *gin.Context) {
	var in updateHospitalStatusRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	hospital, err := h.coord.UpdateHospitalStatus(c.Request.Context(), c.Param("id"), dispatch.HospitalStatusUpdate{
		AvailableICUBeds:      in.AvailableICUBeds,
		AvailableGeneralBeds:  in.AvailableGeneralBeds,
		LoadPercentage:        in.LoadPercentage,
		HistoricalSuccessRate: in.HistoricalSuccessRate,
		DoctorsOnDuty:         in.DoctorsOnDuty,
	}, actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, hospital)
}

func (h *Handler) listEmergencyTypes(c *gin.Context) {
	c.JSON(http.StatusOK, catalog.Types())
}
