package scenarios

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lifeline-ems/lifeline/core/model"
)

type HospitalDef struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	Lat             float64  `yaml:"lat"`
	Lng             float64  `yaml:"lng"`
	Specializations []string `yaml:"specializations,omitempty"`
	Facilities      []string `yaml:"facilities,omitempty"`
	Doctors         []string `yaml:"doctors,omitempty"`
	ICUBeds         int      `yaml:"icu_beds"`
	GeneralBeds     int      `yaml:"general_beds"`
	Load            float64  `yaml:"load"`
	SuccessRate     float64  `yaml:"success_rate"`
}

func (h HospitalDef) ToModel() model.Hospital {
	return model.Hospital{
		ID:                    h.ID,
		Name:                  h.Name,
		Location:              model.Coordinate{Lat: h.Lat, Lng: h.Lng},
		Specializations:       h.Specializations,
		Facilities:            h.Facilities,
		DoctorsOnDuty:         h.Doctors,
		AvailableICUBeds:      h.ICUBeds,
		AvailableGeneralBeds:  h.GeneralBeds,
		LoadPercentage:        h.Load,
		HistoricalSuccessRate: h.SuccessRate,
		UpdatedAt:             time.Now(),
	}
}

type AmbulanceDef struct {
	ID     string  `yaml:"id"`
	Lat    float64 `yaml:"lat"`
	Lng    float64 `yaml:"lng"`
	Status string  `yaml:"status,omitempty"`
}

func (a AmbulanceDef) ToModel() model.Ambulance {
	status := model.AmbulanceStatus(a.Status)
	if status == "" {
		status = model.AmbulanceAvailable
	}
	return model.Ambulance{
		ID:        a.ID,
		Location:  model.Coordinate{Lat: a.Lat, Lng: a.Lng},
		Status:    status,
		UpdatedAt: time.Now(),
	}
}

type RequestDef struct {
	Type     string  `yaml:"type"`
	Severity string  `yaml:"severity,omitempty"`
	Lat      float64 `yaml:"lat"`
	Lng      float64 `yaml:"lng"`
	// Confirm dispatches to the top-ranked hospital; Accept then walks
	// the assigned driver through accept.
	Confirm bool `yaml:"confirm,omitempty"`
	Accept  bool `yaml:"accept,omitempty"`
}

type ExpectedRequest struct {
	Hospital     string `yaml:"hospital,omitempty"`
	Backup       string `yaml:"backup,omitempty"`
	Ambulance    string `yaml:"ambulance,omitempty"`
	Status       string `yaml:"status,omitempty"`
	NoCandidates bool   `yaml:"no_candidates,omitempty"`
	NoAmbulance  bool   `yaml:"no_ambulance,omitempty"`
}

type Scenario struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Hospitals   []HospitalDef     `yaml:"hospitals"`
	Ambulances  []AmbulanceDef    `yaml:"ambulances"`
	Requests    []RequestDef      `yaml:"requests"`
	Expected    []ExpectedRequest `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
