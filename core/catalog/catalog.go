// Package catalog maps emergency types to the facilities and specialist
// roles a hospital needs to treat them.
package catalog

// Requirements describes what an emergency type demands from a
// hospital. NiceToHave facilities improve the readiness score but are
// not mandatory.
type Requirements struct {
	Facilities  []string `json:"required_facilities"`
	Specialists []string `json:"required_specialists"`
	NiceToHave  []string `json:"nice_to_have_facilities"`
}

// GeneralType is the catch-all emergency type used when a tag has no
// catalog entry.
const GeneralType = "general"

var requirements = map[string]Requirements{
	"cardiac": {
		Facilities:  []string{"ICU", "Cath Lab", "Emergency Ward"},
		Specialists: []string{"Cardiologist"},
		NiceToHave:  []string{"MRI", "Operation Theatre", "Ventilator"},
	},
	"trauma": {
		Facilities:  []string{"ICU", "Trauma Center", "Emergency Ward", "Operation Theatre"},
		Specialists: []string{"Trauma Surgeon"},
		NiceToHave:  []string{"Blood Bank", "CT Scan", "Ventilator"},
	},
	"maternity": {
		Facilities:  []string{"Maternity Ward", "Operation Theatre", "NICU"},
		Specialists: []string{"Obstetrician"},
		NiceToHave:  []string{"Blood Bank", "ICU"},
	},
	"burns": {
		Facilities:  []string{"Burns Unit", "ICU", "Emergency Ward"},
		Specialists: []string{"Burns Specialist"},
		NiceToHave:  []string{"Operation Theatre", "Blood Bank", "Ventilator"},
	},
	"neuro": {
		Facilities:  []string{"ICU", "CT Scan", "MRI", "Emergency Ward"},
		Specialists: []string{"Neurologist"},
		NiceToHave:  []string{"Operation Theatre", "Ventilator"},
	},
	GeneralType: {
		Facilities:  []string{"Emergency Ward"},
		Specialists: []string{"General Physician"},
		NiceToHave:  []string{"ICU", "Blood Bank"},
	},
	"accident": {
		Facilities:  []string{"ICU", "Trauma Center", "Emergency Ward", "Operation Theatre"},
		Specialists: []string{"Trauma Surgeon", "Orthopedic Surgeon"},
		NiceToHave:  []string{"Blood Bank", "CT Scan", "Ventilator", "Rehabilitation Center"},
	},
}

// Known reports whether the emergency type has its own catalog entry.
func Known(emergencyType string) bool {
	_, ok := requirements[emergencyType]
	return ok
}

// Lookup returns the requirements for the emergency type, falling back
// to the general profile for unknown tags.
func Lookup(emergencyType string) Requirements {
	if r, ok := requirements[emergencyType]; ok {
		return r
	}
	return requirements[GeneralType]
}

// Types returns all known emergency types with their requirements.
func Types() map[string]Requirements {
	out := make(map[string]Requirements, len(requirements))
	for k, v := range requirements {
		out[k] = v
	}
	return out
}
