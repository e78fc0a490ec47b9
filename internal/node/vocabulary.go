package node

// Categories is the category vocabulary offered to the model. Other labels are
// accepted as a free-form fallback.
var Categories = []string{
	"Anxiety",
	"Burnout",
	"Grief",
	"Self-Worth",
	"Relationships",
	"Purpose",
	"Anger",
	"Emotional Health",
	"Relationship Awareness",
	"Trauma",
	"Identity",
	"Loneliness",
	"Fear",
	"Shame",
}

// EnergyLabels are the canonical energy-block archetypes. The model may coin a
// new snake_case label when none fits.
var EnergyLabels = []string{
	"blocked_energy",
	"outofcontrol_energy",
	"scattered_energy",
	"depleted_energy",
	"collapsed_energy",
	"hypervigilant_energy",
	"disconnected_energy",
	"wounded_energy",
}

func IsKnownCategory(c string) bool {
	return contains(Categories, c)
}

func IsKnownEnergyLabel(l string) bool {
	return contains(EnergyLabels, l)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
