package tco

import "math"

var slaMultipliers = map[SLATarget]float64{
	SLA999:   1.00,
	SLA9999:  1.08,
	SLA99999: 1.15,
}

// Outdoor-only is priced above combined coverage on purpose.
var coverageMultipliers = map[CoverageModel]float64{
	IndoorOnly:       1.00,
	OutdoorOnly:      1.25,
	IndoorAndOutdoor: 1.15,
}

func SLAMultiplier(sla SLATarget) (float64, error) {
	m, ok := slaMultipliers[sla]
	if !ok {
		return 0, newInvalidEnum("sla_target", int(sla))
	}
	return m, nil
}

func CoverageMultiplier(c CoverageModel) (float64, error) {
	m, ok := coverageMultipliers[c]
	if !ok {
		return 0, newInvalidEnum("coverage_model", int(c))
	}
	return m, nil
}

// GrowthMultiplier compounds growthPercent over years.
func GrowthMultiplier(growthPercent float64, years int) float64 {
	return math.Pow(1+growthPercent/100, float64(years))
}
