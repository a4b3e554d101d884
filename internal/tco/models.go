package tco

import (
	"fmt"
	"math"
)

const (
	sqftPerAP          = 2500.0
	sqftPerCell        = 10000.0
	apsPerSwitch       = 24.0
	lowLatencyMs       = 10.0
	lowLatencyPenalty  = 1.10
	hybridOverlapShare = 0.6
)

// APCount is the number of Wi-Fi access points for the facility.
func APCount(sqft int, coverage CoverageModel) (int, error) {
	m, err := CoverageMultiplier(coverage)
	if err != nil {
		return 0, err
	}
	return int(math.Ceil(float64(sqft) / sqftPerAP * m)), nil
}

// CellCount is the number of 5G small cells. A cell covers four times the
// floor area of an access point.
func CellCount(sqft int, coverage CoverageModel) (int, error) {
	m, err := CoverageMultiplier(coverage)
	if err != nil {
		return 0, err
	}
	return int(math.Ceil(float64(sqft) / sqftPerCell * m)), nil
}

// SwitchCount is one switch per 24 access points.
func SwitchCount(apCount int) int {
	return int(math.Ceil(float64(apCount) / apsPerSwitch))
}

func riskFactor(p ScenarioParameters) (float64, error) {
	sla, err := SLAMultiplier(p.SLA)
	if err != nil {
		return 0, err
	}
	return sla * GrowthMultiplier(p.GrowthPercent, p.HorizonYears), nil
}

// WiFiCost prices the Wi-Fi deployment. Requirements under 10 ms add a 10%
// penalty to the risk-adjusted total.
func WiFiCost(p ScenarioParameters) (CostBreakdown, error) {
	aps, err := APCount(p.FacilitySqft, p.Coverage)
	if err != nil {
		return CostBreakdown{}, err
	}
	raw := float64(aps) * p.Pricing.APCost
	if p.Pricing.Variant == VariantFullStack {
		raw += float64(SwitchCount(aps))*p.Pricing.SwitchCost + p.Pricing.ControllerCost
	}
	out, err := accrue(p, raw, p.Pricing.WiFiMaintenanceRate)
	if err != nil {
		return CostBreakdown{}, err
	}
	if p.LatencyMs < lowLatencyMs {
		out.RiskAdjustedTotal *= lowLatencyPenalty
	}
	if err := out.checkBounds(); err != nil {
		return CostBreakdown{}, err
	}
	return out, nil
}

// Private5GCost prices the private 5G deployment. No latency penalty.
func Private5GCost(p ScenarioParameters) (CostBreakdown, error) {
	cells, err := CellCount(p.FacilitySqft, p.Coverage)
	if err != nil {
		return CostBreakdown{}, err
	}
	raw := float64(cells)*p.Pricing.CellCost + p.Pricing.CoreCost
	if p.Pricing.Variant == VariantFullStack {
		raw += p.Pricing.EdgeCost + p.Pricing.BackhaulCost
	}
	return accrue(p, raw, p.Pricing.P5GMaintenanceRate)
}

// HybridCost keeps 60% of each standalone deployment. The shares are not
// normalised to 100%; the overlap is intended.
func HybridCost(p ScenarioParameters, wifi, p5g CostBreakdown) (CostBreakdown, error) {
	rf, err := riskFactor(p)
	if err != nil {
		return CostBreakdown{}, err
	}
	capex := hybridOverlapShare*wifi.Capex + hybridOverlapShare*p5g.Capex
	opex := hybridOverlapShare*wifi.Opex + hybridOverlapShare*p5g.Opex
	out := CostBreakdown{
		Capex:             capex,
		Opex:              opex,
		RiskAdjustedTotal: (capex + opex) * rf,
		AnnualOpex:        hybridOverlapShare*wifi.AnnualOpex + hybridOverlapShare*p5g.AnnualOpex,
	}
	if err := out.checkBounds(); err != nil {
		return CostBreakdown{}, err
	}
	return out, nil
}

// accrue applies installation, linear maintenance and the SLA and growth
// multipliers to a raw hardware cost.
func accrue(p ScenarioParameters, raw, maintenanceRate float64) (CostBreakdown, error) {
	rf, err := riskFactor(p)
	if err != nil {
		return CostBreakdown{}, err
	}
	capex := raw * (1 + p.Pricing.InstallRate)
	annual := capex * maintenanceRate
	opex := capex * maintenanceRate * float64(p.HorizonYears)
	out := CostBreakdown{
		Capex:             capex,
		Opex:              opex,
		RiskAdjustedTotal: (capex + opex) * rf,
		AnnualOpex:        annual,
	}
	if err := out.checkBounds(); err != nil {
		return CostBreakdown{}, err
	}
	return out, nil
}

// checkBounds rejects figures above MaxTotalCost, which also catches
// overflow to +Inf and NaN from extreme unit costs.
func (b CostBreakdown) checkBounds() error {
	for _, f := range []struct {
		field string
		v     float64
	}{
		{"capex", b.Capex},
		{"opex", b.Opex},
		{"risk_adjusted_total", b.RiskAdjustedTotal},
	} {
		if !within(f.v, 0, MaxTotalCost) {
			return newOutOfRange(f.field, f.v, fmt.Sprintf("[0, %g]", MaxTotalCost))
		}
	}
	return nil
}
