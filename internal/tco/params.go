package tco

import (
	"fmt"
	"math"
)

const (
	MinFacilitySqft  = 1000
	MaxFacilitySqft  = 10_000_000
	MinHorizonYears  = 1
	MaxHorizonYears  = 10
	MaxGrowthPercent = 30
	MinDiscountRate  = 5
	MaxDiscountRate  = 20

	// MaxTotalCost caps every computed dollar figure.
	MaxTotalCost = 1e15
)

// RawInputs is the flat parameter set collected from a form, CLI flags or a
// JSON body. Start from DefaultInputs and overwrite what the caller supplied.
type RawInputs struct {
	FacilitySqft           int           `json:"facility_sqft"`
	HorizonYears           int           `json:"horizon_years"`
	CoverageModel          string        `json:"coverage_model"`
	AnnualGrowthPercent    float64       `json:"annual_growth_percent"`
	LatencyRequirementMs   float64       `json:"latency_requirement_ms"`
	SLATarget              string        `json:"sla_target"`
	Vendor                 string        `json:"vendor,omitempty"`
	Stack                  *StackPricing `json:"stack,omitempty"`
	DiscountRatePercent    float64       `json:"discount_rate_percent"`
	AltDiscountRatePercent float64       `json:"alt_discount_rate_percent,omitempty"`
}

func DefaultInputs() RawInputs {
	return RawInputs{
		FacilitySqft:         500000,
		HorizonYears:         5,
		CoverageModel:        IndoorOnly.String(),
		AnnualGrowthPercent:  0,
		LatencyRequirementMs: 20,
		SLATarget:            SLA999.String(),
		DiscountRatePercent:  10,
	}
}

// Resolve validates raw inputs and produces the parameter set consumed by
// the cost models. Custom stack pricing takes precedence over a vendor name;
// with neither, the lookup's default price sheet is used when it has one. A
// nil lookup falls back to the built-in vendor table.
func Resolve(in RawInputs, vendors VendorLookup) (ScenarioParameters, error) {
	if vendors == nil {
		vendors = BuiltinVendorLookup
	}
	var p ScenarioParameters

	coverage, err := ParseCoverageModel(in.CoverageModel)
	if err != nil {
		return p, err
	}
	sla, err := ParseSLATarget(in.SLATarget)
	if err != nil {
		return p, err
	}

	var pricing StackPricing
	vendor := ""
	switch {
	case in.Stack != nil:
		pricing = *in.Stack
		if pricing.Variant == "" {
			pricing.Variant = VariantFullStack
		}
	case in.Vendor != "":
		profile, ok := vendors.Vendor(in.Vendor)
		if !ok {
			return p, newInvalidEnum("vendor", in.Vendor)
		}
		pricing = PricingFromVendor(profile)
		vendor = profile.Name
	default:
		pricing = DefaultPricing()
		if d, ok := vendors.(PricingDefaulter); ok {
			pricing = d.DefaultPricing()
		}
	}

	p = ScenarioParameters{
		FacilitySqft:           in.FacilitySqft,
		HorizonYears:           in.HorizonYears,
		Coverage:               coverage,
		GrowthPercent:          in.AnnualGrowthPercent,
		LatencyMs:              in.LatencyRequirementMs,
		SLA:                    sla,
		Vendor:                 vendor,
		Pricing:                pricing,
		DiscountRatePercent:    in.DiscountRatePercent,
		AltDiscountRatePercent: in.AltDiscountRatePercent,
	}
	if err := p.validate(); err != nil {
		return ScenarioParameters{}, err
	}
	return p, nil
}

// validate enforces the input bounds. Evaluate repeats it so hand-built
// parameters fail the same way as resolved ones.
func (p ScenarioParameters) validate() error {
	if p.FacilitySqft < MinFacilitySqft || p.FacilitySqft > MaxFacilitySqft {
		return newOutOfRange("facility_sqft", p.FacilitySqft, fmt.Sprintf("[%d, %d]", MinFacilitySqft, MaxFacilitySqft))
	}
	if p.HorizonYears < MinHorizonYears || p.HorizonYears > MaxHorizonYears {
		return newOutOfRange("horizon_years", p.HorizonYears, fmt.Sprintf("[%d, %d]", MinHorizonYears, MaxHorizonYears))
	}
	if _, err := CoverageMultiplier(p.Coverage); err != nil {
		return err
	}
	if _, err := SLAMultiplier(p.SLA); err != nil {
		return err
	}
	if !within(p.GrowthPercent, 0, MaxGrowthPercent) {
		return newOutOfRange("annual_growth_percent", p.GrowthPercent, fmt.Sprintf("[0, %d]", MaxGrowthPercent))
	}
	if !(p.LatencyMs > 0) || math.IsInf(p.LatencyMs, 0) {
		return newOutOfRange("latency_requirement_ms", p.LatencyMs, "(0, +inf)")
	}
	if !within(p.DiscountRatePercent, MinDiscountRate, MaxDiscountRate) {
		return newOutOfRange("discount_rate_percent", p.DiscountRatePercent, fmt.Sprintf("[%d, %d]", MinDiscountRate, MaxDiscountRate))
	}
	if p.AltDiscountRatePercent != 0 && !within(p.AltDiscountRatePercent, MinDiscountRate, MaxDiscountRate) {
		return newOutOfRange("alt_discount_rate_percent", p.AltDiscountRatePercent, fmt.Sprintf("0 or [%d, %d]", MinDiscountRate, MaxDiscountRate))
	}
	return ValidatePricing(p.Pricing)
}

// ValidatePricing rejects negative unit costs, rates outside [0, 1] and
// unknown variants.
func ValidatePricing(p StackPricing) error {
	switch p.Variant {
	case VariantSimplified, VariantFullStack:
	default:
		return newInvalidEnum("variant", p.Variant)
	}
	costs := []struct {
		field string
		v     float64
	}{
		{"ap_cost", p.APCost},
		{"switch_cost", p.SwitchCost},
		{"controller_cost", p.ControllerCost},
		{"cell_cost", p.CellCost},
		{"core_cost", p.CoreCost},
		{"edge_cost", p.EdgeCost},
		{"backhaul_cost", p.BackhaulCost},
	}
	for _, c := range costs {
		if !(c.v >= 0) || math.IsInf(c.v, 0) {
			return newOutOfRange(c.field, c.v, "[0, +inf)")
		}
	}
	rates := []struct {
		field string
		v     float64
	}{
		{"install_rate", p.InstallRate},
		{"wifi_maintenance_rate", p.WiFiMaintenanceRate},
		{"p5g_maintenance_rate", p.P5GMaintenanceRate},
	}
	for _, r := range rates {
		if !within(r.v, 0, 1) {
			return newOutOfRange(r.field, r.v, "[0, 1]")
		}
	}
	return nil
}

// within is false for NaN.
func within(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
