package tco

import (
	"encoding/json"
	"strings"
)

// CoverageModel is the deployment scope of the wireless network.
type CoverageModel int

const (
	IndoorOnly CoverageModel = iota + 1
	OutdoorOnly
	IndoorAndOutdoor
)

var coverageLabels = map[CoverageModel]string{
	IndoorOnly:       "Indoor Only",
	OutdoorOnly:      "Outdoor Only",
	IndoorAndOutdoor: "Indoor + Outdoor",
}

func (c CoverageModel) String() string {
	if s, ok := coverageLabels[c]; ok {
		return s
	}
	return "unknown"
}

// ParseCoverageModel accepts the UI labels ("Indoor + Outdoor") and a few
// machine-friendly spellings ("indoor_and_outdoor").
func ParseCoverageModel(s string) (CoverageModel, error) {
	switch normalizeLabel(s) {
	case "indoor only", "indoor", "indoor_only":
		return IndoorOnly, nil
	case "outdoor only", "outdoor", "outdoor_only":
		return OutdoorOnly, nil
	case "indoor + outdoor", "indoor and outdoor", "indoor_and_outdoor", "both":
		return IndoorAndOutdoor, nil
	}
	return 0, newInvalidEnum("coverage_model", s)
}

func (c CoverageModel) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *CoverageModel) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseCoverageModel(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// SLATarget is the availability target. Values are ordered from least to
// most strict.
type SLATarget int

const (
	SLA999 SLATarget = iota + 1
	SLA9999
	SLA99999
)

var slaLabels = map[SLATarget]string{
	SLA999:   "99.9%",
	SLA9999:  "99.99%",
	SLA99999: "99.999%",
}

func (s SLATarget) String() string {
	if l, ok := slaLabels[s]; ok {
		return l
	}
	return "unknown"
}

func ParseSLATarget(s string) (SLATarget, error) {
	switch strings.TrimSuffix(normalizeLabel(s), "%") {
	case "99.9":
		return SLA999, nil
	case "99.99":
		return SLA9999, nil
	case "99.999":
		return SLA99999, nil
	}
	return 0, newInvalidEnum("sla_target", s)
}

func (s SLATarget) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SLATarget) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := ParseSLATarget(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Architecture names one of the three compared deployments.
type Architecture string

const (
	ArchWiFi      Architecture = "Wi-Fi"
	ArchPrivate5G Architecture = "Private 5G"
	ArchHybrid    Architecture = "Hybrid"
)

// Architectures is the fixed presentation order.
var Architectures = []Architecture{ArchWiFi, ArchPrivate5G, ArchHybrid}

// Variant selects how much of each stack is priced.
type Variant string

const (
	// VariantSimplified prices access points only for Wi-Fi and cells plus
	// core for 5G.
	VariantSimplified Variant = "simplified"
	// VariantFullStack adds switches, controller, edge and backhaul.
	VariantFullStack Variant = "full-stack"
)

// VendorProfile is published (illustrative) pricing for one vendor.
type VendorProfile struct {
	Name                string  `json:"name" yaml:"name" db:"name"`
	WiFiAPCost          float64 `json:"wifi_ap_cost" yaml:"wifi_ap_cost" db:"wifi_ap_cost"`
	P5GCellCost         float64 `json:"p5g_cell_cost" yaml:"p5g_cell_cost" db:"p5g_cell_cost"`
	CoreCost            float64 `json:"core_cost" yaml:"core_cost" db:"core_cost"`
	WiFiMaintenanceRate float64 `json:"wifi_maintenance_rate" yaml:"wifi_maintenance_rate" db:"wifi_maintenance_rate"`
	P5GMaintenanceRate  float64 `json:"p5g_maintenance_rate" yaml:"p5g_maintenance_rate" db:"p5g_maintenance_rate"`
}

// StackPricing is the resolved per-component price sheet. Rates are fractions
// (0.18 is 18%).
type StackPricing struct {
	Variant             Variant `json:"variant" yaml:"variant" db:"variant"`
	APCost              float64 `json:"ap_cost" yaml:"ap_cost" db:"ap_cost"`
	SwitchCost          float64 `json:"switch_cost" yaml:"switch_cost" db:"switch_cost"`
	ControllerCost      float64 `json:"controller_cost" yaml:"controller_cost" db:"controller_cost"`
	CellCost            float64 `json:"cell_cost" yaml:"cell_cost" db:"cell_cost"`
	CoreCost            float64 `json:"core_cost" yaml:"core_cost" db:"core_cost"`
	EdgeCost            float64 `json:"edge_cost" yaml:"edge_cost" db:"edge_cost"`
	BackhaulCost        float64 `json:"backhaul_cost" yaml:"backhaul_cost" db:"backhaul_cost"`
	InstallRate         float64 `json:"install_rate" yaml:"install_rate" db:"install_rate"`
	WiFiMaintenanceRate float64 `json:"wifi_maintenance_rate" yaml:"wifi_maintenance_rate" db:"wifi_maintenance_rate"`
	P5GMaintenanceRate  float64 `json:"p5g_maintenance_rate" yaml:"p5g_maintenance_rate" db:"p5g_maintenance_rate"`
}

// PricingFromVendor builds a simplified price sheet from a vendor profile.
func PricingFromVendor(v VendorProfile) StackPricing {
	return StackPricing{
		Variant:             VariantSimplified,
		APCost:              v.WiFiAPCost,
		CellCost:            v.P5GCellCost,
		CoreCost:            v.CoreCost,
		WiFiMaintenanceRate: v.WiFiMaintenanceRate,
		P5GMaintenanceRate:  v.P5GMaintenanceRate,
	}
}

// ScenarioParameters is one validated evaluation input. Build it with Resolve.
type ScenarioParameters struct {
	FacilitySqft           int           `json:"facility_sqft"`
	HorizonYears           int           `json:"horizon_years"`
	Coverage               CoverageModel `json:"coverage_model"`
	GrowthPercent          float64       `json:"annual_growth_percent"`
	LatencyMs              float64       `json:"latency_requirement_ms"`
	SLA                    SLATarget     `json:"sla_target"`
	Vendor                 string        `json:"vendor,omitempty"`
	Pricing                StackPricing  `json:"pricing"`
	DiscountRatePercent    float64       `json:"discount_rate_percent"`
	AltDiscountRatePercent float64       `json:"alt_discount_rate_percent,omitempty"`
}

// CostBreakdown is the output of one architecture cost model.
type CostBreakdown struct {
	Capex             float64 `json:"capex"`
	Opex              float64 `json:"opex"`
	RiskAdjustedTotal float64 `json:"risk_adjusted_total"`
	// AnnualOpex is the flat yearly maintenance outflow behind Opex.
	AnnualOpex float64 `json:"annual_opex"`
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
