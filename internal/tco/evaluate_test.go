package tco

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
)

func TestEvaluateBaseline(t *testing.T) {
	p := baselineParams(t)
	res, err := Evaluate(p, Options{Rand: rand.New(rand.NewPCG(1, 2))})
	if err != nil {
		t.Fatal(err)
	}
	if res.Devices.AccessPoints != 200 || res.Devices.SmallCells != 50 || res.Devices.Switches != 0 {
		t.Fatalf("unexpected devices %+v", res.Devices)
	}
	if diff(res.WiFi.RiskAdjustedTotal, 456000) > 1e-6 {
		t.Fatalf("wifi total=%f", res.WiFi.RiskAdjustedTotal)
	}
	if diff(res.Hybrid.RiskAdjustedTotal, 620100) > 1e-6 {
		t.Fatalf("hybrid total=%f want 620100", res.Hybrid.RiskAdjustedTotal)
	}

	if len(res.Comparison) != 3 {
		t.Fatalf("comparison rows=%d", len(res.Comparison))
	}
	wifiRow, p5gRow := res.Comparison[0], res.Comparison[1]
	if wifiRow.Architecture != ArchWiFi || wifiRow.PercentVsBaseline != 0 {
		t.Fatalf("unexpected baseline row %+v", wifiRow)
	}
	if diff(wifiRow.AnnualizedRunRate, 91200) > 1e-6 || diff(wifiRow.CostPerSqft, 0.912) > 1e-9 {
		t.Fatalf("unexpected wifi row %+v", wifiRow)
	}
	// (577500-456000)/456000*100
	if diff(p5gRow.PercentVsBaseline, 26.644736842) > 1e-6 {
		t.Fatalf("5g delta=%f", p5gRow.PercentVsBaseline)
	}

	if res.Recommendation.Architecture != ArchWiFi || res.Recommendation.RunnerUp != ArchPrivate5G {
		t.Fatalf("unexpected recommendation %+v", res.Recommendation)
	}
	if diff(res.Recommendation.Savings, 121500) > 1e-6 {
		t.Fatalf("savings=%f want 121500", res.Recommendation.Savings)
	}

	if res.BreakEven.Found {
		t.Fatalf("unexpected break-even %+v", res.BreakEven)
	}
	if len(res.NPV) != 1 || res.NPV[0].RatePercent != 10 {
		t.Fatalf("expected one NPV set at 10%%, got %+v", res.NPV)
	}
	wantNPV := NPV(10, MaintenanceCashFlows(240000, 43200, 5))
	if diff(res.NPV[0].Values[ArchWiFi], wantNPV) > 1e-6 {
		t.Fatalf("wifi npv=%f want %f", res.NPV[0].Values[ArchWiFi], wantNPV)
	}
	for _, arch := range Architectures {
		if len(res.Trend[arch]) != 5 {
			t.Fatalf("trend for %s has %d points", arch, len(res.Trend[arch]))
		}
	}
	for _, arch := range []Architecture{ArchWiFi, ArchPrivate5G} {
		mc := res.MonteCarlo[arch]
		if len(mc.Samples) != DefaultMonteCarloTrials || mc.Summary.Count != DefaultMonteCarloTrials {
			t.Fatalf("monte carlo for %s: %d samples", arch, len(mc.Samples))
		}
	}
	if _, ok := res.MonteCarlo[ArchHybrid]; ok {
		t.Fatal("hybrid is not sampled")
	}
}

func TestEvaluateAltDiscountRateAndFullStack(t *testing.T) {
	in := DefaultInputs()
	in.AltDiscountRatePercent = 15
	stack := fullStackPricing()
	in.Stack = &stack
	p, err := Resolve(in, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := Evaluate(p, Options{MonteCarloTrials: 10, HistogramBins: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.NPV) != 2 || res.NPV[1].RatePercent != 15 {
		t.Fatalf("expected alternate NPV set, got %+v", res.NPV)
	}
	if res.NPV[1].Values[ArchWiFi] <= res.NPV[0].Values[ArchWiFi] {
		t.Fatal("a higher discount rate should shrink the magnitude of a pure outflow series")
	}
	if res.Devices.Switches != 9 {
		t.Fatalf("switches=%d want 9", res.Devices.Switches)
	}
	if len(res.MonteCarlo[ArchWiFi].Samples) != 10 || len(res.MonteCarlo[ArchWiFi].Summary.Counts) != 4 {
		t.Fatalf("options not honoured: %+v", res.MonteCarlo[ArchWiFi].Summary)
	}
}

func TestEvaluateFindsBreakEvenWhen5GMaintenanceIsCheap(t *testing.T) {
	in := DefaultInputs()
	in.HorizonYears = 10
	stack := StackPricing{
		Variant:             VariantSimplified,
		APCost:              1200,
		CellCost:            5000,
		CoreCost:            60000,
		WiFiMaintenanceRate: 0.25,
		P5GMaintenanceRate:  0.05,
	}
	in.Stack = &stack
	p, err := Resolve(in, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := Evaluate(p, Options{MonteCarloTrials: 1})
	if err != nil {
		t.Fatal(err)
	}
	// wifi 240000+60000y, 5g 310000+15500y: crossover at y >= 1.573 -> 2.
	if !res.BreakEven.Found || res.BreakEven.Year != 2 {
		t.Fatalf("expected break-even in year 2, got %+v", res.BreakEven)
	}
}

func TestResultJSONUsesLabels(t *testing.T) {
	p := baselineParams(t)
	res, err := Evaluate(p, Options{MonteCarloTrials: 2})
	if err != nil {
		t.Fatal(err)
	}
	blob, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	s := string(blob)
	for _, want := range []string{`"coverage_model":"Indoor Only"`, `"sla_target":"99.9%"`, `"Private 5G"`, `"risk_adjusted_total"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %s in %s", want, s[:200])
		}
	}

	var back ScenarioParameters
	if err := json.Unmarshal([]byte(`{"coverage_model":"Indoor + Outdoor","sla_target":"99.999%"}`), &back); err != nil {
		t.Fatal(err)
	}
	if back.Coverage != IndoorAndOutdoor || back.SLA != SLA99999 {
		t.Fatalf("unexpected decode %+v", back)
	}
}

func TestEvaluateRejectsParametersOutsideBounds(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*ScenarioParameters)
		code   string
		field  string
	}{
		{"negative horizon", func(p *ScenarioParameters) { p.HorizonYears = -1 }, CodeOutOfRange, "horizon_years"},
		{"zero horizon", func(p *ScenarioParameters) { p.HorizonYears = 0 }, CodeOutOfRange, "horizon_years"},
		{"zero facility", func(p *ScenarioParameters) { p.FacilitySqft = 0 }, CodeOutOfRange, "facility_sqft"},
		{"unset coverage", func(p *ScenarioParameters) { p.Coverage = 0 }, CodeInvalidEnum, "coverage_model"},
		{"unset sla", func(p *ScenarioParameters) { p.SLA = 0 }, CodeInvalidEnum, "sla_target"},
		{"zero discount", func(p *ScenarioParameters) { p.DiscountRatePercent = 0 }, CodeOutOfRange, "discount_rate_percent"},
		{"unset variant", func(p *ScenarioParameters) { p.Pricing.Variant = "" }, CodeInvalidEnum, "variant"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := baselineParams(t)
			tc.mutate(&p)
			_, err := Evaluate(p, Options{MonteCarloTrials: 10})
			var te *Error
			if !errors.As(err, &te) || te.Code != tc.code || te.Field != tc.field {
				t.Fatalf("got %v, want %s/%s", err, tc.code, tc.field)
			}
		})
	}
}

func TestEvaluateRejectsCostsBeyondCeiling(t *testing.T) {
	for _, apCost := range []float64{1e306, 1e13} {
		in := DefaultInputs()
		in.Stack = &StackPricing{Variant: VariantSimplified, APCost: apCost, CellCost: 5000, CoreCost: 80000}
		p, err := Resolve(in, nil)
		if err != nil {
			t.Fatalf("ap_cost %g: resolve: %v", apCost, err)
		}
		_, err = Evaluate(p, Options{MonteCarloTrials: 10})
		var te *Error
		if !errors.As(err, &te) || te.Code != CodeOutOfRange || te.Field != "capex" {
			t.Fatalf("ap_cost %g: got %v, want out_of_range on capex", apCost, err)
		}
	}
}
