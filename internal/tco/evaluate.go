package tco

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// Options tunes the non-deterministic and presentation-only parts of an
// evaluation. The zero value is ready to use.
type Options struct {
	MonteCarloTrials int
	HistogramBins    int
	// Rand drives Monte Carlo draws; nil is unseeded.
	Rand *rand.Rand
}

type DeviceCounts struct {
	AccessPoints int `json:"access_points"`
	Switches     int `json:"switches"`
	SmallCells   int `json:"small_cells"`
}

// ComparisonRow is one line of the architecture comparison table.
type ComparisonRow struct {
	Architecture      Architecture `json:"architecture"`
	TCO               float64      `json:"tco"`
	AnnualizedRunRate float64      `json:"annualized_run_rate"`
	CostPerSqft       float64      `json:"cost_per_sqft"`
	PercentVsBaseline float64      `json:"percent_vs_baseline"`
}

type NPVSet struct {
	RatePercent float64                  `json:"rate_percent"`
	Values      map[Architecture]float64 `json:"values"`
}

type MonteCarloResult struct {
	Samples []float64     `json:"samples"`
	Summary SampleSummary `json:"summary"`
}

// Recommendation names the cheapest architecture by risk-adjusted total.
type Recommendation struct {
	Architecture   Architecture `json:"architecture"`
	TCO            float64      `json:"tco"`
	RunnerUp       Architecture `json:"runner_up"`
	Savings        float64      `json:"savings"`
	SavingsPercent float64      `json:"savings_percent"`
}

type Result struct {
	Parameters     ScenarioParameters                `json:"parameters"`
	Devices        DeviceCounts                      `json:"devices"`
	WiFi           CostBreakdown                     `json:"wifi"`
	Private5G      CostBreakdown                     `json:"private_5g"`
	Hybrid         CostBreakdown                     `json:"hybrid"`
	Comparison     []ComparisonRow                   `json:"comparison"`
	BreakEven      BreakEven                         `json:"break_even"`
	NPV            []NPVSet                          `json:"npv"`
	Trend          map[Architecture][]float64        `json:"trend"`
	Sensitivity    SensitivityGrid                   `json:"sensitivity"`
	MonteCarlo     map[Architecture]MonteCarloResult `json:"monte_carlo"`
	Recommendation Recommendation                    `json:"recommendation"`
}

// Breakdown returns the cost breakdown for arch.
func (r Result) Breakdown(arch Architecture) CostBreakdown {
	switch arch {
	case ArchWiFi:
		return r.WiFi
	case ArchPrivate5G:
		return r.Private5G
	default:
		return r.Hybrid
	}
}

// Evaluate runs the cost models and every derived analytic for one
// parameter set.
func Evaluate(p ScenarioParameters, opts Options) (Result, error) {
	if err := p.validate(); err != nil {
		return Result{}, err
	}
	res := Result{Parameters: p}

	aps, err := APCount(p.FacilitySqft, p.Coverage)
	if err != nil {
		return Result{}, err
	}
	cells, err := CellCount(p.FacilitySqft, p.Coverage)
	if err != nil {
		return Result{}, err
	}
	res.Devices = DeviceCounts{AccessPoints: aps, SmallCells: cells}
	if p.Pricing.Variant == VariantFullStack {
		res.Devices.Switches = SwitchCount(aps)
	}

	if res.WiFi, err = WiFiCost(p); err != nil {
		return Result{}, fmt.Errorf("wifi cost: %w", err)
	}
	if res.Private5G, err = Private5GCost(p); err != nil {
		return Result{}, fmt.Errorf("private 5g cost: %w", err)
	}
	if res.Hybrid, err = HybridCost(p, res.WiFi, res.Private5G); err != nil {
		return Result{}, fmt.Errorf("hybrid cost: %w", err)
	}

	if res.Comparison, err = compare(p, res); err != nil {
		return Result{}, fmt.Errorf("comparison: %w", err)
	}
	if res.Recommendation, err = recommend(res.Comparison); err != nil {
		return Result{}, fmt.Errorf("recommendation: %w", err)
	}

	res.BreakEven = FindBreakEven(res.WiFi, res.Private5G, p.HorizonYears)

	res.NPV = append(res.NPV, npvSet(p.DiscountRatePercent, p.HorizonYears, res))
	if p.AltDiscountRatePercent != 0 {
		res.NPV = append(res.NPV, npvSet(p.AltDiscountRatePercent, p.HorizonYears, res))
	}

	res.Trend = make(map[Architecture][]float64, len(Architectures))
	for _, arch := range Architectures {
		res.Trend[arch] = CumulativeTrend(res.Breakdown(arch), p.HorizonYears)
	}

	if res.Sensitivity, err = Sensitivity(p); err != nil {
		return Result{}, fmt.Errorf("sensitivity: %w", err)
	}

	trials := opts.MonteCarloTrials
	if trials <= 0 {
		trials = DefaultMonteCarloTrials
	}
	res.MonteCarlo = make(map[Architecture]MonteCarloResult, 2)
	for _, arch := range []Architecture{ArchWiFi, ArchPrivate5G} {
		samples := MonteCarlo(res.Breakdown(arch).RiskAdjustedTotal, trials, opts.Rand)
		res.MonteCarlo[arch] = MonteCarloResult{
			Samples: samples,
			Summary: SummarizeSamples(samples, opts.HistogramBins),
		}
	}
	return res, nil
}

func compare(p ScenarioParameters, res Result) ([]ComparisonRow, error) {
	baseline := res.WiFi.RiskAdjustedTotal
	rows := make([]ComparisonRow, 0, len(Architectures))
	for _, arch := range Architectures {
		total := res.Breakdown(arch).RiskAdjustedTotal
		perSqft, err := perUnit(total, float64(p.FacilitySqft), "facility_sqft")
		if err != nil {
			return nil, err
		}
		runRate, err := perUnit(total, float64(p.HorizonYears), "horizon_years")
		if err != nil {
			return nil, err
		}
		delta, err := PercentDiff(baseline, total)
		if err != nil {
			return nil, err
		}
		rows = append(rows, ComparisonRow{
			Architecture:      arch,
			TCO:               total,
			AnnualizedRunRate: runRate,
			CostPerSqft:       perSqft,
			PercentVsBaseline: delta,
		})
	}
	return rows, nil
}

func recommend(rows []ComparisonRow) (Recommendation, error) {
	if len(rows) < 2 {
		return Recommendation{}, fmt.Errorf("need at least two architectures, got %d", len(rows))
	}
	sorted := append([]ComparisonRow(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TCO < sorted[j].TCO })
	best, next := sorted[0], sorted[1]
	rec := Recommendation{
		Architecture: best.Architecture,
		TCO:          best.TCO,
		RunnerUp:     next.Architecture,
		Savings:      next.TCO - best.TCO,
	}
	pct, err := PercentDiff(next.TCO, best.TCO)
	if err != nil {
		return Recommendation{}, err
	}
	rec.SavingsPercent = -pct
	return rec, nil
}

func npvSet(ratePercent float64, years int, res Result) NPVSet {
	set := NPVSet{RatePercent: ratePercent, Values: make(map[Architecture]float64, len(Architectures))}
	for _, arch := range Architectures {
		b := res.Breakdown(arch)
		set.Values[arch] = NPV(ratePercent, MaintenanceCashFlows(b.Capex, b.AnnualOpex, years))
	}
	return set
}

func perUnit(total, units float64, field string) (float64, error) {
	if units == 0 {
		return 0, newDivisionByZero(field)
	}
	return total / units, nil
}
