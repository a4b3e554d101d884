package tco

import (
	"math"
	"strconv"
)

// PercentDiff is (compare-base)/base*100.
func PercentDiff(base, compare float64) (float64, error) {
	if base == 0 {
		return 0, newDivisionByZero("base")
	}
	return (compare - base) / base * 100, nil
}

// BreakEven reports the first horizon year in which 5G's cumulative cost no
// longer exceeds Wi-Fi's. Year is zero when Found is false.
type BreakEven struct {
	Found bool `json:"found"`
	Year  int  `json:"year,omitempty"`
}

func (b BreakEven) String() string {
	if !b.Found {
		return "no break-even"
	}
	return "year " + strconv.Itoa(b.Year)
}

// FindBreakEven compares linear cumulative cost (capex plus flat annual
// maintenance) year by year. Risk multipliers are not applied.
func FindBreakEven(wifi, p5g CostBreakdown, years int) BreakEven {
	for year := 1; year <= years; year++ {
		w := wifi.Capex + wifi.AnnualOpex*float64(year)
		g := p5g.Capex + p5g.AnnualOpex*float64(year)
		if g <= w {
			return BreakEven{Found: true, Year: year}
		}
	}
	return BreakEven{}
}

// CumulativeTrend is capex plus accrued maintenance at the end of each year.
func CumulativeTrend(b CostBreakdown, years int) []float64 {
	if years < 1 {
		return nil
	}
	out := make([]float64, 0, years)
	for year := 1; year <= years; year++ {
		out = append(out, b.Capex+b.AnnualOpex*float64(year))
	}
	return out
}

// MaintenanceCashFlows is the initial outlay followed by one flat maintenance
// outflow per year. Growth is not applied here; only the headline totals
// compound it. A horizon below one year yields the outlay alone.
func MaintenanceCashFlows(capex, annualOpex float64, years int) []float64 {
	years = max(years, 0)
	flows := make([]float64, 0, years+1)
	flows = append(flows, -capex)
	for year := 1; year <= years; year++ {
		flows = append(flows, -annualOpex)
	}
	return flows
}

// NPV discounts flows[t] by (1+r)^t, with t=0 undiscounted.
func NPV(ratePercent float64, flows []float64) float64 {
	r := ratePercent / 100
	npv := 0.0
	for t, cf := range flows {
		npv += cf / math.Pow(1+r, float64(t))
	}
	return npv
}

var (
	sensitivityGrowthRange      = [2]float64{0, 20}
	sensitivityMaintenanceRange = [2]float64{0.10, 0.25}
)

const sensitivitySteps = 5

// SensitivityGrid holds Wi-Fi risk-adjusted totals. Totals[i][j] is the total
// at GrowthPercents[i] and MaintenanceRates[j].
type SensitivityGrid struct {
	GrowthPercents   []float64   `json:"growth_percents"`
	MaintenanceRates []float64   `json:"maintenance_rates"`
	Totals           [][]float64 `json:"totals"`
}

// Sensitivity sweeps Wi-Fi growth and maintenance rate, holding every other
// parameter fixed.
func Sensitivity(p ScenarioParameters) (SensitivityGrid, error) {
	grid := SensitivityGrid{
		GrowthPercents:   linspace(sensitivityGrowthRange[0], sensitivityGrowthRange[1], sensitivitySteps),
		MaintenanceRates: linspace(sensitivityMaintenanceRange[0], sensitivityMaintenanceRange[1], sensitivitySteps),
	}
	grid.Totals = make([][]float64, len(grid.GrowthPercents))
	for i, g := range grid.GrowthPercents {
		row := make([]float64, len(grid.MaintenanceRates))
		for j, m := range grid.MaintenanceRates {
			q := p
			q.GrowthPercent = g
			q.Pricing.WiFiMaintenanceRate = m
			b, err := WiFiCost(q)
			if err != nil {
				return SensitivityGrid{}, err
			}
			row[j] = b.RiskAdjustedTotal
		}
		grid.Totals[i] = row
	}
	return grid, nil
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	out[n-1] = hi
	return out
}
