package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/advisor"
	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/money"
	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/tco"
)

const Disclaimer = "Vendor prices are illustrative list figures, not quotes. " +
	"Treat this comparison as a planning aid and confirm pricing with suppliers before committing budget."

// Document is everything a rendered report needs.
type Document struct {
	EvaluationID string
	Result       tco.Result
	// Narrative is optional; nil omits the executive summary.
	Narrative   *advisor.Narrative
	GeneratedAt time.Time
}

// BuildMarkdown renders the evaluation as a GitHub-flavoured markdown report.
func BuildMarkdown(doc Document) string {
	res := doc.Result
	p := res.Parameters
	generated := doc.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Wireless TCO Comparison\n\n")
	if doc.EvaluationID != "" {
		fmt.Fprintf(&b, "- Evaluation: %s\n", doc.EvaluationID)
	}
	fmt.Fprintf(&b, "- Date: %s\n", generated.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Facility: %s sq ft, %s\n", money.Int(p.FacilitySqft), p.Coverage)
	fmt.Fprintf(&b, "- Horizon: %d years\n", p.HorizonYears)
	fmt.Fprintf(&b, "- Availability target: %s\n", p.SLA)
	fmt.Fprintf(&b, "- Latency requirement: %g ms\n", p.LatencyMs)
	fmt.Fprintf(&b, "- Annual growth: %g%%\n", p.GrowthPercent)
	fmt.Fprintf(&b, "- Pricing: %s\n\n", pricingLabel(p))
	fmt.Fprintf(&b, "%s\n\n", Disclaimer)

	if n := doc.Narrative; n != nil {
		fmt.Fprintf(&b, "## Executive Summary\n\n")
		fmt.Fprintf(&b, "**%s**\n\n", sanitize(n.Headline))
		fmt.Fprintf(&b, "%s\n\n", sanitize(n.Summary))
		if len(n.Risks) > 0 {
			fmt.Fprintf(&b, "Watch points:\n\n")
			for _, r := range n.Risks {
				fmt.Fprintf(&b, "- %s\n", sanitize(r))
			}
			fmt.Fprintf(&b, "\n")
		}
	}

	rec := res.Recommendation
	fmt.Fprintf(&b, "## Recommendation\n\n")
	fmt.Fprintf(&b, "**%s** has the lowest risk-adjusted TCO at %s, %s (%s) below %s.\n\n",
		rec.Architecture, money.USD(rec.TCO), money.USD(rec.Savings),
		strings.TrimPrefix(money.Percent(rec.SavingsPercent), "+"), rec.RunnerUp)

	fmt.Fprintf(&b, "## Architecture Comparison\n\n")
	fmt.Fprintf(&b, "| Architecture | %d-Year TCO | Annual Run Rate | Cost / sq ft | vs Wi-Fi |\n", p.HorizonYears)
	fmt.Fprintf(&b, "|---|---:|---:|---:|---:|\n")
	for _, row := range res.Comparison {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", row.Architecture, money.USD(row.TCO),
			money.USD(row.AnnualizedRunRate), money.USDCents(row.CostPerSqft), money.Percent(row.PercentVsBaseline))
	}
	fmt.Fprintf(&b, "\n")

	fmt.Fprintf(&b, "## Cost Breakdown\n\n")
	fmt.Fprintf(&b, "| Architecture | CAPEX | OPEX | Annual OPEX | Risk-Adjusted Total |\n")
	fmt.Fprintf(&b, "|---|---:|---:|---:|---:|\n")
	for _, arch := range tco.Architectures {
		cb := res.Breakdown(arch)
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", arch, money.USD(cb.Capex), money.USD(cb.Opex),
			money.USD(cb.AnnualOpex), money.USD(cb.RiskAdjustedTotal))
	}
	fmt.Fprintf(&b, "\n")
	fmt.Fprintf(&b, "Deployment: %d access points", res.Devices.AccessPoints)
	if res.Devices.Switches > 0 {
		fmt.Fprintf(&b, ", %d access switches", res.Devices.Switches)
	}
	fmt.Fprintf(&b, ", %d small cells.\n\n", res.Devices.SmallCells)

	fmt.Fprintf(&b, "## Break-Even\n\n")
	if res.BreakEven.Found {
		fmt.Fprintf(&b, "Private 5G cumulative cost falls to or below Wi-Fi in **year %d**.\n\n", res.BreakEven.Year)
	} else {
		fmt.Fprintf(&b, "Private 5G does not reach cumulative cost parity with Wi-Fi within %d years.\n\n", p.HorizonYears)
	}

	fmt.Fprintf(&b, "## Net Present Value\n\n")
	fmt.Fprintf(&b, "Initial outlay followed by flat yearly maintenance, discounted from year 0. Values are costs, so they are negative.\n\n")
	fmt.Fprintf(&b, "| Discount Rate |")
	for _, arch := range tco.Architectures {
		fmt.Fprintf(&b, " %s |", arch)
	}
	fmt.Fprintf(&b, "\n|---|%s\n", strings.Repeat("---:|", len(tco.Architectures)))
	for _, set := range res.NPV {
		fmt.Fprintf(&b, "| %g%% |", set.RatePercent)
		for _, arch := range tco.Architectures {
			fmt.Fprintf(&b, " %s |", money.USD(set.Values[arch]))
		}
		fmt.Fprintf(&b, "\n")
	}
	fmt.Fprintf(&b, "\n")

	fmt.Fprintf(&b, "## Cumulative Cost Trend\n\n")
	fmt.Fprintf(&b, "| Year |")
	for _, arch := range tco.Architectures {
		fmt.Fprintf(&b, " %s |", arch)
	}
	fmt.Fprintf(&b, "\n|---|%s\n", strings.Repeat("---:|", len(tco.Architectures)))
	for year := 1; year <= p.HorizonYears; year++ {
		fmt.Fprintf(&b, "| %d |", year)
		for _, arch := range tco.Architectures {
			trend := res.Trend[arch]
			cell := "n/a"
			if year-1 < len(trend) {
				cell = money.USD(trend[year-1])
			}
			fmt.Fprintf(&b, " %s |", cell)
		}
		fmt.Fprintf(&b, "\n")
	}
	fmt.Fprintf(&b, "\n")

	writeSensitivity(&b, res.Sensitivity)
	writeMonteCarlo(&b, res.MonteCarlo)

	fmt.Fprintf(&b, "## Assumptions\n\n")
	fmt.Fprintf(&b, "- One access point per 2,500 sq ft and one small cell per 10,000 sq ft, scaled by coverage model.\n")
	fmt.Fprintf(&b, "- Risk factor is the availability multiplier times compound growth over the horizon.\n")
	fmt.Fprintf(&b, "- Wi-Fi carries a 10%% penalty when the latency requirement is under 10 ms.\n")
	fmt.Fprintf(&b, "- Hybrid is 60%% of the Wi-Fi cost plus 60%% of the Private 5G cost.\n")
	fmt.Fprintf(&b, "- Maintenance is a flat share of CAPEX each year.\n")
	return b.String()
}

func writeSensitivity(b *strings.Builder, g tco.SensitivityGrid) {
	if len(g.Totals) == 0 {
		return
	}
	fmt.Fprintf(b, "## Sensitivity Analysis\n\n")
	fmt.Fprintf(b, "Wi-Fi risk-adjusted TCO by annual growth (rows) and maintenance rate (columns).\n\n")
	fmt.Fprintf(b, "| Growth |")
	for _, m := range g.MaintenanceRates {
		fmt.Fprintf(b, " %s |", money.Rate(m))
	}
	fmt.Fprintf(b, "\n|---|%s\n", strings.Repeat("---:|", len(g.MaintenanceRates)))
	for i, growth := range g.GrowthPercents {
		fmt.Fprintf(b, "| %g%% |", growth)
		for _, v := range g.Totals[i] {
			fmt.Fprintf(b, " %s |", money.USD(v))
		}
		fmt.Fprintf(b, "\n")
	}
	fmt.Fprintf(b, "\n")
}

func writeMonteCarlo(b *strings.Builder, mc map[tco.Architecture]tco.MonteCarloResult) {
	if len(mc) == 0 {
		return
	}
	fmt.Fprintf(b, "## Monte Carlo Cost Variance\n\n")
	count := 0
	for _, r := range mc {
		count = r.Summary.Count
		break
	}
	fmt.Fprintf(b, "%d uniform draws between 90%% and 115%% of each risk-adjusted total.\n\n", count)
	fmt.Fprintf(b, "| Architecture | Mean | Std Dev | P5 | P50 | P95 |\n")
	fmt.Fprintf(b, "|---|---:|---:|---:|---:|---:|\n")
	for _, arch := range tco.Architectures {
		r, ok := mc[arch]
		if !ok {
			continue
		}
		s := r.Summary
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s |\n", arch, money.USD(s.Mean), money.USD(s.StdDev),
			money.USD(s.P5), money.USD(s.P50), money.USD(s.P95))
	}
	fmt.Fprintf(b, "\n")
}

func pricingLabel(p tco.ScenarioParameters) string {
	if p.Vendor != "" {
		return fmt.Sprintf("%s vendor profile (%s)", p.Vendor, p.Pricing.Variant)
	}
	return fmt.Sprintf("%s price sheet", p.Pricing.Variant)
}

func sanitize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
