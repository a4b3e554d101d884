package advisor

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/money"
	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/tco"
)

const (
	SourceStatic = "static"
	SourceLLM    = "llm"
)

// Narrative is a plain-language reading of one evaluation.
type Narrative struct {
	Headline string   `json:"headline"`
	Summary  string   `json:"summary"`
	Risks    []string `json:"risks"`
	Source   string   `json:"source"`
}

func (n Narrative) validate() error {
	var problems []string
	if strings.TrimSpace(n.Headline) == "" {
		problems = append(problems, "headline is required")
	}
	if strings.TrimSpace(n.Summary) == "" {
		problems = append(problems, "summary is required")
	}
	if len(n.Risks) > 5 {
		problems = append(problems, fmt.Sprintf("at most 5 risks, got %d", len(n.Risks)))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

type Advisor interface {
	Narrate(ctx context.Context, res tco.Result) (Narrative, error)
}

// StaticAdvisor derives the narrative from the numbers alone.
type StaticAdvisor struct{}

func (StaticAdvisor) Narrate(_ context.Context, res tco.Result) (Narrative, error) {
	rec := res.Recommendation
	p := res.Parameters
	n := Narrative{
		Source: SourceStatic,
		Headline: fmt.Sprintf("%s has the lowest %d-year risk-adjusted TCO at %s",
			rec.Architecture, p.HorizonYears, money.USD(rec.TCO)),
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s undercuts %s by %s (%.1f%%) for a %s sq ft facility with %s coverage at a %s availability target.",
		rec.Architecture, rec.RunnerUp, money.USD(rec.Savings), rec.SavingsPercent,
		money.Int(p.FacilitySqft), p.Coverage, p.SLA)
	if res.BreakEven.Found {
		fmt.Fprintf(&b, " Private 5G reaches cumulative cost parity with Wi-Fi in year %d.", res.BreakEven.Year)
	} else {
		fmt.Fprintf(&b, " Private 5G does not reach cumulative cost parity with Wi-Fi within the %d-year horizon.", p.HorizonYears)
	}
	n.Summary = b.String()

	if p.LatencyMs < 10 {
		n.Risks = append(n.Risks, fmt.Sprintf("A %.0f ms latency requirement adds a 10%% risk premium to Wi-Fi.", p.LatencyMs))
	}
	if p.GrowthPercent > 0 {
		n.Risks = append(n.Risks, fmt.Sprintf("%.1f%% annual growth compounds to a %.2fx multiplier over the horizon.",
			p.GrowthPercent, tco.GrowthMultiplier(p.GrowthPercent, p.HorizonYears)))
	}
	if mc, ok := res.MonteCarlo[rec.Architecture]; ok && mc.Summary.Count > 0 {
		n.Risks = append(n.Risks, fmt.Sprintf("Cost variance for %s spans %s to %s (P5-P95).",
			rec.Architecture, money.USD(mc.Summary.P5), money.USD(mc.Summary.P95)))
	}
	if math.Abs(rec.SavingsPercent) < 5 {
		n.Risks = append(n.Risks, fmt.Sprintf("The gap to %s is under 5%%; pricing assumptions can flip the ranking.", rec.RunnerUp))
	}
	return n, nil
}

// Fallback serves Secondary when Primary fails. OnError, when set, sees the
// primary failure.
type Fallback struct {
	Primary   Advisor
	Secondary Advisor
	OnError   func(error)
}

func (f Fallback) Narrate(ctx context.Context, res tco.Result) (Narrative, error) {
	if f.Primary != nil {
		n, err := f.Primary.Narrate(ctx, res)
		if err == nil {
			return n, nil
		}
		if f.OnError != nil {
			f.OnError(err)
		}
	}
	return f.Secondary.Narrate(ctx, res)
}
