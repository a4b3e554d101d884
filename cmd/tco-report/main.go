package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/advisor"
	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/catalog"
	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/report"
	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/tco"
	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/tcoclient"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

type options struct {
	inputs        tco.RawInputs
	stackFile     string
	catalogFile   string
	catalogDB     string
	seedCatalogDB string
	webDir        string
	server        string
	format        string
	output        string
	narrative     bool
	seed          uint64
	trials        int
}

func parseFlags(args []string) (options, error) {
	def := tco.DefaultInputs()
	o := options{inputs: def}
	fs := flag.NewFlagSet("tco-report", flag.ContinueOnError)
	fs.IntVar(&o.inputs.FacilitySqft, "facility-sqft", def.FacilitySqft, "Facility size in square feet")
	fs.IntVar(&o.inputs.HorizonYears, "horizon", def.HorizonYears, "Planning horizon in years (1-10)")
	fs.StringVar(&o.inputs.CoverageModel, "coverage", def.CoverageModel, `Coverage model: "Indoor Only", "Outdoor Only" or "Indoor + Outdoor"`)
	fs.Float64Var(&o.inputs.AnnualGrowthPercent, "growth", def.AnnualGrowthPercent, "Annual device growth percent (0-30)")
	fs.Float64Var(&o.inputs.LatencyRequirementMs, "latency", def.LatencyRequirementMs, "Latency requirement in ms")
	fs.StringVar(&o.inputs.SLATarget, "sla", def.SLATarget, `Availability target: "99.9%", "99.99%" or "99.999%"`)
	fs.StringVar(&o.inputs.Vendor, "vendor", "", "Vendor profile name (Cisco, Nokia, Ericsson or a catalog entry)")
	fs.Float64Var(&o.inputs.DiscountRatePercent, "discount", def.DiscountRatePercent, "Discount rate percent for NPV (5-20)")
	fs.Float64Var(&o.inputs.AltDiscountRatePercent, "alt-discount", 0, "Optional second discount rate percent")
	fs.StringVar(&o.stackFile, "stack", "", "YAML file with a custom per-component price sheet (wins over -vendor)")
	fs.StringVar(&o.catalogFile, "catalog", os.Getenv("TCO_CATALOG_FILE"), "Vendor catalog YAML")
	fs.StringVar(&o.catalogDB, "catalog-db", os.Getenv("TCO_CATALOG_DB"), "Vendor catalog SQLite database")
	fs.StringVar(&o.seedCatalogDB, "seed-catalog-db", "", "Write the loaded catalog into this SQLite database and exit")
	fs.StringVar(&o.webDir, "web-dir", os.Getenv("TCO_WEB_DIR"), "Directory with an optional style.css")
	fs.StringVar(&o.server, "server", os.Getenv("TCO_SERVER_URL"), "Evaluate on a running tco-server at this base URL instead of locally")
	fs.StringVar(&o.format, "format", "markdown", "Output format: markdown, json, html or pdf")
	fs.StringVar(&o.output, "output", "", "Output path (defaults to stdout; required for pdf)")
	fs.BoolVar(&o.narrative, "narrative", false, "Include an executive summary (LLM when ANTHROPIC_API_KEY is set)")
	fs.Uint64Var(&o.seed, "seed", 0, "Monte Carlo seed; 0 draws from the global source")
	fs.IntVar(&o.trials, "trials", tco.DefaultMonteCarloTrials, "Monte Carlo trials")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.format = strings.ToLower(strings.TrimSpace(o.format))
	switch o.format {
	case "markdown", "json", "html", "pdf":
	default:
		return o, fmt.Errorf("unknown -format %q", o.format)
	}
	if o.format == "pdf" && o.output == "" {
		return o, errors.New("-format pdf requires -output")
	}
	if o.server != "" {
		if err := checkRemoteFlags(fs, o); err != nil {
			return o, err
		}
	}
	return o, nil
}

// localOnlyFlags configure the in-process engine and have no remote
// equivalent; the server uses its own catalog, trial count and stylesheet.
var localOnlyFlags = []string{"seed", "trials", "catalog", "catalog-db", "seed-catalog-db", "web-dir"}

func checkRemoteFlags(fs *flag.FlagSet, o options) error {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for _, name := range localOnlyFlags {
		if set[name] {
			return fmt.Errorf("-%s cannot be combined with -server", name)
		}
	}
	if o.format == "json" && o.narrative {
		return errors.New("-narrative with -format json is not available with -server; use markdown, html or pdf")
	}
	return nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}

	if o.stackFile != "" {
		stack, err := readStack(o.stackFile)
		if err != nil {
			return err
		}
		o.inputs.Stack = &stack
	}
	if o.server != "" {
		return runRemote(ctx, o, stdout)
	}

	cat, err := catalog.Load(o.catalogFile, o.catalogDB)
	if err != nil {
		return err
	}
	if o.seedCatalogDB != "" {
		if err := catalog.SeedSQLite(o.seedCatalogDB, cat); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		log.Printf("seeded %d vendors from %s into %s", len(cat.Vendors()), cat.Source(), o.seedCatalogDB)
		return nil
	}

	params, err := tco.Resolve(o.inputs, cat)
	if err != nil {
		return err
	}
	opts := tco.Options{MonteCarloTrials: o.trials}
	if o.seed != 0 {
		opts.Rand = rand.New(rand.NewPCG(o.seed, o.seed))
	}
	res, err := tco.Evaluate(params, opts)
	if err != nil {
		return err
	}
	id := uuid.NewString()

	doc := report.Document{EvaluationID: id, Result: res, GeneratedAt: time.Now()}
	if o.narrative {
		n, err := narrator().Narrate(ctx, res)
		if err != nil {
			return fmt.Errorf("narrative: %w", err)
		}
		doc.Narrative = &n
	}

	var out []byte
	switch o.format {
	case "json":
		env := map[string]any{"ok": true, "evaluation_id": id, "result": res}
		if doc.Narrative != nil {
			env["narrative"] = doc.Narrative
		}
		if out, err = json.MarshalIndent(env, "", "  "); err != nil {
			return err
		}
		out = append(out, '\n')
	case "markdown":
		out = []byte(report.BuildMarkdown(doc))
	case "html":
		page, err := report.NewHTMLRenderer(o.webDir).Render(report.BuildMarkdown(doc))
		if err != nil {
			return err
		}
		out = []byte(page)
	case "pdf":
		r := report.NewChromiumPDFRenderer(report.NewHTMLRenderer(o.webDir))
		if out, err = r.Render(ctx, report.BuildMarkdown(doc)); err != nil {
			return fmt.Errorf("render pdf: %w", err)
		}
	}
	return writeOutput(o.output, out, stdout)
}

// runRemote delegates evaluation and rendering to a tco-server.
func runRemote(ctx context.Context, o options, stdout io.Writer) error {
	c := tcoclient.NewClient(o.server)
	if o.format == "json" {
		id, res, err := c.Evaluate(ctx, o.inputs)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(map[string]any{"ok": true, "evaluation_id": id, "result": res}, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(o.output, append(out, '\n'), stdout)
	}
	out, id, err := c.Report(ctx, o.inputs, o.format, o.narrative)
	if err != nil {
		return err
	}
	log.Printf("remote evaluation %s", id)
	return writeOutput(o.output, out, stdout)
}

func narrator() advisor.Advisor {
	caller, err := advisor.NewAnthropicModelFromEnv()
	if err != nil {
		return advisor.StaticAdvisor{}
	}
	return advisor.Fallback{
		Primary:   advisor.NewLLMAdvisor(caller),
		Secondary: advisor.StaticAdvisor{},
		OnError:   func(err error) { log.Printf("llm narrative failed, using static: %v", err) },
	}
}

func readStack(path string) (tco.StackPricing, error) {
	var stack tco.StackPricing
	blob, err := os.ReadFile(path)
	if err != nil {
		return stack, fmt.Errorf("read stack: %w", err)
	}
	if err := yaml.UnmarshalStrict(blob, &stack); err != nil {
		return stack, fmt.Errorf("decode stack %s: %w", path, err)
	}
	return stack, nil
}

func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
