package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/advisor"
	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/catalog"
	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/tco"
)

type fakePDF struct {
	markdown string
	err      error
}

func (f *fakePDF) Render(_ context.Context, markdown string) ([]byte, error) {
	f.markdown = markdown
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

type failingAdvisor struct{}

func (failingAdvisor) Narrate(context.Context, tco.Result) (advisor.Narrative, error) {
	return advisor.Narrative{}, errors.New("model unavailable")
}

func newServerForTest(t *testing.T, mutate func(*Config)) http.Handler {
	t.Helper()
	cfg := Config{
		Catalog:          catalog.Builtin(),
		MonteCarloTrials: 50,
		Now:              func() time.Time { return time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC) },
		NewID:            func() string { return "eval-test" },
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewServer(cfg)
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var blob []byte
	switch v := body.(type) {
	case string:
		blob = []byte(v)
	default:
		var err error
		if blob, err = json.Marshal(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(blob))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

type evaluateResponse struct {
	OK           bool       `json:"ok"`
	EvaluationID string     `json:"evaluation_id"`
	Result       tco.Result `json:"result"`
}

func TestHealthAndVendors(t *testing.T) {
	h := newServerForTest(t, nil)
	rr := get(t, h, "/v1/health")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"catalog":"builtin"`) {
		t.Fatalf("health status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = get(t, h, "/v1/vendors")
	if rr.Code != http.StatusOK {
		t.Fatalf("vendors status=%d", rr.Code)
	}
	var out struct {
		Vendors        []tco.VendorProfile `json:"vendors"`
		DefaultPricing tco.StackPricing    `json:"default_pricing"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Vendors) != 3 || out.Vendors[0].Name != "Cisco" {
		t.Fatalf("unexpected vendors %+v", out.Vendors)
	}
	if out.DefaultPricing != tco.DefaultPricing() {
		t.Fatalf("unexpected default pricing %+v", out.DefaultPricing)
	}
}

func TestEvaluateEmptyBodyUsesDefaults(t *testing.T) {
	h := newServerForTest(t, nil)
	rr := postJSON(t, h, "/v1/evaluate", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var out evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if !out.OK || out.EvaluationID != "eval-test" {
		t.Fatalf("unexpected envelope %+v", out)
	}
	if math.Abs(out.Result.WiFi.RiskAdjustedTotal-456000) > 1e-6 || math.Abs(out.Result.Private5G.RiskAdjustedTotal-577500) > 1e-6 {
		t.Fatalf("unexpected totals wifi=%v p5g=%v", out.Result.WiFi.RiskAdjustedTotal, out.Result.Private5G.RiskAdjustedTotal)
	}
	if out.Result.Parameters.Coverage != tco.IndoorOnly || out.Result.Parameters.SLA != tco.SLA999 {
		t.Fatalf("labels did not round-trip: %+v", out.Result.Parameters)
	}
	if got := len(out.Result.MonteCarlo[tco.ArchWiFi].Samples); got != 50 {
		t.Fatalf("expected 50 samples, got %d", got)
	}
}

func TestEvaluateVendorAndStack(t *testing.T) {
	h := newServerForTest(t, nil)
	rr := postJSON(t, h, "/v1/evaluate", map[string]any{
		"facility_sqft":  200000,
		"coverage_model": "Indoor + Outdoor",
		"sla_target":     "99.99%",
		"vendor":         "nokia",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var out evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Result.Parameters.Vendor != "Nokia" || out.Result.Parameters.Pricing.APCost != 1100 {
		t.Fatalf("expected nokia pricing, got %+v", out.Result.Parameters)
	}

	rr = postJSON(t, h, "/v1/evaluate", map[string]any{
		"vendor": "Cisco",
		"stack": map[string]any{
			"ap_cost": 1000, "switch_cost": 4000, "controller_cost": 20000,
			"cell_cost": 5000, "core_cost": 80000, "wifi_maintenance_rate": 0.1, "p5g_maintenance_rate": 0.1,
		},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	out = evaluateResponse{}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Result.Parameters.Pricing.Variant != tco.VariantFullStack || out.Result.Devices.Switches == 0 {
		t.Fatalf("custom stack should win over the vendor: %+v", out.Result.Parameters.Pricing)
	}
}

func TestReportFormats(t *testing.T) {
	pdf := &fakePDF{}
	h := newServerForTest(t, func(c *Config) { c.PDF = pdf })

	rr := postJSON(t, h, "/v1/report", "{}")
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/markdown") {
		t.Fatalf("markdown status=%d type=%s", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Body.String(), "# Wireless TCO Comparison") || rr.Header().Get("X-Evaluation-Id") != "eval-test" {
		t.Fatalf("unexpected markdown report: %.200s", rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "Executive Summary") {
		t.Fatal("narrative should be opt-in")
	}

	rr = postJSON(t, h, "/v1/report?format=html&narrative=1", "{}")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "<table>") {
		t.Fatalf("html status=%d body=%.200s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Executive Summary") {
		t.Fatal("expected static narrative in html report")
	}

	rr = postJSON(t, h, "/v1/report?format=pdf", "{}")
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf status=%d type=%s", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rr.Body.String(), "%PDF") || !strings.Contains(pdf.markdown, "## Break-Even") {
		t.Fatal("pdf renderer should receive the markdown report")
	}
}

func TestReportPDFFailures(t *testing.T) {
	h := newServerForTest(t, nil)
	rr := postJSON(t, h, "/v1/report?format=pdf", "{}")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without renderer, got %d", rr.Code)
	}

	h = newServerForTest(t, func(c *Config) { c.PDF = &fakePDF{err: errors.New("chrome missing")} })
	rr = postJSON(t, h, "/v1/report?format=pdf", "{}")
	if rr.Code != http.StatusBadGateway || !strings.Contains(rr.Body.String(), "chrome missing") {
		t.Fatalf("expected 502, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestReportNarrativeFailureIsLoggedNotFatal(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := newServerForTest(t, func(c *Config) {
		c.Advisor = failingAdvisor{}
		c.Logger = zap.New(core)
	})
	rr := postJSON(t, h, "/v1/report?narrative=true", "{}")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "Executive Summary") {
		t.Fatal("failed narrative should be omitted")
	}
	if logs.FilterMessage("narrative unavailable").Len() != 1 {
		t.Fatalf("expected one warning, got %v", logs.All())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newServerForTest(t, nil)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/evaluate"},
		{http.MethodGet, "/v1/report"},
		{http.MethodPost, "/v1/health"},
		{http.MethodDelete, "/v1/vendors"},
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: expected 405, got %d", tc.method, tc.path, rr.Code)
		}
	}
}

func TestMetricsExposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newServerForTest(t, func(c *Config) { c.Registry = reg })
	postJSON(t, h, "/v1/evaluate", "{}")
	postJSON(t, h, "/v1/evaluate", `{"sla_target":"100%"}`)

	rr := get(t, h, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`tco_evaluations_total{recommended="Wi-Fi"} 1`,
		`tco_request_errors_total{code="invalid_enum"} 1`,
		`tco_http_request_duration_seconds_count{method="POST",route="/v1/evaluate",status="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

type panickingAdvisor struct{}

func (panickingAdvisor) Narrate(context.Context, tco.Result) (advisor.Narrative, error) {
	panic("narrative blew up")
}

func TestHandlerPanicBecomesInternalError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := newServerForTest(t, func(c *Config) {
		c.Advisor = panickingAdvisor{}
		c.Logger = zap.New(core)
	})
	rr := postJSON(t, h, "/v1/report?narrative=1", `{}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var env errorEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.OK || env.Error.Code != codeInternal {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if logs.FilterMessage("handler panic").Len() != 1 {
		t.Fatalf("expected one panic log, got %v", logs.All())
	}
}

func TestWriteJSONUnencodablePayload(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusOK, map[string]float64{"total": math.Inf(1)})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d want 500", rr.Code)
	}
	var env errorEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("body is not json: %q", rr.Body.String())
	}
	if env.OK || env.Error.Code != codeInternal {
		t.Fatalf("unexpected envelope %+v", env)
	}
}
