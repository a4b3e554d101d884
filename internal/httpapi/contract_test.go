package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

type errorEnvelope struct {
	OK    bool `json:"ok"`
	Error struct {
		Code    string `json:"code"`
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestErrorContract(t *testing.T) {
	h := newServerForTest(t, nil)
	for _, tc := range []struct {
		name   string
		path   string
		body   string
		status int
		code   string
		field  string
	}{
		{"malformed json", "/v1/evaluate", `{"facility_sqft":`, 400, codeInvalidJSON, ""},
		{"wrong type", "/v1/evaluate", `{"facility_sqft":"big"}`, 400, codeInvalidJSON, ""},
		{"unknown coverage", "/v1/evaluate", `{"coverage_model":"Underground"}`, 400, "invalid_enum", "coverage_model"},
		{"unknown sla", "/v1/evaluate", `{"sla_target":"99%"}`, 400, "invalid_enum", "sla_target"},
		{"unknown vendor", "/v1/evaluate", `{"vendor":"Acme"}`, 400, "invalid_enum", "vendor"},
		{"facility too small", "/v1/evaluate", `{"facility_sqft":10}`, 400, "out_of_range", "facility_sqft"},
		{"horizon zero", "/v1/evaluate", `{"horizon_years":0}`, 400, "out_of_range", "horizon_years"},
		{"negative growth", "/v1/evaluate", `{"annual_growth_percent":-1}`, 400, "out_of_range", "annual_growth_percent"},
		{"zero latency", "/v1/evaluate", `{"latency_requirement_ms":0}`, 400, "out_of_range", "latency_requirement_ms"},
		{"discount too high", "/v1/evaluate", `{"discount_rate_percent":40}`, 400, "out_of_range", "discount_rate_percent"},
		{"bad variant", "/v1/evaluate", `{"stack":{"variant":"gold"}}`, 400, "invalid_enum", "variant"},
		{"negative cost", "/v1/evaluate", `{"stack":{"ap_cost":-5}}`, 400, "out_of_range", "ap_cost"},
		{"price sheet overflows", "/v1/evaluate", `{"stack":{"variant":"simplified","ap_cost":1e306,"cell_cost":5000,"core_cost":80000}}`, 400, "out_of_range", "capex"},
		{"report price sheet overflows", "/v1/report", `{"stack":{"variant":"simplified","ap_cost":1e306,"cell_cost":5000,"core_cost":80000}}`, 400, "out_of_range", "capex"},
		{"zero price sheet", "/v1/evaluate", `{"stack":{"variant":"simplified"}}`, 422, "division_by_zero", "base"},
		{"report zero price sheet", "/v1/report", `{"stack":{"variant":"simplified"}}`, 422, "division_by_zero", "base"},
		{"report bad format", "/v1/report?format=docx", `{}`, 400, codeInvalidFormat, ""},
		{"report bad input", "/v1/report", `{"coverage_model":"Moon"}`, 400, "invalid_enum", "coverage_model"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rr := postJSON(t, h, tc.path, tc.body)
			if rr.Code != tc.status {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tc.status, rr.Body.String())
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("errors must be json, got %q", ct)
			}
			var env errorEnvelope
			if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
				t.Fatal(err)
			}
			if env.OK || env.Error.Code != tc.code || env.Error.Field != tc.field {
				t.Fatalf("unexpected error envelope %+v", env)
			}
			if strings.TrimSpace(env.Error.Message) == "" {
				t.Fatal("error message must not be empty")
			}
		})
	}
}

func TestStatusForCode(t *testing.T) {
	for code, want := range map[string]int{
		"invalid_enum":     http.StatusBadRequest,
		"out_of_range":     http.StatusBadRequest,
		"division_by_zero": http.StatusUnprocessableEntity,
		"anything_else":    http.StatusInternalServerError,
	} {
		if got := statusForCode(code); got != want {
			t.Fatalf("statusForCode(%s)=%d want %d", code, got, want)
		}
	}
}
