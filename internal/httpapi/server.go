package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/advisor"
	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/catalog"
	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/report"
	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/tco"
)

const maxBodyBytes = 1 << 20

const (
	codeInvalidJSON   = "invalid_json"
	codeInvalidFormat = "invalid_format"
	codeUnavailable   = "unavailable"
	codeInternal      = "internal"
)

// Config wires the server's collaborators. Zero values fall back to
// the builtin catalog, the static advisor and a private registry.
type Config struct {
	Catalog *catalog.Catalog
	// Advisor narrates reports when narrative=1; nil uses the static advisor.
	Advisor advisor.Advisor
	HTML    *report.HTMLRenderer
	// PDF is optional; without it format=pdf answers 503.
	PDF              report.PDFRenderer
	Logger           *zap.Logger
	Registry         *prometheus.Registry
	MonteCarloTrials int
	Now              func() time.Time
	NewID            func() string
}

type Server struct {
	catalog *catalog.Catalog
	advisor advisor.Advisor
	html    *report.HTMLRenderer
	pdf     report.PDFRenderer
	logger  *zap.Logger
	metrics *metrics
	tracer  trace.Tracer
	trials  int
	now     func() time.Time
	newID   func() string
}

func NewServer(cfg Config) http.Handler {
	s := &Server{
		catalog: cfg.Catalog,
		advisor: cfg.Advisor,
		html:    cfg.HTML,
		pdf:     cfg.PDF,
		logger:  cfg.Logger,
		trials:  cfg.MonteCarloTrials,
		now:     cfg.Now,
		newID:   cfg.NewID,
		tracer:  otel.Tracer("enterprise-tco-optimizer/httpapi"),
	}
	if s.catalog == nil {
		s.catalog = catalog.Builtin()
	}
	if s.advisor == nil {
		s.advisor = advisor.StaticAdvisor{}
	}
	if s.html == nil {
		s.html = report.NewHTMLRenderer("")
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s.metrics = newMetrics(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health", s.handleHealth)
	mux.HandleFunc("/v1/vendors", s.handleVendors)
	mux.HandleFunc("/v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("/v1/report", s.handleReport)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return s.withRequestLogging(mux)
}

// apiError is a transport-level failure that is not a tco.Error.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func statusForCode(code string) int {
	switch code {
	case tco.CodeInvalidEnum, tco.CodeOutOfRange:
		return http.StatusBadRequest
	case tco.CodeDivisionByZero:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes before writing the status so an unencodable payload
// still yields a well-formed 500 envelope.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	blob, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		blob, _ = json.Marshal(map[string]any{
			"ok":    false,
			"error": map[string]any{"code": codeInternal, "message": "encode response: " + err.Error()},
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(blob, '\n'))
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code, field, message := http.StatusInternalServerError, codeInternal, "", err.Error()
	var te *tco.Error
	var ae *apiError
	switch {
	case errors.As(err, &te):
		status, code, field, message = statusForCode(te.Code), te.Code, te.Field, te.Message
	case errors.As(err, &ae):
		status, code, message = ae.Status, ae.Code, ae.Message
	default:
		s.logger.Error("request failed", zap.Error(err))
	}
	s.metrics.errors.WithLabelValues(code).Inc()
	body := map[string]any{"code": code, "message": message}
	if field != "" {
		body["field"] = field
	}
	writeJSON(w, status, map[string]any{"ok": false, "error": body})
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte("{}"), nil
	}
	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, &apiError{Status: http.StatusBadRequest, Code: codeInvalidJSON, Message: err.Error()}
	}
	if len(strings.TrimSpace(string(blob))) == 0 {
		blob = []byte("{}")
	}
	return blob, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "catalog": s.catalog.Source()})
}

func (s *Server) handleVendors(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":              true,
		"source":          s.catalog.Source(),
		"vendors":         s.catalog.Vendors(),
		"default_pricing": s.catalog.DefaultPricing(),
	})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	id, res, err := s.evaluate(r.Context(), w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "evaluation_id": id, "result": res})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "markdown"
	}
	switch format {
	case "markdown", "html", "pdf":
	default:
		s.writeError(w, &apiError{Status: http.StatusBadRequest, Code: codeInvalidFormat,
			Message: fmt.Sprintf("format %q not one of markdown, html, pdf", format)})
		return
	}
	if format == "pdf" && s.pdf == nil {
		s.writeError(w, &apiError{Status: http.StatusServiceUnavailable, Code: codeUnavailable,
			Message: "pdf rendering is not configured"})
		return
	}

	ctx, span := s.tracer.Start(r.Context(), "tco.report", trace.WithAttributes(attribute.String("report.format", format)))
	defer span.End()

	id, res, err := s.evaluate(ctx, w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	doc := report.Document{EvaluationID: id, Result: res, GeneratedAt: s.now()}
	if wantNarrative(r.URL.Query().Get("narrative")) {
		n, err := s.advisor.Narrate(ctx, res)
		if err != nil {
			s.logger.Warn("narrative unavailable", zap.String("evaluation_id", id), zap.Error(err))
		} else {
			doc.Narrative = &n
		}
	}
	md := report.BuildMarkdown(doc)

	var (
		body        []byte
		contentType string
	)
	switch format {
	case "markdown":
		body, contentType = []byte(md), "text/markdown; charset=utf-8"
	case "html":
		page, err := s.html.Render(md)
		if err != nil {
			span.RecordError(err)
			s.writeError(w, err)
			return
		}
		body, contentType = []byte(page), "text/html; charset=utf-8"
	case "pdf":
		pdf, err := s.pdf.Render(ctx, md)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "pdf render failed")
			s.writeError(w, &apiError{Status: http.StatusBadGateway, Code: codeUnavailable, Message: "pdf render failed: " + err.Error()})
			return
		}
		body, contentType = pdf, "application/pdf"
	}
	s.metrics.reports.WithLabelValues(format).Inc()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Evaluation-Id", id)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// evaluate decodes the body over the default inputs, resolves it against the
// catalog and runs the engine.
func (s *Server) evaluate(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, tco.Result, error) {
	_, span := s.tracer.Start(ctx, "tco.evaluate")
	defer span.End()

	blob, err := readBody(w, r)
	if err != nil {
		return "", tco.Result{}, err
	}
	in := tco.DefaultInputs()
	if err := json.Unmarshal(blob, &in); err != nil {
		return "", tco.Result{}, &apiError{Status: http.StatusBadRequest, Code: codeInvalidJSON, Message: "invalid json: " + err.Error()}
	}
	span.SetAttributes(
		attribute.Int("tco.facility_sqft", in.FacilitySqft),
		attribute.Int("tco.horizon_years", in.HorizonYears),
		attribute.String("tco.coverage_model", in.CoverageModel),
		attribute.String("tco.sla_target", in.SLATarget),
		attribute.String("tco.vendor", in.Vendor),
	)

	params, err := tco.Resolve(in, s.catalog)
	if err != nil {
		span.SetStatus(codes.Error, "invalid inputs")
		return "", tco.Result{}, err
	}
	res, err := tco.Evaluate(params, tco.Options{MonteCarloTrials: s.trials})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		return "", tco.Result{}, err
	}
	id := s.newID()
	span.SetAttributes(
		attribute.String("tco.evaluation_id", id),
		attribute.String("tco.recommended", string(res.Recommendation.Architecture)),
	)
	s.metrics.evaluations.WithLabelValues(string(res.Recommendation.Architecture)).Inc()
	s.logger.Info("evaluation complete",
		zap.String("evaluation_id", id),
		zap.Int("facility_sqft", params.FacilitySqft),
		zap.Int("horizon_years", params.HorizonYears),
		zap.String("coverage_model", params.Coverage.String()),
		zap.String("recommended", string(res.Recommendation.Architecture)),
		zap.Float64("tco", res.Recommendation.TCO),
	)
	return id, res, nil
}

func wantNarrative(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}
