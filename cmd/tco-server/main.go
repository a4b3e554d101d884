package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/advisor"
	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/catalog"
	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/httpapi"
	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/report"
	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/tco"
	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/telemetry"
)

func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	var (
		addr        = flag.String("addr", "", "Listen address (default :$PORT or :8080)")
		catalogFile = flag.String("catalog", "", "Vendor catalog YAML (overrides TCO_CATALOG_FILE)")
		catalogDB   = flag.String("catalog-db", "", "Vendor catalog SQLite database (overrides TCO_CATALOG_DB)")
		webDir      = flag.String("web-dir", "", "Directory with an optional style.css for reports (overrides TCO_WEB_DIR)")
		trials      = flag.Int("trials", tco.DefaultMonteCarloTrials, "Monte Carlo trials per evaluation")
		noPDF       = flag.Bool("no-pdf", false, "Disable PDF rendering")
		debug       = flag.Bool("debug", false, "Development logging at debug level")
	)
	flag.Parse()

	logger, err := telemetry.NewLogger("tco-server", *debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	listen := *addr
	if listen == "" {
		listen = ":8080"
		if port := os.Getenv("PORT"); port != "" {
			listen = ":" + port
		}
	}

	cat, err := catalog.Load(firstNonEmpty(*catalogFile, os.Getenv("TCO_CATALOG_FILE")),
		firstNonEmpty(*catalogDB, os.Getenv("TCO_CATALOG_DB")))
	if err != nil {
		logger.Fatal("load catalog", zap.Error(err))
	}
	logger.Info("catalog loaded", zap.String("source", cat.Source()), zap.Int("vendors", len(cat.Vendors())))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.SetupTracing(ctx, "tco-server")
	if err != nil {
		logger.Fatal("init tracing", zap.Error(err))
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("flush traces", zap.Error(err))
		}
	}()

	var narrator advisor.Advisor = advisor.StaticAdvisor{}
	caller, err := advisor.NewAnthropicModelFromEnv()
	switch {
	case err == nil:
		narrator = advisor.Fallback{
			Primary:   advisor.NewLLMAdvisor(caller),
			Secondary: advisor.StaticAdvisor{},
			OnError:   func(err error) { logger.Warn("llm narrative failed, using static", zap.Error(err)) },
		}
		logger.Info("llm narrative enabled")
	case errors.Is(err, advisor.ErrDisabled):
		logger.Info("llm narrative disabled")
	default:
		logger.Info("llm narrative unavailable", zap.Error(err))
	}

	html := report.NewHTMLRenderer(firstNonEmpty(*webDir, os.Getenv("TCO_WEB_DIR")))
	var pdf report.PDFRenderer
	if !*noPDF {
		pdf = report.NewChromiumPDFRenderer(html)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler := httpapi.NewServer(httpapi.Config{
		Catalog:          cat,
		Advisor:          narrator,
		HTML:             html,
		PDF:              pdf,
		Logger:           logger,
		Registry:         reg,
		MonteCarloTrials: *trials,
	})

	srv := &http.Server{Addr: listen, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("tco-server listening", zap.String("addr", listen))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("listen", zap.Error(err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
