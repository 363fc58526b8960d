package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/parkinsons-screening/internal/config"
	"github.com/kirillkom/parkinsons-screening/internal/core/ports"
	"github.com/kirillkom/parkinsons-screening/internal/observability/metrics"
)

const (
	serviceName        = "screening-api"
	defaultMaxUpload   = 32 << 20
	multipartMemoryCap = 8 << 20
)

type Router struct {
	cfg      config.Config
	screener ports.Screener
	results  ports.ResultReader
	audit    ports.ScreeningAuditReader
	encoders map[string]ports.TableEncoder
	metrics  *metrics.HTTPServerMetrics
	pages    *pageRenderer
}

// NewRouter wires the screening handlers. audit may be nil when no audit
// store is configured. Encoders are addressed by their extension without the dot.
func NewRouter(
	cfg config.Config,
	screener ports.Screener,
	results ports.ResultReader,
	audit ports.ScreeningAuditReader,
	encoders ...ports.TableEncoder,
) *Router {
	byFormat := make(map[string]ports.TableEncoder, len(encoders))
	for _, enc := range encoders {
		byFormat[strings.TrimPrefix(enc.Extension(), ".")] = enc
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}
	return &Router{
		cfg:      cfg,
		screener: screener,
		results:  results,
		audit:    audit,
		encoders: byFormat,
		pages:    newPageRenderer(),
	}
}

func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /{$}", rt.index)
	mux.Handle("POST /screen", rt.guard(http.HandlerFunc(rt.screenPage)))
	mux.HandleFunc("GET /results/{run_id}/download", rt.download)
	mux.Handle("POST /v1/screenings", rt.guard(http.HandlerFunc(rt.screenJSON)))
	mux.HandleFunc("GET /v1/screenings", rt.listScreenings)
	mux.HandleFunc("GET /v1/screenings/{run_id}", rt.getScreening)
	mux.HandleFunc("GET /v1/manifest", rt.manifest)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = recoveryMiddleware(handler)
	return requestIDMiddleware(handler)
}

// guard applies traffic control to the endpoints that run the classifier.
func (rt *Router) guard(next http.Handler) http.Handler {
	wait := time.Duration(rt.cfg.APIBackpressureWaitMS) * time.Millisecond
	handler := backpressureMiddleware(next, rt.cfg.APIMaxInFlight, wait)
	if rt.cfg.APIRateLimitRPS > 0 {
		burst := max(rt.cfg.APIRateLimitBurst, 1)
		handler = rateLimitMiddleware(handler, rate.NewLimiter(rate.Limit(rt.cfg.APIRateLimitRPS), burst))
	}
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":      message,
		"request_id": requestIDFromContext(r.Context()),
	})
}
