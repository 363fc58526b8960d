package httpadapter

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"
	"gonum.org/v1/gonum/mat"

	"github.com/kirillkom/parkinsons-screening/internal/config"
	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
	"github.com/kirillkom/parkinsons-screening/internal/core/ports"
	"github.com/kirillkom/parkinsons-screening/internal/core/usecase"
	"github.com/kirillkom/parkinsons-screening/internal/infrastructure/cache/memory"
	"github.com/kirillkom/parkinsons-screening/internal/infrastructure/tabular"
	"github.com/kirillkom/parkinsons-screening/internal/observability/metrics"
)

// thresholdClassifier flags rows whose first feature is below 2.
type thresholdClassifier struct{}

func (thresholdClassifier) Predict(_ context.Context, features mat.Matrix) ([]float64, error) {
	rows, _ := features.Dims()
	out := make([]float64, rows)
	for i := range out {
		if features.At(i, 0) < 2 {
			out[i] = 1
		}
	}
	return out, nil
}

type loaderFake struct {
	manifest domain.FeatureManifest
	err      error
}

func (f loaderFake) Load(context.Context) (ports.Classifier, domain.FeatureManifest, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return thresholdClassifier{}, f.manifest, nil
}

func (loaderFake) ModelVersion() string { return "0123456789ab" }

type auditFake struct {
	events map[string]domain.ScreeningEvent
	err    error
	limit  int
}

func (f *auditFake) GetByID(_ context.Context, runID string) (*domain.ScreeningEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	event, ok := f.events[runID]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get screening run", errors.New(runID))
	}
	return &event, nil
}

func (f *auditFake) ListRecent(_ context.Context, limit int) ([]domain.ScreeningEvent, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.ScreeningEvent, 0, len(f.events))
	for _, event := range f.events {
		out = append(out, event)
	}
	return out, nil
}

type testServer struct {
	handler http.Handler
	metrics *metrics.HTTPServerMetrics
}

func newTestServer(t *testing.T, cfg config.Config, audit ports.ScreeningAuditReader) testServer {
	t.Helper()
	uc := usecase.NewScreeningUseCase(
		loaderFake{manifest: domain.FeatureManifest{"A", "B"}},
		tabular.NewCSVDecoder(),
		memory.NewResultCache(8, time.Minute),
		nil,
	)
	m := metrics.NewHTTPServerMetrics(serviceName)
	handler := NewRouter(cfg, uc, uc, audit, tabular.CSVEncoder{}, tabular.XLSXEncoder{}).
		WithMetrics(m).
		Handler()
	return testServer{handler: handler, metrics: m}
}

func (s testServer) do(req *http.Request) *httptest.ResponseRecorder {
	res := httptest.NewRecorder()
	s.handler.ServeHTTP(res, req)
	return res
}

func uploadRequest(t *testing.T, target, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func parsePage(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	return doc
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	if n.Type == html.ElementNode && n.Data == tag {
		out = append(out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, findAll(c, tag)...)
	}
	return out
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textOf(c))
	}
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
