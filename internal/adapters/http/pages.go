package httpadapter

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageTitle      = "Parkinson's Disease Detection"
	previewRows    = 5
	maxResultsRows = 1000
)

type tableView struct {
	Columns   []string
	Rows      [][]string
	Total     int
	Truncated bool
}

type metricView struct {
	Label string
	Value int
}

type downloadLink struct {
	Label string
	URL   string
}

type pageData struct {
	Title        string
	Features     []string
	ModelVersion string
	MaxUploadMB  int64

	// Notice reports a request that never became a screening (no file, too large).
	Notice string

	Screening *domain.Screening
	Preview   *tableView
	Results   *tableView
	Metrics   []metricView
	Downloads []downloadLink
}

func (d pageData) Failed() bool {
	return d.Screening != nil && d.Screening.State != domain.StateReported
}

type pageRenderer struct {
	tmpl *template.Template
}

func newPageRenderer() *pageRenderer {
	tmpl := template.Must(template.New("page").ParseFS(templateFS, "templates/*.html"))
	return &pageRenderer{tmpl: tmpl}
}

func (p *pageRenderer) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "page.html", data); err != nil {
		slog.Error("render_page_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (rt *Router) basePage(features domain.FeatureManifest) pageData {
	return pageData{
		Title:        pageTitle,
		Features:     features.Names(),
		ModelVersion: rt.screener.ModelVersion(),
		MaxUploadMB:  rt.cfg.MaxUploadBytes >> 20,
	}
}

func (rt *Router) screeningPage(features domain.FeatureManifest, s *domain.Screening) pageData {
	data := rt.basePage(features)
	data.Screening = s
	if s.Upload != nil {
		data.Preview = newTableView(s.Upload, previewRows, false)
	}
	if s.State != domain.StateReported || s.Augmented == nil {
		return data
	}

	data.Results = newTableView(s.Augmented, maxResultsRows, true)
	data.Metrics = []metricView{
		{Label: "🩺 Parkinson's Detected", Value: s.Summary.Parkinsons},
		{Label: "✅ Healthy", Value: s.Summary.Healthy},
	}
	for _, format := range []string{"csv", "xlsx"} {
		if _, ok := rt.encoders[format]; !ok {
			continue
		}
		data.Downloads = append(data.Downloads, downloadLink{
			Label: downloadLabels[format],
			URL:   downloadURL(s.RunID, format),
		})
	}
	return data
}

var downloadLabels = map[string]string{
	"csv":  "Download Results as CSV",
	"xlsx": "Download Results as Excel",
}

func downloadURL(runID, format string) string {
	return "/results/" + url.PathEscape(runID) + "/download?format=" + url.QueryEscape(format)
}

// newTableView copies at most limit rows. With decorate, Prediction cells use the display label.
func newTableView(t *domain.Table, limit int, decorate bool) *tableView {
	n := min(t.Len(), limit)
	view := &tableView{
		Columns:   t.Columns,
		Rows:      make([][]string, n),
		Total:     t.Len(),
		Truncated: t.Len() > n,
	}
	predictionIdx := -1
	if decorate {
		if idx, ok := t.ColumnIndex(domain.PredictionColumn); ok {
			predictionIdx = idx
		}
	}
	for i := 0; i < n; i++ {
		row := t.Rows[i]
		if predictionIdx >= 0 && predictionIdx < len(row) {
			row = append([]string(nil), row...)
			row[predictionIdx] = domain.Label(row[predictionIdx]).Display()
		}
		view.Rows[i] = row
	}
	return view
}
