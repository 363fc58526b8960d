package httpadapter

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
	"github.com/kirillkom/parkinsons-screening/internal/core/ports"
)

const downloadBaseName = "parkinsons_predictions"

type screeningResponse struct {
	*domain.Screening
	DownloadURL string `json:"download_url,omitempty"`
}

func (rt *Router) index(w http.ResponseWriter, r *http.Request) {
	features, err := rt.screener.Manifest(r.Context())
	if err != nil {
		rt.internalError(w, r, "load manifest", err)
		return
	}
	rt.pages.render(w, r, http.StatusOK, rt.basePage(features))
}

func (rt *Router) screenPage(w http.ResponseWriter, r *http.Request) {
	features, err := rt.screener.Manifest(r.Context())
	if err != nil {
		rt.internalError(w, r, "load manifest", err)
		return
	}

	file, filename, err := rt.readUpload(w, r)
	if err != nil {
		data := rt.basePage(features)
		data.Notice = uploadNotice(err)
		rt.pages.render(w, r, mapErrorToHTTPStatus(err), data)
		return
	}
	defer file.Close()

	screening, err := rt.screener.Screen(r.Context(), filename, file)
	if err != nil {
		rt.internalError(w, r, "screen upload", err)
		return
	}
	rt.recordScreening("web", screening)
	rt.pages.render(w, r, http.StatusOK, rt.screeningPage(features, screening))
}

func (rt *Router) screenJSON(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	var encoder ports.TableEncoder
	if format != "" && format != "json" {
		enc, ok := rt.encoders[format]
		if !ok {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
			return
		}
		encoder = enc
	}

	file, filename, err := rt.readUpload(w, r)
	if err != nil {
		writeError(w, r, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	defer file.Close()

	screening, err := rt.screener.Screen(r.Context(), filename, file)
	if err != nil {
		writeError(w, r, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	rt.recordScreening("json", screening)

	if screening.State != domain.StateReported {
		writeJSON(w, mapErrorToHTTPStatus(screening.Err), screeningResponse{Screening: screening})
		return
	}
	if encoder != nil {
		rt.writeTable(w, r, screening, encoder)
		return
	}

	resp := screeningResponse{Screening: screening}
	if _, ok := rt.encoders["csv"]; ok {
		resp.DownloadURL = downloadURL(screening.RunID, "csv")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) download(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "csv"
	}
	encoder, ok := rt.encoders[format]
	if !ok {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	screening, err := rt.results.Result(r.Context(), r.PathValue("run_id"))
	if err != nil {
		writeError(w, r, mapErrorToHTTPStatus(err), "results are no longer available, upload the file again")
		return
	}
	rt.writeTable(w, r, screening, encoder)
}

func (rt *Router) manifest(w http.ResponseWriter, r *http.Request) {
	features, err := rt.screener.Manifest(r.Context())
	if err != nil {
		writeError(w, r, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"features":      features.Names(),
		"count":         len(features),
		"model_version": rt.screener.ModelVersion(),
	})
}

func (rt *Router) getScreening(w http.ResponseWriter, r *http.Request) {
	if rt.audit == nil {
		writeError(w, r, http.StatusNotImplemented, "audit store is not configured")
		return
	}
	event, err := rt.audit.GetByID(r.Context(), r.PathValue("run_id"))
	if err != nil {
		writeError(w, r, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (rt *Router) listScreenings(w http.ResponseWriter, r *http.Request) {
	if rt.audit == nil {
		writeError(w, r, http.StatusNotImplemented, "audit store is not configured")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	events, err := rt.audit.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, r, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"screenings": events})
}

// readUpload caps the body and returns the multipart "file" part.
func (rt *Router) readUpload(w http.ResponseWriter, r *http.Request) (multipart.File, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryCap); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", fmt.Errorf("upload exceeds %d bytes: %w", tooLarge.Limit, err)
		}
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "parse upload", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "parse upload", errors.New("multipart field 'file' is required"))
	}
	return file, header.Filename, nil
}

func uploadNotice(err error) string {
	if mapErrorToHTTPStatus(err) == http.StatusRequestEntityTooLarge {
		return "The uploaded file is too large."
	}
	return "Please choose a CSV file to upload."
}

func (rt *Router) writeTable(w http.ResponseWriter, r *http.Request, screening *domain.Screening, encoder ports.TableEncoder) {
	if screening.Augmented == nil {
		writeError(w, r, http.StatusNotFound, "no results to export")
		return
	}
	var buf bytes.Buffer
	if err := encoder.Encode(&buf, screening.Augmented); err != nil {
		rt.internalError(w, r, "encode results", err)
		return
	}
	filename := downloadBaseName + encoder.Extension()
	w.Header().Set("Content-Type", encoder.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Run-Id", screening.RunID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (rt *Router) recordScreening(endpoint string, screening *domain.Screening) {
	if rt.metrics != nil {
		rt.metrics.RecordScreening(serviceName, endpoint, screening)
	}
}

func (rt *Router) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := mapErrorToHTTPStatus(err)
	slog.Error("http_handler_failed",
		"request_id", requestIDFromContext(r.Context()),
		"operation", op,
		"status", status,
		"error", err,
	)
	message := http.StatusText(status)
	if status < http.StatusInternalServerError {
		message = err.Error()
	}
	writeError(w, r, status, message)
}
