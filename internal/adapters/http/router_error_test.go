package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/parkinsons-screening/internal/config"
	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"too large", fmt.Errorf("read: %w", &http.MaxBytesError{Limit: 1}), http.StatusRequestEntityTooLarge},
		{"missing columns", domain.WrapError(domain.ErrMissingColumns, "validate", errors.New("x")), http.StatusUnprocessableEntity},
		{"prediction", domain.WrapError(domain.ErrPrediction, "predict", errors.New("x")), http.StatusUnprocessableEntity},
		{"invalid input", domain.WrapError(domain.ErrInvalidInput, "parse", errors.New("x")), http.StatusBadRequest},
		{"not found", domain.WrapError(domain.ErrNotFound, "get", errors.New("x")), http.StatusNotFound},
		{"temporary", domain.WrapError(domain.ErrTemporary, "save", errors.New("x")), http.StatusServiceUnavailable},
		{"artifact load", domain.WrapError(domain.ErrArtifactLoad, "load", errors.New("x")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapErrorToHTTPStatus(tc.err); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestGetScreeningMapsTemporaryTo503(t *testing.T) {
	audit := &auditFake{err: domain.WrapError(domain.ErrTemporary, "get screening run", errors.New("connection reset"))}
	srv := newTestServer(t, config.Config{MaxUploadBytes: 1 << 20}, audit)

	res := srv.do(httptest.NewRequest(http.MethodGet, "/v1/screenings/run-1", nil))
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("expected error message, got %v", body)
	}
}

func TestListScreeningsMapsUnknownErrorTo500(t *testing.T) {
	audit := &auditFake{err: errors.New("boom")}
	srv := newTestServer(t, config.Config{MaxUploadBytes: 1 << 20}, audit)

	res := srv.do(httptest.NewRequest(http.MethodGet, "/v1/screenings", nil))
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}
