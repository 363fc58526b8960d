package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/parkinsons-screening/internal/bootstrap"
	"github.com/kirillkom/parkinsons-screening/internal/config"
	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
	"github.com/kirillkom/parkinsons-screening/internal/infrastructure/tabular"
)

func newTestTools(t *testing.T) *tools {
	t.Helper()
	screener, err := bootstrap.NewScreener(context.Background(), config.Config{
		ArtifactDir:  filepath.Join("..", "..", "artifacts"),
		ModelFile:    "rf_parkinsons_v1.json",
		FeaturesFile: "selected_features.json",
	})
	if err != nil {
		t.Fatalf("NewScreener() error = %v", err)
	}
	return &tools{screener: screener, encoder: tabular.CSVEncoder{}}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestScreenToolLabelsSample(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "testdata", "voices_sample.csv"))
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	result, err := newTestTools(t).screen(context.Background(), callRequest(toolScreen, map[string]any{"csv": string(raw)}))
	if err != nil {
		t.Fatalf("screen() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}

	var got screenResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	want := []domain.Label{domain.LabelParkinsons, domain.LabelHealthy, domain.LabelParkinsons}
	if diff := cmp.Diff(want, got.Labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	if got.Summary.Total() != 3 || !strings.HasPrefix(got.CSV, "name,") {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestScreenToolReportsMissingColumnsAsToolError(t *testing.T) {
	result, err := newTestTools(t).screen(context.Background(), callRequest(toolScreen, map[string]any{"csv": "PPE\n0.2\n"}))
	if err != nil {
		t.Fatalf("screen() error = %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "Missing required columns") {
		t.Fatalf("expected missing columns tool error, got %+v", result)
	}
}

func TestScreenToolRequiresCSVArgument(t *testing.T) {
	result, err := newTestTools(t).screen(context.Background(), callRequest(toolScreen, map[string]any{}))
	if err != nil {
		t.Fatalf("screen() error = %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for missing argument")
	}
}

func TestManifestToolListsFeatures(t *testing.T) {
	result, err := newTestTools(t).manifest(context.Background(), callRequest(toolManifest, nil))
	if err != nil {
		t.Fatalf("manifest() error = %v", err)
	}
	var got struct {
		Features []string `json:"features"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if len(got.Features) != 22 {
		t.Fatalf("expected 22 features, got %d", len(got.Features))
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	s := newServer(newTestTools(t).screener)
	if s == nil {
		t.Fatalf("expected server")
	}
}
