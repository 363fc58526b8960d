package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
	"github.com/kirillkom/parkinsons-screening/internal/core/ports"
	"github.com/kirillkom/parkinsons-screening/internal/infrastructure/tabular"
)

const (
	toolScreen   = "screen_voice_features"
	toolManifest = "feature_manifest"
)

type screenResult struct {
	RunID        string         `json:"run_id"`
	Rows         int            `json:"rows"`
	Labels       []domain.Label `json:"labels"`
	Summary      domain.Summary `json:"summary"`
	Banner       *domain.Banner `json:"banner,omitempty"`
	ModelVersion string         `json:"model_version"`
	CSV          string         `json:"csv"`
}

type tools struct {
	screener ports.Screener
	encoder  ports.TableEncoder
}

func newServer(screener ports.Screener) *server.MCPServer {
	s := server.NewMCPServer("parkinsons-screening", serverVersion, server.WithToolCapabilities(false))
	t := &tools{screener: screener, encoder: tabular.CSVEncoder{}}

	s.AddTool(mcp.NewTool(toolScreen,
		mcp.WithDescription("Classify every row of a voice-feature CSV as Parkinson's or Healthy. "+
			"The CSV must have a header row containing every column listed by "+toolManifest+"."),
		mcp.WithString("csv", mcp.Required(), mcp.Description("CSV text with a header row")),
	), t.screen)
	s.AddTool(mcp.NewTool(toolManifest,
		mcp.WithDescription("List the feature columns the classifier requires, in order."),
	), t.manifest)
	return s
}

func (t *tools) screen(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body, err := request.RequireString("csv")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	screening, err := t.screener.Screen(ctx, "mcp.csv", strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("screen csv: %w", err)
	}
	if screening.State != domain.StateReported {
		return mcp.NewToolResultError(screening.Error), nil
	}

	var buf bytes.Buffer
	if err := t.encoder.Encode(&buf, screening.Augmented); err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}
	payload, err := json.Marshal(screenResult{
		RunID:        screening.RunID,
		Rows:         screening.Rows,
		Labels:       screening.Labels,
		Summary:      screening.Summary,
		Banner:       screening.Banner,
		ModelVersion: screening.ModelVersion,
		CSV:          buf.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (t *tools) manifest(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	features, err := t.screener.Manifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	payload, err := json.Marshal(map[string]any{
		"features":      features.Names(),
		"model_version": t.screener.ModelVersion(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
