package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	artifactDir = filepath.Join("..", "..", "artifacts")
	samplePath  = filepath.Join("..", "..", "testdata", "voices_sample.csv")
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(append([]string{"--artifact-dir", artifactDir}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestPredictWritesAugmentedCSVToStdout(t *testing.T) {
	stdout, stderr, err := execute(t, "", "predict", "--input", samplePath, "--output", "-")
	if err != nil {
		t.Fatalf("predict error = %v (stderr %s)", err, stderr)
	}

	records, err := csv.NewReader(strings.NewReader(stdout)).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(records))
	}
	last := len(records[0]) - 1
	if records[0][last] != "Prediction" {
		t.Fatalf("expected Prediction column, got %q", records[0][last])
	}
	var labels []string
	for _, row := range records[1:] {
		labels = append(labels, row[last])
	}
	if diff := cmp.Diff([]string{"Parkinson's", "Healthy", "Parkinson's"}, labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(stderr, "Parkinson's detected in one or more records.") {
		t.Fatalf("expected banner on stderr, got %q", stderr)
	}
}

func TestPredictWritesXLSXFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.xlsx")
	if _, stderr, err := execute(t, "", "predict", "-i", samplePath, "-o", out, "-f", "xlsx"); err != nil {
		t.Fatalf("predict error = %v (stderr %s)", err, stderr)
	}
	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		t.Fatalf("expected xlsx output, stat err=%v", err)
	}
}

func TestPredictReadsStdinAndReportsMissingColumns(t *testing.T) {
	_, _, err := execute(t, "name,HNR\nx,21\n", "predict", "--input", "-", "--output", "-")
	if err == nil {
		t.Fatalf("expected error for missing columns")
	}
	if !strings.Contains(err.Error(), "Missing required columns: MDVP:Fo(Hz)") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestPredictRejectsUnknownFormat(t *testing.T) {
	if _, _, err := execute(t, "", "predict", "--input", samplePath, "--format", "pdf"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestManifestListsFeatures(t *testing.T) {
	stdout, _, err := execute(t, "", "manifest")
	if err != nil {
		t.Fatalf("manifest error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 22 || lines[0] != "MDVP:Fo(Hz)" || lines[21] != "PPE" {
		t.Fatalf("unexpected manifest output:\n%s", stdout)
	}
}
