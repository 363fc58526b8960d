package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/parkinsons-screening/internal/bootstrap"
	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
	"github.com/kirillkom/parkinsons-screening/internal/core/ports"
)

type predictOptions struct {
	input  string
	output string
	format string
}

func newPredictCmd(root *rootOptions) *cobra.Command {
	opts := &predictOptions{}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Label every row of a CSV upload and write the augmented table",
		Example: "  screen predict --input voices.csv --output parkinsons_predictions.csv\n" +
			"  screen predict --input voices.csv --output - --format csv",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			screener, err := root.screener(cmd)
			if err != nil {
				return err
			}
			return runPredict(cmd, screener, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "CSV file with voice features (- for stdin)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Destination file (- for stdout; default parkinsons_predictions.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "csv", "Output format: csv or xlsx")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runPredict(cmd *cobra.Command, screener ports.Screener, opts *predictOptions) error {
	encoder, err := encoderFor(opts.format)
	if err != nil {
		return err
	}

	in, name, err := openInput(cmd, opts.input)
	if err != nil {
		return err
	}
	defer in.Close()

	screening, err := screener.Screen(cmd.Context(), name, in)
	if err != nil {
		return err
	}
	if screening.State != domain.StateReported {
		return fmt.Errorf("%s: %s", screening.State, screening.Error)
	}

	var buf bytes.Buffer
	if err := encoder.Encode(&buf, screening.Augmented); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	output := opts.output
	if output == "" {
		output = "parkinsons_predictions" + encoder.Extension()
	}
	if output == "-" {
		if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
	} else if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d, %s: %d\n",
		domain.LabelParkinsons.Display(), screening.Summary.Parkinsons,
		domain.LabelHealthy.Display(), screening.Summary.Healthy,
	)
	if screening.Banner != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), screening.Banner.Message)
	}
	return nil
}

func encoderFor(format string) (ports.TableEncoder, error) {
	want := "." + strings.ToLower(strings.TrimSpace(format))
	for _, enc := range bootstrap.Encoders() {
		if enc.Extension() == want {
			return enc, nil
		}
	}
	return nil, fmt.Errorf("unsupported format %q (want csv or xlsx)", format)
}

func openInput(cmd *cobra.Command, path string) (io.ReadCloser, string, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), "stdin.csv", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open input: %w", err)
	}
	return f, filepath.Base(path), nil
}
