package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newManifestCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "List the feature columns an upload must contain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			screener, err := root.screener(cmd)
			if err != nil {
				return err
			}
			features, err := screener.Manifest(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"features":      features.Names(),
					"model_version": screener.ModelVersion(),
				})
			}
			for _, name := range features.Names() {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the manifest and model version as JSON")
	return cmd
}
