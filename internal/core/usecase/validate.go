package usecase

import "github.com/kirillkom/parkinsons-screening/internal/core/domain"

// Validate returns the manifest features that are not columns of table, in manifest order.
// A nil result means every required feature is present.
func Validate(table *domain.Table, manifest domain.FeatureManifest) []string {
	present := make(map[string]struct{}, len(table.Columns))
	for _, col := range table.Columns {
		present[col] = struct{}{}
	}

	var missing []string
	for _, feature := range manifest {
		if _, ok := present[feature]; !ok {
			missing = append(missing, feature)
		}
	}
	return missing
}
