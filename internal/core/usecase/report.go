package usecase

import "github.com/kirillkom/parkinsons-screening/internal/core/domain"

const (
	warningMessage = "Parkinson's detected in one or more records."
	successMessage = "All uploaded voices classified as Healthy."
)

func Summarize(labels []domain.Label) domain.Summary {
	var summary domain.Summary
	for _, label := range labels {
		if label == domain.LabelParkinsons {
			summary.Parkinsons++
			continue
		}
		summary.Healthy++
	}
	return summary
}

// Render returns a copy of table with the Prediction column set to labels.
// An existing Prediction column is overwritten in place; otherwise the column is appended.
func Render(table *domain.Table, labels []domain.Label) *domain.Table {
	out := table.Clone()

	idx, ok := out.ColumnIndex(domain.PredictionColumn)
	if !ok {
		out.Columns = append(out.Columns, domain.PredictionColumn)
		idx = len(out.Columns) - 1
	}

	for i := range out.Rows {
		value := ""
		if i < len(labels) {
			value = string(labels[i])
		}
		if idx == len(out.Rows[i]) {
			out.Rows[i] = append(out.Rows[i], value)
			continue
		}
		out.Rows[i][idx] = value
	}
	return out
}

func BannerFor(summary domain.Summary) domain.Banner {
	if summary.Parkinsons > 0 {
		return domain.Banner{Kind: domain.BannerWarning, Message: warningMessage}
	}
	return domain.Banner{Kind: domain.BannerSuccess, Message: successMessage}
}
