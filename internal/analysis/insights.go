package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"narrative-backend/internal/models"
)

const (
	// Column classification samples the first rows only; these do not
	// scale with dataset size.
	classifySampleRows    = 10
	numericRatioThreshold = 0.7

	maxInsights = 5
)

// GenerateInsights profiles a dataset into at most five human-readable
// statements: one overview, then numeric columns, then categorical
// columns, in column order. Pure and deterministic.
func GenerateInsights(ds models.Dataset) []models.Insight {
	if len(ds.Records) == 0 {
		return nil
	}

	numericCols, categoricalCols := classifyColumns(ds)

	insights := []models.Insight{{
		Type:    models.InsightOverview,
		Title:   "Data Overview",
		Content: fmt.Sprintf("Dataset contains %d records with %d columns.", len(ds.Records), len(ds.Columns)),
	}}

	for _, col := range numericCols {
		values := numericValues(ds, col)
		if len(values) == 0 {
			continue
		}

		sum := 0.0
		min, max := values[0], values[0]
		for _, v := range values {
			sum += v
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		avg := sum / float64(len(values))

		insights = append(insights, models.Insight{
			Type:  models.InsightNumeric,
			Title: fmt.Sprintf("%s Analysis", col),
			Content: fmt.Sprintf("Average: %.2f, Max: %s, Min: %s, Total: %.2f",
				avg, formatNumber(max), formatNumber(min), sum),
		})
	}

	for _, col := range categoricalCols {
		total := 0
		unique := make(map[string]struct{})
		for _, rec := range ds.Records {
			val := rec[col]
			if val == "" {
				continue
			}
			total++
			unique[val] = struct{}{}
		}

		insights = append(insights, models.Insight{
			Type:    models.InsightCategorical,
			Title:   fmt.Sprintf("%s Distribution", col),
			Content: fmt.Sprintf("%d unique values out of %d records.", len(unique), total),
		})
	}

	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}
	return insights
}

// classifyColumns splits columns into numeric and categorical based on
// the sampled ratio test. A column with no non-empty sampled values is
// categorical.
func classifyColumns(ds models.Dataset) (numeric, categorical []string) {
	limit := classifySampleRows
	if len(ds.Records) < limit {
		limit = len(ds.Records)
	}

	for _, col := range ds.Columns {
		sampled := 0
		parsed := 0
		for i := 0; i < limit; i++ {
			val := ds.Records[i][col]
			if val == "" {
				continue
			}
			sampled++
			if _, ok := parseNumber(val); ok {
				parsed++
			}
		}

		if sampled > 0 && float64(parsed)/float64(sampled) > numericRatioThreshold {
			numeric = append(numeric, col)
		} else {
			categorical = append(categorical, col)
		}
	}
	return numeric, categorical
}

// numericValues parses every record's value for a column, dropping the
// ones that are not numbers.
func numericValues(ds models.Dataset, col string) []float64 {
	values := make([]float64, 0, len(ds.Records))
	for _, rec := range ds.Records {
		if v, ok := parseNumber(rec[col]); ok {
			values = append(values, v)
		}
	}
	return values
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// formatNumber renders min/max without trailing zeros, so "3" stays
// "3" and "1.5" stays "1.5".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
