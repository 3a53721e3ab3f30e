// internal/catalog/csv.go
package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"fairtrip-workers/internal/models"
)

// CSVSource reads the catalog from a local CSV export. Expected columns:
// business_id, city, name, stars, review_count, price_level, price_proxy
// and one tag_<dimension> column per preference dimension.
type CSVSource struct {
	path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Name() string {
	return "csv"
}

func (s *CSVSource) AllActivities(ctx context.Context) ([]models.Activity, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open catalog csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"business_id", "city", "name"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("catalog csv missing column %q", required)
		}
	}

	var activities []models.Activity
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog row: %w", err)
		}

		activity := models.Activity{
			BusinessID:  field(record, cols, "business_id"),
			City:        field(record, cols, "city"),
			Name:        field(record, cols, "name"),
			Stars:       floatField(record, cols, "stars"),
			ReviewCount: intField(record, cols, "review_count"),
			PriceLevel:  intField(record, cols, "price_level"),
			PriceProxy:  floatField(record, cols, "price_proxy"),
			Tags:        make(map[string]float64, len(models.PreferenceDimensions)),
		}
		for _, dim := range models.PreferenceDimensions {
			activity.Tags[dim] = floatField(record, cols, "tag_"+dim)
		}

		if activity.BusinessID == "" {
			continue
		}
		activities = append(activities, activity)
	}

	return activities, nil
}

func (s *CSVSource) ActivitiesByCity(ctx context.Context, city string) ([]models.Activity, error) {
	all, err := s.AllActivities(ctx)
	if err != nil {
		return nil, err
	}

	var filtered []models.Activity
	for _, a := range all {
		if strings.EqualFold(a.City, city) {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

func field(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func floatField(record []string, cols map[string]int, name string) float64 {
	v, err := strconv.ParseFloat(field(record, cols, name), 64)
	if err != nil {
		return 0
	}
	return v
}

func intField(record []string, cols map[string]int, name string) int {
	raw := field(record, cols, name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		// Some exports carry price levels as floats ("2.0").
		if f, ferr := strconv.ParseFloat(raw, 64); ferr == nil {
			return int(f)
		}
		return 0
	}
	return v
}
