// internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"fairtrip-workers/internal/models"
)

const activityColumns = `business_id, city, name, stars, review_count, price_level, price_proxy,
	tag_nightlife, tag_adventure, tag_shopping, tag_food, tag_urban`

// PostgresSource reads the catalog from the activities table.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Name() string {
	return "postgres"
}

func (s *PostgresSource) AllActivities(ctx context.Context) ([]models.Activity, error) {
	query := fmt.Sprintf("SELECT %s FROM activities", activityColumns)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

func (s *PostgresSource) ActivitiesByCity(ctx context.Context, city string) ([]models.Activity, error) {
	query := fmt.Sprintf("SELECT %s FROM activities WHERE LOWER(city) = LOWER($1)", activityColumns)
	rows, err := s.db.QueryContext(ctx, query, city)
	if err != nil {
		return nil, fmt.Errorf("query activities for city %s: %w", city, err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

func scanActivities(rows *sql.Rows) ([]models.Activity, error) {
	var activities []models.Activity

	for rows.Next() {
		var (
			a          models.Activity
			priceLevel sql.NullInt64
			priceProxy sql.NullFloat64
			tags       [5]sql.NullFloat64
		)

		if err := rows.Scan(
			&a.BusinessID, &a.City, &a.Name, &a.Stars, &a.ReviewCount,
			&priceLevel, &priceProxy,
			&tags[0], &tags[1], &tags[2], &tags[3], &tags[4],
		); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}

		a.PriceLevel = int(priceLevel.Int64)
		a.PriceProxy = priceProxy.Float64
		a.Tags = make(map[string]float64, len(models.PreferenceDimensions))
		for i, dim := range models.PreferenceDimensions {
			a.Tags[dim] = tags[i].Float64
		}

		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity rows: %w", err)
	}
	return activities, nil
}
