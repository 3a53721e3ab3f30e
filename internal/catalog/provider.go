// Package catalog provides read-only access to the activity catalog the
// planning pipeline scores against. A snapshot is loaded per request; sources
// never share mutable state between requests.
package catalog

import (
	"context"

	"fairtrip-workers/internal/models"
)

// Source loads activity snapshots from a backing store.
type Source interface {
	// AllActivities returns the full catalog snapshot.
	AllActivities(ctx context.Context) ([]models.Activity, error)

	// ActivitiesByCity returns the catalog entries for one city.
	ActivitiesByCity(ctx context.Context, city string) ([]models.Activity, error)

	// Name identifies the source in logs and error details.
	Name() string
}
