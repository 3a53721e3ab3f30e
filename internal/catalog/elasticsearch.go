// internal/catalog/elasticsearch.go
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"

	"fairtrip-workers/internal/models"
)

// ElasticsearchSource reads the catalog from an activities index.
type ElasticsearchSource struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchSource(client *elasticsearch.Client, index string) *ElasticsearchSource {
	return &ElasticsearchSource{client: client, index: index}
}

func (s *ElasticsearchSource) Name() string {
	return "elasticsearch"
}

// activityDoc mirrors the indexed document shape.
type activityDoc struct {
	BusinessID  string             `json:"business_id"`
	City        string             `json:"city"`
	Name        string             `json:"name"`
	Stars       float64            `json:"stars"`
	ReviewCount int                `json:"review_count"`
	PriceLevel  int                `json:"price_level"`
	PriceProxy  float64            `json:"price_proxy"`
	Tags        map[string]float64 `json:"tags"`
}

type searchEnvelope struct {
	Hits struct {
		Hits []struct {
			Source activityDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchSource) AllActivities(ctx context.Context) ([]models.Activity, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"match_all": map[string]interface{}{},
		},
		"size": 10000,
	}
	return s.search(ctx, query)
}

func (s *ElasticsearchSource) ActivitiesByCity(ctx context.Context, city string) ([]models.Activity, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"city.keyword": city,
			},
		},
		"size": 10000,
	}
	return s.search(ctx, query)
}

func (s *ElasticsearchSource) search(ctx context.Context, query map[string]interface{}) ([]models.Activity, error) {
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(query); err != nil {
		return nil, fmt.Errorf("encode search query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&body),
	)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search returned %s: %s", res.Status(), string(raw))
	}

	var envelope searchEnvelope
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	activities := make([]models.Activity, 0, len(envelope.Hits.Hits))
	for _, hit := range envelope.Hits.Hits {
		doc := hit.Source
		tags := make(map[string]float64, len(models.PreferenceDimensions))
		for _, dim := range models.PreferenceDimensions {
			tags[dim] = doc.Tags[dim]
		}
		activities = append(activities, models.Activity{
			BusinessID:  doc.BusinessID,
			City:        doc.City,
			Name:        doc.Name,
			Stars:       doc.Stars,
			ReviewCount: doc.ReviewCount,
			PriceLevel:  doc.PriceLevel,
			PriceProxy:  doc.PriceProxy,
			Tags:        tags,
		})
	}
	return activities, nil
}
