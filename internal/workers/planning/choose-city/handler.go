// internal/workers/planning/choose-city/handler.go
package choosecity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"fairtrip-workers/internal/catalog"
	"fairtrip-workers/internal/common/logger"
	"fairtrip-workers/internal/models"
)

const (
	TaskType = "choose-city"

	// costWeight dampens how strongly an expensive city is penalized.
	costWeight = 0.6

	// minMaxEpsilon keeps the cost index finite when all cities cost the same.
	minMaxEpsilon = 1e-9
)

var (
	ErrNoCityQualified = errors.New("NO_CITY_QUALIFIED")
	ErrCatalogLoad     = errors.New("CATALOG_LOAD_FAILED")
)

type Handler struct {
	config  *Config
	catalog catalog.Source
	logger  logger.Logger
}

func NewHandler(config *Config, source catalog.Source, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		catalog: source,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "NO_CITY_QUALIFIED"
		retries := int32(0)
		if errors.Is(err, ErrCatalogLoad) {
			errorCode = "CATALOG_LOAD_FAILED"
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

// cityAggregate holds the per-city catalog summary used for scoring.
type cityAggregate struct {
	city     string
	tagMeans map[string]float64
	avgPrice float64
	count    int
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || len(input.GroupWeights) == 0 {
		return nil, fmt.Errorf("input requires groupWeights")
	}

	activities, err := h.catalog.AllActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogLoad, err)
	}

	aggregates := aggregateByCity(activities)

	qualified := aggregates[:0]
	for _, agg := range aggregates {
		if agg.count >= h.config.MinActivities {
			qualified = append(qualified, agg)
		}
	}
	if len(qualified) == 0 {
		return nil, fmt.Errorf("%w: no city has at least %d activities", ErrNoCityQualified, h.config.MinActivities)
	}

	ranking := scoreCities(qualified, input.GroupWeights)

	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].CombinedScore != ranking[j].CombinedScore {
			return ranking[i].CombinedScore > ranking[j].CombinedScore
		}
		return ranking[i].City < ranking[j].City
	})

	if len(ranking) > h.config.TopCities {
		ranking = ranking[:h.config.TopCities]
	}

	winner := ranking[0]
	return &Output{
		SelectedCity: winner.City,
		Explanation: fmt.Sprintf(
			"%s has the highest combined score (%.3f) based on group preferences and cost.",
			winner.City, winner.CombinedScore,
		),
		Ranking: ranking,
	}, nil
}

// aggregateByCity computes per-city mean tag values, mean price and distinct
// activity counts. Cities come back in first-encountered catalog order.
func aggregateByCity(activities []models.Activity) []cityAggregate {
	index := make(map[string]int)
	var aggregates []cityAggregate
	sums := make(map[string]map[string]float64)
	priceSums := make(map[string]float64)
	seen := make(map[string]map[string]bool)

	for _, a := range activities {
		if a.City == "" {
			continue
		}
		if _, ok := index[a.City]; !ok {
			index[a.City] = len(aggregates)
			aggregates = append(aggregates, cityAggregate{city: a.City})
			sums[a.City] = make(map[string]float64, len(models.PreferenceDimensions))
			seen[a.City] = make(map[string]bool)
		}
		if seen[a.City][a.BusinessID] {
			continue
		}
		seen[a.City][a.BusinessID] = true

		i := index[a.City]
		aggregates[i].count++
		priceSums[a.City] += a.EffectivePrice()
		for _, dim := range models.PreferenceDimensions {
			sums[a.City][dim] += a.Tag(dim)
		}
	}

	for i := range aggregates {
		city := aggregates[i].city
		n := float64(aggregates[i].count)
		aggregates[i].avgPrice = priceSums[city] / n
		aggregates[i].tagMeans = make(map[string]float64, len(models.PreferenceDimensions))
		for _, dim := range models.PreferenceDimensions {
			aggregates[i].tagMeans[dim] = sums[city][dim] / n
		}
	}
	return aggregates
}

func scoreCities(aggregates []cityAggregate, groupWeights map[string]float64) []models.CityScore {
	minPrice, maxPrice := aggregates[0].avgPrice, aggregates[0].avgPrice
	for _, agg := range aggregates[1:] {
		if agg.avgPrice < minPrice {
			minPrice = agg.avgPrice
		}
		if agg.avgPrice > maxPrice {
			maxPrice = agg.avgPrice
		}
	}

	scores := make([]models.CityScore, 0, len(aggregates))
	for _, agg := range aggregates {
		vibe := normalizeVibe(agg.tagMeans)

		vibeScore := 0.0
		for _, dim := range models.PreferenceDimensions {
			vibeScore += vibe[dim] * groupWeights[dim]
		}

		costIndex := (agg.avgPrice - minPrice) / (maxPrice - minPrice + minMaxEpsilon)
		costPenalty := 1.0 / (1.0 + costWeight*costIndex)

		scores = append(scores, models.CityScore{
			City:          agg.city,
			VibeScore:     vibeScore,
			CostIndex:     costIndex,
			CostLevel:     costLevel(costIndex),
			CostPenalty:   costPenalty,
			CombinedScore: vibeScore * costPenalty,
			ActivityCount: agg.count,
			VibeProfile:   vibe,
		})
	}
	return scores
}

// normalizeVibe scales a city's mean tag vector to sum to 1 so cities with
// uniformly strong tags don't dominate on magnitude alone.
func normalizeVibe(tagMeans map[string]float64) map[string]float64 {
	total := 0.0
	for _, dim := range models.PreferenceDimensions {
		total += tagMeans[dim]
	}

	vibe := make(map[string]float64, len(models.PreferenceDimensions))
	if total <= 0 {
		return vibe
	}
	for _, dim := range models.PreferenceDimensions {
		vibe[dim] = tagMeans[dim] / total
	}
	return vibe
}

func costLevel(costIndex float64) string {
	switch {
	case costIndex < 0.33:
		return "low"
	case costIndex < 0.66:
		return "medium"
	default:
		return "high"
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
		"retries":      retries,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
