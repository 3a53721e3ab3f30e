// internal/workers/planning/score-activities/handler.go
package scoreactivities

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
	TaskType = "score-activities"

	// priceEpsilon keeps value scores finite for free activities.
	priceEpsilon = 1e-6
)

var (
	ErrNoQualifyingActivities = errors.New("NO_QUALIFYING_ACTIVITIES")
	ErrCatalogLoad            = errors.New("CATALOG_LOAD_FAILED")
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
		errorCode := "NO_QUALIFYING_ACTIVITIES"
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.City == "" {
		return nil, fmt.Errorf("input requires city")
	}
	if len(input.TravelerWeights) == 0 {
		return nil, fmt.Errorf("input requires travelerWeights")
	}

	activities, err := h.catalog.ActivitiesByCity(ctx, input.City)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogLoad, err)
	}

	scored := h.scoreAll(activities, input.TravelerWeights)
	if len(scored) == 0 {
		return nil, fmt.Errorf("%w: city %s", ErrNoQualifyingActivities, input.City)
	}

	// Stable sort keeps catalog order for equal group values.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].GroupValue > scored[j].GroupValue
	})

	topK := h.config.TopK
	if input.TopK > 0 {
		topK = input.TopK
	}
	if len(scored) > topK {
		scored = scored[:topK]
	}

	return &Output{
		City:       input.City,
		Activities: scored,
	}, nil
}

func (h *Handler) scoreAll(activities []models.Activity, travelerWeights map[string]map[string]float64) []models.ScoredActivity {
	// Deterministic traveler order for the mean accumulation.
	travelerIDs := make([]string, 0, len(travelerWeights))
	for id := range travelerWeights {
		travelerIDs = append(travelerIDs, id)
	}
	sort.Strings(travelerIDs)

	var scored []models.ScoredActivity
	for _, activity := range activities {
		if activity.Stars < h.config.MinStars || activity.ReviewCount < h.config.MinReviews {
			continue
		}

		values := make(map[string]float64, len(travelerIDs))
		sum := 0.0
		for _, id := range travelerIDs {
			value := ValueScore(activity, travelerWeights[id])
			values[id] = value
			sum += value
		}

		scored = append(scored, models.ScoredActivity{
			Activity:       activity,
			GroupValue:     sum / float64(len(travelerIDs)),
			TravelerValues: values,
		})
	}
	return scored
}

// ValueScore is the taste-per-dollar score of one activity for one traveler:
// the preference-weighted tag affinity divided by the effective price.
func ValueScore(activity models.Activity, weights map[string]float64) float64 {
	affinity := 0.0
	for _, dim := range models.PreferenceDimensions {
		affinity += weights[dim] * activity.Tag(dim)
	}

	price := activity.EffectivePrice()
	if price < priceEpsilon {
		price = priceEpsilon
	}
	return affinity / price
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
