// internal/workers/planning/rerank-activities/handler.go
package rerankactivities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"fairtrip-workers/internal/common/logger"
	"fairtrip-workers/internal/common/metrics"
	"fairtrip-workers/internal/models"
	normalizepreferences "fairtrip-workers/internal/workers/planning/normalize-preferences"
)

const (
	TaskType = "rerank-activities"
)

type Handler struct {
	config   *Config
	reranker Reranker
	logger   logger.Logger
}

func NewHandler(config *Config, reranker Reranker, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		reranker: reranker,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "PARSE_ERROR").Inc()
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "PARSE_ERROR").Inc()
		h.failJob(client, job, "PARSE_ERROR", err.Error())
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

// travelerResult pairs a traveler with their validated rows; err marks a
// skipped traveler.
type travelerResult struct {
	travelerID string
	rows       []models.RerankedActivity
	err        error
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || len(input.Travelers) == 0 {
		return nil, fmt.Errorf("input requires travelers")
	}
	if len(input.Activities) == 0 {
		return nil, fmt.Errorf("input requires activities")
	}

	candidates := input.Activities
	if len(candidates) > h.config.PerCallActivityCap {
		candidates = candidates[:h.config.PerCallActivityCap]
	}
	candidateSet := make(map[string]models.Activity, len(candidates))
	for _, scored := range candidates {
		candidateSet[scored.Activity.BusinessID] = scored.Activity
	}

	// One call per traveler, bounded by the concurrency limit. Results land
	// in a fixed slot per traveler so output order never depends on timing.
	results := make([]travelerResult, len(input.Travelers))
	sem := make(chan struct{}, h.config.Concurrency)
	var wg sync.WaitGroup

	for i, traveler := range input.Travelers {
		wg.Add(1)
		go func(i int, traveler models.Traveler) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = travelerResult{travelerID: traveler.ID, err: ctx.Err()}
				return
			}

			results[i] = h.rerankTraveler(ctx, traveler, input.City, travelerWeights(input.Weights, traveler), candidates, candidateSet)
		}(i, traveler)
	}
	wg.Wait()

	var merged []models.RerankedActivity
	var skipped []string
	for _, result := range results {
		if result.err != nil {
			h.logger.Warn("traveler re-rank skipped", map[string]interface{}{
				"travelerId": result.travelerID,
				"error":      result.err.Error(),
			})
			metrics.RerankCallsSkipped.WithLabelValues(skipReason(result.err)).Inc()
			skipped = append(skipped, result.travelerID)
			continue
		}
		merged = append(merged, result.rows...)
	}

	// Global ranking across travelers, capped.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].AdjustedScore > merged[j].AdjustedScore
	})
	if len(merged) > h.config.GlobalCap {
		merged = merged[:h.config.GlobalCap]
	}

	return &Output{
		Reranked:         merged,
		Summary:          summarize(merged),
		SkippedTravelers: skipped,
	}, nil
}

// travelerWeights prefers the upstream normalized vector and falls back to
// normalizing the raw intake scores, so the model always sees fractions.
func travelerWeights(weights map[string]map[string]float64, traveler models.Traveler) map[string]float64 {
	if w, ok := weights[traveler.ID]; ok && len(w) > 0 {
		return w
	}
	return normalizepreferences.NormalizeWeights(traveler.Preferences)
}

func (h *Handler) rerankTraveler(ctx context.Context, traveler models.Traveler, city string, weights map[string]float64, candidates []models.ScoredActivity, candidateSet map[string]models.Activity) travelerResult {
	response, err := h.reranker.Rerank(ctx, RerankRequest{
		TravelerID:  traveler.ID,
		City:        city,
		Budget:      traveler.Budget,
		Notes:       traveler.Notes,
		Preferences: weights,
		Activities:  candidates,
	})
	if err != nil {
		return travelerResult{travelerID: traveler.ID, err: err}
	}

	rows := make([]models.RerankedActivity, 0, len(response.Results))
	seen := make(map[string]bool, len(response.Results))
	for _, result := range response.Results {
		activity, known := candidateSet[result.BusinessID]
		if !known || seen[result.BusinessID] {
			// Hallucinated or duplicated entries are dropped silently.
			continue
		}
		seen[result.BusinessID] = true

		rows = append(rows, models.RerankedActivity{
			BusinessID:    result.BusinessID,
			Name:          activity.Name,
			City:          city,
			TravelerID:    traveler.ID,
			AdjustedScore: clampScore(result.AdjustedScore),
			TimeOfDay:     result.TimeOfDay,
			Note:          result.Note,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AdjustedScore > rows[j].AdjustedScore
	})
	if len(rows) > h.config.PerTravelerCap {
		rows = rows[:h.config.PerTravelerCap]
	}

	return travelerResult{travelerID: traveler.ID, rows: rows}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

func skipReason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrRerankTimeout):
		return "timeout"
	case errors.Is(err, ErrRerankMalformed):
		return "malformed"
	default:
		return "request_failed"
	}
}

func summarize(rows []models.RerankedActivity) Summary {
	summary := Summary{
		TotalActivities:  len(rows),
		TimeDistribution: make(map[string]int),
	}
	for i, row := range rows {
		if i == 0 || row.AdjustedScore < summary.ScoreRange.Min {
			summary.ScoreRange.Min = row.AdjustedScore
		}
		if row.AdjustedScore > summary.ScoreRange.Max {
			summary.ScoreRange.Max = row.AdjustedScore
		}
		summary.TimeDistribution[row.TimeOfDay]++
	}
	return summary
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
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
