// internal/workers/planning/normalize-preferences/handler.go
package normalizepreferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"fairtrip-workers/internal/common/logger"
	"fairtrip-workers/internal/models"
)

const (
	TaskType = "normalize-preferences"
)

var (
	ErrEmptyGroup = errors.New("EMPTY_GROUP")
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, "EMPTY_GROUP", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || len(input.Travelers) == 0 {
		return nil, ErrEmptyGroup
	}

	normalized := make(map[string]map[string]float64, len(input.Travelers))
	group := make(map[string]float64, len(models.PreferenceDimensions))

	for _, traveler := range input.Travelers {
		weights := NormalizeWeights(traveler.Preferences)
		normalized[traveler.ID] = weights
		for _, dim := range models.PreferenceDimensions {
			group[dim] += weights[dim]
		}
	}

	n := float64(len(input.Travelers))
	for _, dim := range models.PreferenceDimensions {
		group[dim] /= n
	}

	return &Output{
		NormalizedWeights: normalized,
		GroupWeights:      group,
	}, nil
}

// NormalizeWeights converts raw weights into fractions over the fixed
// dimension set. A zero or negative total falls back to a uniform vector so
// every traveler contributes equally to the group target.
func NormalizeWeights(raw map[string]float64) map[string]float64 {
	total := 0.0
	for _, dim := range models.PreferenceDimensions {
		if v := raw[dim]; v > 0 {
			total += v
		}
	}

	out := make(map[string]float64, len(models.PreferenceDimensions))
	if total <= 0 {
		uniform := 1.0 / float64(len(models.PreferenceDimensions))
		for _, dim := range models.PreferenceDimensions {
			out[dim] = uniform
		}
		return out
	}

	for _, dim := range models.PreferenceDimensions {
		v := raw[dim]
		if v < 0 {
			v = 0
		}
		out[dim] = v / total
	}
	return out
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
