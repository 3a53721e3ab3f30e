// internal/workers/planning/select-travel-window/handler.go
package selecttravelwindow

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
	TaskType = "select-travel-window"
)

var (
	ErrNoCommonWindow = errors.New("NO_COMMON_WINDOW")
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
		h.failJob(client, job, "NO_COMMON_WINDOW", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("input cannot be nil")
	}

	window, err := MostCommonWindow(input.Travelers)
	if err != nil {
		return nil, err
	}

	return &Output{Window: window}, nil
}

// MostCommonWindow picks the (start, end) window appearing most often across
// all candidate windows of all travelers. Ties resolve to the window
// encountered first in traveler order then candidate order, so repeated runs
// over the same input give the same answer.
func MostCommonWindow(travelers []models.Traveler) (models.TravelWindow, error) {
	counts := make(map[models.DateWindow]int)
	var order []models.DateWindow

	for _, t := range travelers {
		for _, w := range t.Windows {
			if !w.Complete() {
				continue
			}
			if _, seen := counts[w]; !seen {
				order = append(order, w)
			}
			counts[w]++
		}
	}

	if len(order) == 0 {
		return models.TravelWindow{}, fmt.Errorf("%w: %d travelers, none proposed a window", ErrNoCommonWindow, len(travelers))
	}

	best := order[0]
	for _, w := range order[1:] {
		if counts[w] > counts[best] {
			best = w
		}
	}

	return models.TravelWindow{
		TripStart:      best.Start,
		TripEnd:        best.End,
		MemberCount:    counts[best],
		TotalTravelers: len(travelers),
	}, nil
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
