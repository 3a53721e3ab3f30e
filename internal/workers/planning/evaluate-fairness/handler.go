// internal/workers/planning/evaluate-fairness/handler.go
package evaluatefairness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"fairtrip-workers/internal/common/logger"
	"fairtrip-workers/internal/models"
)

const (
	TaskType = "evaluate-fairness"
)

// Fairness anchors. Ratios above ratioCap count as ratioCap in the group
// aggregates so one outlier cannot dominate the score.
const (
	ratioCap = 2.0

	affordabilityFloor = 0.6
	affordabilityCeil  = 1.4

	equalityFloor = 0.05
	equalityCeil  = 0.25

	affordabilityWeight = 0.6
	equalityWeight      = 0.4
)

var (
	ErrEmptyGroup    = errors.New("EMPTY_GROUP")
	ErrMissingBudget = errors.New("MISSING_BUDGET")
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
		errorCode := "PARSE_ERROR"
		switch {
		case errors.Is(err, ErrEmptyGroup):
			errorCode = "EMPTY_GROUP"
		case errors.Is(err, ErrMissingBudget):
			errorCode = "MISSING_BUDGET"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil || len(input.Costs) == 0 {
		return nil, fmt.Errorf("%w: no traveler costs provided", ErrEmptyGroup)
	}

	report, err := Evaluate(input.Costs)
	if err != nil {
		return nil, err
	}

	return &Output{Fairness: *report}, nil
}

// Evaluate computes the group fairness report from per-traveler budgets and
// cost components.
func Evaluate(costs []TravelerCost) (*models.FairnessReport, error) {
	perPerson := make([]models.PersonFairness, 0, len(costs))
	capped := make([]float64, 0, len(costs))

	for _, cost := range costs {
		if cost.Budget <= 0 {
			return nil, fmt.Errorf("%w: traveler %s has no budget", ErrMissingBudget, cost.TravelerID)
		}

		total := cost.FlightPrice + cost.HotelShare + cost.ActivitiesSpend
		ratio := total / cost.Budget

		perPerson = append(perPerson, models.PersonFairness{
			TravelerID:    cost.TravelerID,
			Budget:        cost.Budget,
			EstimatedCost: round2(total),
			CostRatio:     round3(ratio),
			Label:         affordabilityLabel(ratio),
		})
		capped = append(capped, math.Min(ratio, ratioCap))
	}

	mean := meanOf(capped)
	std := populationStd(capped, mean)

	affordability := affordabilityComponent(mean)
	equality := equalityComponent(std)

	score := 100 * (affordabilityWeight*affordability + equalityWeight*equality)
	score = math.Max(0, math.Min(100, score))

	return &models.FairnessReport{
		Score:         round1(score),
		Affordability: affordability,
		Equality:      equality,
		MeanRatio:     round3(mean),
		StdRatio:      round3(std),
		PerPerson:     perPerson,
	}, nil
}

// affordabilityLabel brackets a single traveler's cost-to-budget ratio.
// Boundaries are inclusive on the lower side of each bracket.
func affordabilityLabel(ratio float64) string {
	switch {
	case ratio <= 0.6:
		return "comfortable"
	case ratio <= 1.0:
		return "stretch"
	case ratio <= 1.3:
		return "risky"
	default:
		return "not_recommended"
	}
}

func affordabilityComponent(meanRatio float64) float64 {
	if meanRatio <= affordabilityFloor {
		return 1.0
	}
	if meanRatio >= affordabilityCeil {
		return 0.0
	}
	return 1.0 - (meanRatio-affordabilityFloor)/(affordabilityCeil-affordabilityFloor)
}

func equalityComponent(stdRatio float64) float64 {
	if stdRatio <= equalityFloor {
		return 1.0
	}
	if stdRatio >= equalityCeil {
		return 0.0
	}
	return 1.0 - (stdRatio-equalityFloor)/(equalityCeil-equalityFloor)
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationStd(values []float64, mean float64) float64 {
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

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
