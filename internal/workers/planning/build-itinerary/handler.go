// internal/workers/planning/build-itinerary/handler.go
package builditinerary

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"fairtrip-workers/internal/common/logger"
	"fairtrip-workers/internal/models"
)

const (
	TaskType = "build-itinerary"
)

// slotOrder is the fixed within-day fill order.
var slotOrder = []string{models.SlotMorning, models.SlotAfternoon, models.SlotEvening}

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
		h.failJob(client, job, "PARSE_ERROR", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

// rankedEntry is one distinct activity in schedule order.
type rankedEntry struct {
	businessID string
	name       string
	score      float64
	note       string
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("input is required")
	}

	ranked := rankActivities(input.Reranked, input.Scored)
	itinerary := h.buildSchedule(ranked)

	scheduled := 0
	for _, day := range itinerary {
		scheduled += len(day.Slots)
	}

	return &Output{
		City:           input.City,
		Itinerary:      itinerary,
		ScheduledCount: scheduled,
	}, nil
}

// rankActivities orders distinct activities for scheduling. Activities with
// re-ranked rows come first, by mean adjusted score across travelers. The
// remaining value-scored activities follow, by group value. Ties keep their
// incoming order.
func rankActivities(reranked []models.RerankedActivity, scored []models.ScoredActivity) []rankedEntry {
	type aggregate struct {
		entry rankedEntry
		sum   float64
		count int
		best  float64
	}

	var order []string
	byID := make(map[string]*aggregate)
	for _, row := range reranked {
		agg, ok := byID[row.BusinessID]
		if !ok {
			agg = &aggregate{entry: rankedEntry{
				businessID: row.BusinessID,
				name:       row.Name,
			}, best: -1}
			byID[row.BusinessID] = agg
			order = append(order, row.BusinessID)
		}
		agg.sum += row.AdjustedScore
		agg.count++
		if row.AdjustedScore > agg.best {
			agg.best = row.AdjustedScore
			agg.entry.note = row.Note
		}
	}

	ranked := make([]rankedEntry, 0, len(order)+len(scored))
	for _, id := range order {
		agg := byID[id]
		agg.entry.score = agg.sum / float64(agg.count)
		ranked = append(ranked, agg.entry)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	// Value-scored activities without a re-ranked row go after the adjusted
	// ones, never displacing them.
	fallback := make([]rankedEntry, 0, len(scored))
	for _, item := range scored {
		if _, seen := byID[item.Activity.BusinessID]; seen {
			continue
		}
		byID[item.Activity.BusinessID] = nil
		fallback = append(fallback, rankedEntry{
			businessID: item.Activity.BusinessID,
			name:       item.Activity.Name,
			score:      item.GroupValue,
		})
	}
	sort.SliceStable(fallback, func(i, j int) bool {
		return fallback[i].score > fallback[j].score
	})

	return append(ranked, fallback...)
}

// buildSchedule fills day 1 then day 2, morning through evening, in ranked
// order. Trailing slots are omitted when activities run out.
func (h *Handler) buildSchedule(ranked []rankedEntry) []models.ItineraryDay {
	totalSlots := h.config.Days * h.config.SlotsPerDay
	if len(ranked) > totalSlots {
		ranked = ranked[:totalSlots]
	}

	var days []models.ItineraryDay
	for day := 0; day < h.config.Days; day++ {
		start := day * h.config.SlotsPerDay
		if start >= len(ranked) {
			break
		}

		slots := make([]models.ItinerarySlot, 0, h.config.SlotsPerDay)
		for i := 0; i < h.config.SlotsPerDay && start+i < len(ranked); i++ {
			entry := ranked[start+i]
			slots = append(slots, models.ItinerarySlot{
				TimeOfDay:  slotOrder[i%len(slotOrder)],
				BusinessID: entry.businessID,
				Name:       entry.name,
				Score:      entry.score,
				Note:       entry.note,
			})
		}
		days = append(days, models.ItineraryDay{Day: day + 1, Slots: slots})
	}
	return days
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
