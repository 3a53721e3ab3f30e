// internal/workers/planning/plan-trip/handler.go
package plantrip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"fairtrip-workers/internal/common/logger"
	"fairtrip-workers/internal/common/metrics"
	"fairtrip-workers/internal/models"
	"fairtrip-workers/internal/pricing"
	builditinerary "fairtrip-workers/internal/workers/planning/build-itinerary"
	choosecity "fairtrip-workers/internal/workers/planning/choose-city"
	evaluatefairness "fairtrip-workers/internal/workers/planning/evaluate-fairness"
	normalizepreferences "fairtrip-workers/internal/workers/planning/normalize-preferences"
	rerankactivities "fairtrip-workers/internal/workers/planning/rerank-activities"
	scoreactivities "fairtrip-workers/internal/workers/planning/score-activities"
	selecttravelwindow "fairtrip-workers/internal/workers/planning/select-travel-window"
)

const (
	TaskType = "plan-trip"

	dateLayout = "2006-01-02"
)

var (
	ErrInvalidRequest = errors.New("INVALID_PLANNING_REQUEST")
)

// Stages bundles the pipeline stage handlers the orchestrator drives.
type Stages struct {
	Normalize *normalizepreferences.Handler
	Window    *selecttravelwindow.Handler
	City      *choosecity.Handler
	Score     *scoreactivities.Handler
	Rerank    *rerankactivities.Handler
	Itinerary *builditinerary.Handler
	Fairness  *evaluatefairness.Handler
}

type Handler struct {
	config  *Config
	stages  Stages
	flights pricing.FlightSearcher
	hotels  pricing.HotelSearcher
	logger  logger.Logger
}

// NewHandler wires the full pipeline. flights and hotels may be nil, in
// which case every traveler gets the configured fallback prices.
func NewHandler(config *Config, stages Stages, flights pricing.FlightSearcher, hotels pricing.HotelSearcher, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		stages:  stages,
		flights: flights,
		hotels:  hotels,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCodeFor(err)).Inc()
		h.failJob(client, job, errorCodeFor(err), err.Error())
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func errorCodeFor(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "INVALID_PLANNING_REQUEST"
	case errors.Is(err, normalizepreferences.ErrEmptyGroup):
		return "EMPTY_GROUP"
	case errors.Is(err, selecttravelwindow.ErrNoCommonWindow):
		return "NO_COMMON_WINDOW"
	case errors.Is(err, choosecity.ErrNoCityQualified):
		return "NO_CITY_QUALIFIED"
	case errors.Is(err, choosecity.ErrCatalogLoad), errors.Is(err, scoreactivities.ErrCatalogLoad):
		return "CATALOG_LOAD_FAILED"
	case errors.Is(err, scoreactivities.ErrNoQualifyingActivities):
		return "NO_QUALIFYING_ACTIVITIES"
	case errors.Is(err, evaluatefairness.ErrMissingBudget):
		return "MISSING_BUDGET"
	default:
		return "PARSE_ERROR"
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || len(input.Travelers) == 0 {
		return nil, fmt.Errorf("%w: no travelers", ErrInvalidRequest)
	}

	requestID := uuid.NewString()
	log := h.logger.WithFields(map[string]interface{}{"requestId": requestID})

	normalized, err := h.stages.Normalize.Execute(ctx, &normalizepreferences.Input{
		Travelers: input.Travelers,
	})
	if err != nil {
		return nil, err
	}

	window, err := h.stages.Window.Execute(ctx, &selecttravelwindow.Input{
		Travelers: input.Travelers,
	})
	if err != nil {
		return nil, err
	}

	city, err := h.stages.City.Execute(ctx, &choosecity.Input{
		GroupWeights: normalized.GroupWeights,
	})
	if err != nil {
		return nil, err
	}

	scored, err := h.stages.Score.Execute(ctx, &scoreactivities.Input{
		City:            city.SelectedCity,
		TravelerWeights: normalized.NormalizedWeights,
		TopK:            input.TopK,
	})
	if err != nil {
		return nil, err
	}

	// The external re-rank is best effort. A failure here degrades the plan
	// to value-score ordering rather than aborting it.
	var reranked []models.RerankedActivity
	rerankOut, err := h.stages.Rerank.Execute(ctx, &rerankactivities.Input{
		City:       city.SelectedCity,
		Travelers:  input.Travelers,
		Activities: scored.Activities,
		Weights:    normalized.NormalizedWeights,
	})
	if err != nil {
		log.Warn("re-rank stage degraded", map[string]interface{}{"error": err.Error()})
	} else {
		reranked = rerankOut.Reranked
	}

	itinerary, err := h.stages.Itinerary.Execute(ctx, &builditinerary.Input{
		City:     city.SelectedCity,
		Reranked: reranked,
		Scored:   scored.Activities,
	})
	if err != nil {
		return nil, err
	}

	travelerPricing, hotel := h.priceTrip(ctx, log, input.Travelers, city.SelectedCity, window.Window)

	activitiesSpend := scheduledSpend(itinerary.Itinerary, scored.Activities)
	costs := make([]evaluatefairness.TravelerCost, 0, len(input.Travelers))
	for i, traveler := range input.Travelers {
		costs = append(costs, evaluatefairness.TravelerCost{
			TravelerID:      traveler.ID,
			Budget:          traveler.Budget,
			FlightPrice:     travelerPricing[i].FlightPrice,
			HotelShare:      travelerPricing[i].HotelShare,
			ActivitiesSpend: activitiesSpend,
		})
	}

	fairness, err := h.stages.Fairness.Execute(ctx, &evaluatefairness.Input{Costs: costs})
	if err != nil {
		return nil, err
	}

	return &Output{
		Plan: models.TripPlan{
			RequestID:   requestID,
			City:        city.SelectedCity,
			Window:      window.Window,
			CityRanking: city.Ranking,
			Explanation: city.Explanation,
			Itinerary:   itinerary.Itinerary,
			Reranked:    reranked,
			Fairness:    fairness.Fairness,
		},
		Pricing: travelerPricing,
		Hotel:   hotel,
	}, nil
}

// priceTrip estimates flight and lodging costs per traveler. Search failures
// never abort planning; they fall back to configured estimates.
func (h *Handler) priceTrip(ctx context.Context, log logger.Logger, travelers []models.Traveler, city string, window models.TravelWindow) ([]TravelerPricing, *pricing.HotelOption) {
	nights := nightsBetween(window.TripStart, window.TripEnd)
	nightlyRate := h.config.FallbackNightlyRate
	hotelEstimated := true

	var hotel *pricing.HotelOption
	if h.hotels != nil {
		options, err := h.hotels.SearchHotels(ctx, pricing.HotelQuery{
			City:           city,
			CheckInDate:    window.TripStart,
			CheckOutDate:   window.TripEnd,
			MinRating:      h.config.MinHotelRating,
			MaxNightlyRate: h.config.MaxNightlyRate,
		})
		if err != nil || len(options) == 0 {
			log.Warn("hotel search degraded to fallback rate", map[string]interface{}{
				"city": city, "error": errString(err),
			})
		} else {
			hotel = &options[0]
			nightlyRate = options[0].NightlyRate
			hotelEstimated = false
		}
	}
	if hotelEstimated {
		metrics.PricingFallbacks.WithLabelValues("hotel").Inc()
	}
	hotelShare := nightlyRate * float64(nights) / float64(len(travelers))

	result := make([]TravelerPricing, 0, len(travelers))
	for _, traveler := range travelers {
		tp := TravelerPricing{
			TravelerID:  traveler.ID,
			FlightPrice: h.config.FallbackFlightPrice,
			HotelShare:  hotelShare,
		}

		flightEstimated := true
		if h.flights != nil {
			options, err := h.flights.SearchFlights(ctx, pricing.FlightQuery{
				OriginCity:      traveler.OriginCity,
				DestinationCity: city,
				DepartureDate:   window.TripStart,
				ReturnDate:      window.TripEnd,
			})
			if err != nil || len(options) == 0 {
				log.Warn("flight search degraded to fallback price", map[string]interface{}{
					"travelerId": traveler.ID, "error": errString(err),
				})
			} else {
				tp.Flights = options
				tp.FlightPrice = options[0].Price
				flightEstimated = false
			}
		}
		if flightEstimated {
			metrics.PricingFallbacks.WithLabelValues("flight").Inc()
		}
		tp.Estimated = flightEstimated || hotelEstimated

		result = append(result, tp)
	}
	return result, hotel
}

// scheduledSpend totals the effective price of every activity that got an
// itinerary slot. Each traveler is assumed to attend the full schedule.
func scheduledSpend(days []models.ItineraryDay, scored []models.ScoredActivity) float64 {
	prices := make(map[string]float64, len(scored))
	for _, item := range scored {
		prices[item.Activity.BusinessID] = item.Activity.EffectivePrice()
	}

	total := 0.0
	for _, day := range days {
		for _, slot := range day.Slots {
			total += prices[slot.BusinessID]
		}
	}
	return total
}

// nightsBetween counts lodging nights in a window, never less than one.
func nightsBetween(start, end string) int {
	from, err1 := time.Parse(dateLayout, start)
	to, err2 := time.Parse(dateLayout, end)
	if err1 != nil || err2 != nil {
		return 1
	}
	nights := int(to.Sub(from).Hours() / 24)
	if nights < 1 {
		return 1
	}
	return nights
}

func errString(err error) string {
	if err == nil {
		return "no options returned"
	}
	return err.Error()
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
