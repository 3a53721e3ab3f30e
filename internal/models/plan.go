// internal/models/plan.go
package models

// Time-of-day slots a re-ranked activity may be recommended for.
const (
	SlotMorning   = "morning"
	SlotAfternoon = "afternoon"
	SlotEvening   = "evening"
	SlotLateNight = "late night"
)

// ValidSlots lists the accepted recommended_time_of_day values.
var ValidSlots = []string{SlotMorning, SlotAfternoon, SlotEvening, SlotLateNight}

// IsValidSlot reports whether s is one of the accepted time-of-day values.
func IsValidSlot(s string) bool {
	for _, slot := range ValidSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// TravelWindow is a (start, end) date pair with its group support.
type TravelWindow struct {
	TripStart      string `json:"tripStart"`
	TripEnd        string `json:"tripEnd"`
	MemberCount    int    `json:"memberCount"`
	TotalTravelers int    `json:"totalTravelers"`
}

// CityScore is one candidate city with its scoring breakdown.
type CityScore struct {
	City          string             `json:"city"`
	VibeScore     float64            `json:"vibeScore"`
	CostIndex     float64            `json:"costIndex"`
	CostLevel     string             `json:"costLevel"` // low, medium, high
	CostPenalty   float64            `json:"costPenalty"`
	CombinedScore float64            `json:"combinedScore"`
	ActivityCount int                `json:"activityCount"`
	VibeProfile   map[string]float64 `json:"vibeProfile,omitempty"`
}

// ScoredActivity is an activity with its group value score and the
// per-traveler scores that produced it.
type ScoredActivity struct {
	Activity       Activity           `json:"activity"`
	GroupValue     float64            `json:"groupValue"`
	TravelerValues map[string]float64 `json:"travelerValues,omitempty"`
}

// RerankedActivity is an activity after external re-ranking.
type RerankedActivity struct {
	BusinessID    string  `json:"businessId"`
	Name          string  `json:"name"`
	City          string  `json:"city"`
	TravelerID    string  `json:"travelerId"`
	AdjustedScore float64 `json:"adjustedScore"` // 0-10
	TimeOfDay     string  `json:"timeOfDay"`
	Note          string  `json:"note,omitempty"`
}

// ItinerarySlot is one scheduled activity within a day.
type ItinerarySlot struct {
	TimeOfDay  string  `json:"timeOfDay"`
	BusinessID string  `json:"businessId"`
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
	Note       string  `json:"note,omitempty"`
}

// ItineraryDay holds the ordered slots of a single day.
type ItineraryDay struct {
	Day   int             `json:"day"`
	Slots []ItinerarySlot `json:"slots"`
}

// PersonFairness is one traveler's affordability assessment.
type PersonFairness struct {
	TravelerID    string  `json:"travelerId"`
	Budget        float64 `json:"budget"`
	EstimatedCost float64 `json:"estimatedCost"`
	CostRatio     float64 `json:"costRatio"` // uncapped, rounded to 3 decimals
	Label         string  `json:"label"`     // comfortable, stretch, risky, not_recommended
}

// FairnessReport aggregates per-person assessments into a group score.
// MeanRatio and StdRatio are computed over ratios capped at 2.0.
type FairnessReport struct {
	Score         float64          `json:"score"` // 0-100
	Affordability float64          `json:"affordability"`
	Equality      float64          `json:"equality"`
	MeanRatio     float64          `json:"meanRatio"`
	StdRatio      float64          `json:"stdRatio"`
	PerPerson     []PersonFairness `json:"perPerson"`
}

// TripPlan is the complete pipeline result for one planning request.
type TripPlan struct {
	RequestID   string             `json:"requestId"`
	City        string             `json:"city"`
	Window      TravelWindow       `json:"window"`
	CityRanking []CityScore        `json:"cityRanking"`
	Explanation string             `json:"explanation,omitempty"`
	Itinerary   []ItineraryDay     `json:"itinerary"`
	Reranked    []RerankedActivity `json:"reranked,omitempty"`
	Fairness    FairnessReport     `json:"fairness"`
}
