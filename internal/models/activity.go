// internal/models/activity.go
package models

// PriceTierAmounts maps catalog price levels (1-4) to approximate per-person
// dollar amounts.
var PriceTierAmounts = map[int]float64{
	1: 15.0,
	2: 30.0,
	3: 50.0,
	4: 80.0,
}

// Activity is a single catalog entry (a venue or experience).
type Activity struct {
	BusinessID  string             `json:"businessId"`
	City        string             `json:"city"`
	Name        string             `json:"name"`
	Stars       float64            `json:"stars"`
	ReviewCount int                `json:"reviewCount"`
	PriceLevel  int                `json:"priceLevel,omitempty"` // 1-4, 0 when unknown
	PriceProxy  float64            `json:"priceProxy,omitempty"` // direct dollar estimate when present
	Tags        map[string]float64 `json:"tags"`                 // keyed by PreferenceDimensions
}

// EffectivePrice resolves the per-person dollar estimate for an activity.
// A direct price proxy wins; otherwise the tier amount; unknown pricing
// resolves to 1.0 so value scores stay finite without favoring the activity.
func (a Activity) EffectivePrice() float64 {
	if a.PriceProxy > 0 {
		return a.PriceProxy
	}
	if amount, ok := PriceTierAmounts[a.PriceLevel]; ok {
		return amount
	}
	return 1.0
}

// Tag returns the activity's affinity for one dimension, zero when absent.
func (a Activity) Tag(dimension string) float64 {
	if a.Tags == nil {
		return 0
	}
	return a.Tags[dimension]
}
