// internal/pricing/hotels.go
package pricing

import (
	"context"
	"fmt"

	commonerrors "fairtrip-workers/internal/common/errors"
)

// HotelQuery describes a group lodging search.
type HotelQuery struct {
	City           string
	CheckInDate    string // YYYY-MM-DD
	CheckOutDate   string // YYYY-MM-DD
	MinRating      float64
	MaxNightlyRate float64 // 0 disables the cap
}

// HotelOption is one candidate property.
type HotelOption struct {
	Name        string  `json:"name"`
	Rating      float64 `json:"rating"`
	Location    string  `json:"location,omitempty"`
	NightlyRate float64 `json:"nightlyRate"`
}

// HotelSearcher finds lodging options for a query.
type HotelSearcher interface {
	SearchHotels(ctx context.Context, query HotelQuery) ([]HotelOption, error)
}

// SerpAPIHotelSearcher queries the google_hotels engine.
type SerpAPIHotelSearcher struct {
	client *SerpAPIClient
}

func NewSerpAPIHotelSearcher(client *SerpAPIClient) *SerpAPIHotelSearcher {
	return &SerpAPIHotelSearcher{client: client}
}

type hotelsResponse struct {
	Properties []struct {
		Name          string  `json:"name"`
		OverallRating float64 `json:"overall_rating"`
		Location      string  `json:"location"`
		RatePerNight  struct {
			ExtractedLowest float64 `json:"extracted_lowest"`
		} `json:"rate_per_night"`
	} `json:"properties"`
}

// SearchHotels returns up to five properties that satisfy the rating and
// price filters, in provider order.
func (s *SerpAPIHotelSearcher) SearchHotels(ctx context.Context, query HotelQuery) ([]HotelOption, error) {
	params := map[string]string{
		"q":              fmt.Sprintf("%s hotels", query.City),
		"check_in_date":  query.CheckInDate,
		"check_out_date": query.CheckOutDate,
	}

	var resp hotelsResponse
	if err := s.client.search(ctx, "google_hotels", params, &resp); err != nil {
		return nil, commonerrors.NewHotelSearchFailedError(query.City, err)
	}

	options := make([]HotelOption, 0, len(resp.Properties))
	for _, p := range resp.Properties {
		rate := p.RatePerNight.ExtractedLowest
		if rate <= 0 {
			continue
		}
		if p.OverallRating < query.MinRating {
			continue
		}
		if query.MaxNightlyRate > 0 && rate > query.MaxNightlyRate {
			continue
		}
		options = append(options, HotelOption{
			Name:        p.Name,
			Rating:      p.OverallRating,
			Location:    p.Location,
			NightlyRate: rate,
		})
		if len(options) == 5 {
			break
		}
	}
	return options, nil
}
