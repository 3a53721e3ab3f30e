// internal/workers/communication/notify-plan/models.go
package notifyplan

import (
	"time"

	"fairtrip-workers/internal/models"
)

type Input struct {
	Travelers []models.Traveler `json:"travelers"`
	Plan      models.TripPlan   `json:"plan"`
}

// RecipientResult records the delivery outcome for one traveler.
type RecipientResult struct {
	TravelerID string `json:"travelerId"`
	EmailSent  bool   `json:"emailSent"`
	SMSSent    bool   `json:"smsSent"`
	Error      string `json:"error,omitempty"`
}

type Output struct {
	NotificationID string            `json:"notificationId"`
	Recipients     []RecipientResult `json:"recipients"`
	SentAt         time.Time         `json:"sentAt"`
}
