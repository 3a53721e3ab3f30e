package notifyplan

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairtrip-workers/internal/common/logger"
	"fairtrip-workers/internal/models"
)

// ==========================
// Test Fixtures
// ==========================

type stubEmailSender struct {
	sent   []string // recipient addresses
	bodies map[string]string
	failTo string
}

func (s *stubEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	if to == s.failTo {
		return fmt.Errorf("mailbox unavailable")
	}
	s.sent = append(s.sent, to)
	if s.bodies == nil {
		s.bodies = make(map[string]string)
	}
	s.bodies[to] = body
	return nil
}

type stubSMSSender struct {
	sent []string // phone numbers
	err  error
}

func (s *stubSMSSender) SendSMS(ctx context.Context, phone, message string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, phone)
	return nil
}

func samplePlan() models.TripPlan {
	return models.TripPlan{
		RequestID: "req-1",
		City:      "Tampa",
		Window:    models.TravelWindow{TripStart: "2026-10-01", TripEnd: "2026-10-03"},
		Itinerary: []models.ItineraryDay{
			{Day: 1, Slots: []models.ItinerarySlot{
				{TimeOfDay: models.SlotMorning, BusinessID: "b1", Name: "River Walk", Note: "go early"},
			}},
		},
		Fairness: models.FairnessReport{
			Score: 87.5,
			PerPerson: []models.PersonFairness{
				{TravelerID: "u1", Budget: 2000, EstimatedCost: 780, Label: "comfortable"},
				{TravelerID: "u2", Budget: 1500, EstimatedCost: 780, Label: "stretch"},
			},
		},
	}
}

func sampleTravelers() []models.Traveler {
	return []models.Traveler{
		{ID: "u1", Name: "Ana", Email: "ana@example.com", Phone: "+15551230001"},
		{ID: "u2", Name: "Ben", Email: "ben@example.com", Phone: "+15551230002"},
	}
}

func newTestHandler(t *testing.T, email EmailSender, sms SMSSender, smsEnabled bool) *Handler {
	t.Helper()
	config := LoadConfig()
	config.SMSEnabled = smsEnabled
	return NewHandler(config, email, sms, logger.NewTestLogger(t))
}

// ==========================
// Delivery Tests
// ==========================

func TestExecute_EmailsEveryTraveler(t *testing.T) {
	email := &stubEmailSender{}
	handler := newTestHandler(t, email, nil, false)

	output, err := handler.Execute(context.Background(), &Input{
		Travelers: sampleTravelers(),
		Plan:      samplePlan(),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, output.NotificationID)
	assert.Equal(t, []string{"ana@example.com", "ben@example.com"}, email.sent)
	require.Len(t, output.Recipients, 2)
	assert.True(t, output.Recipients[0].EmailSent)
	assert.False(t, output.Recipients[0].SMSSent)
}

func TestExecute_EmailBodyPersonalized(t *testing.T) {
	email := &stubEmailSender{}
	handler := newTestHandler(t, email, nil, false)

	_, err := handler.Execute(context.Background(), &Input{
		Travelers: sampleTravelers(),
		Plan:      samplePlan(),
	})
	require.NoError(t, err)

	body := email.bodies["ana@example.com"]
	assert.Contains(t, body, "Hi Ana")
	assert.Contains(t, body, "Tampa")
	assert.Contains(t, body, "River Walk")
	assert.Contains(t, body, "comfortable")
	assert.Contains(t, body, "87.5/100")

	// Each traveler sees only their own cost line.
	assert.NotContains(t, body, "stretch")
	assert.Contains(t, email.bodies["ben@example.com"], "stretch")
}

func TestExecute_SMSOnlyWhenEnabled(t *testing.T) {
	sms := &stubSMSSender{}
	handler := newTestHandler(t, &stubEmailSender{}, sms, true)

	output, err := handler.Execute(context.Background(), &Input{
		Travelers: sampleTravelers(),
		Plan:      samplePlan(),
	})
	require.NoError(t, err)

	assert.Len(t, sms.sent, 2)
	assert.True(t, output.Recipients[0].SMSSent)

	// Disabled config skips SNS even with a sender wired.
	sms2 := &stubSMSSender{}
	handler2 := newTestHandler(t, &stubEmailSender{}, sms2, false)
	output2, err := handler2.Execute(context.Background(), &Input{
		Travelers: sampleTravelers(),
		Plan:      samplePlan(),
	})
	require.NoError(t, err)
	assert.Empty(t, sms2.sent)
	assert.False(t, output2.Recipients[0].SMSSent)
}

func TestExecute_DeliveryFailureDoesNotFailJob(t *testing.T) {
	email := &stubEmailSender{failTo: "ana@example.com"}
	handler := newTestHandler(t, email, nil, false)

	output, err := handler.Execute(context.Background(), &Input{
		Travelers: sampleTravelers(),
		Plan:      samplePlan(),
	})
	require.NoError(t, err)

	require.Len(t, output.Recipients, 2)
	assert.False(t, output.Recipients[0].EmailSent)
	assert.Contains(t, output.Recipients[0].Error, "mailbox unavailable")
	assert.True(t, output.Recipients[1].EmailSent)
}

func TestExecute_TravelerWithoutContactInfo(t *testing.T) {
	email := &stubEmailSender{}
	handler := newTestHandler(t, email, &stubSMSSender{}, true)

	output, err := handler.Execute(context.Background(), &Input{
		Travelers: []models.Traveler{{ID: "u1", Name: "Ana"}},
		Plan:      samplePlan(),
	})
	require.NoError(t, err)

	assert.Empty(t, email.sent)
	assert.False(t, output.Recipients[0].EmailSent)
	assert.False(t, output.Recipients[0].SMSSent)
	assert.Empty(t, output.Recipients[0].Error)
}

func TestExecute_NoTravelers(t *testing.T) {
	handler := newTestHandler(t, &stubEmailSender{}, nil, false)

	_, err := handler.Execute(context.Background(), &Input{Plan: samplePlan()})
	assert.Error(t, err)
}

// ==========================
// Message Building Tests
// ==========================

func TestSMSBody(t *testing.T) {
	message := smsBody(samplePlan())

	assert.Contains(t, message, "Tampa")
	assert.Contains(t, message, "2026-10-01")
	assert.Contains(t, message, "87.5/100")
	assert.Less(t, len(message), 160, "summary should fit one SMS segment")
}

func TestEmailBody_UnnamedTraveler(t *testing.T) {
	body := emailBody(models.Traveler{ID: "u9"}, samplePlan())
	assert.True(t, strings.HasPrefix(body, "Hi traveler,"))
}
