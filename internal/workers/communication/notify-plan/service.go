// internal/workers/communication/notify-plan/service.go
package notifyplan

import (
	"context"
	"fmt"
	"strings"

	sdkses "github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	sdksns "github.com/aws/aws-sdk-go-v2/service/sns"

	commonaws "fairtrip-workers/internal/common/aws"
	"fairtrip-workers/internal/models"
)

// EmailSender delivers one plan email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers one short plan summary.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// SESEmailSender sends through Amazon SES.
type SESEmailSender struct {
	client *commonaws.SESClient
	from   string
}

func NewSESEmailSender(client *commonaws.SESClient, from string) *SESEmailSender {
	return &SESEmailSender{client: client, from: from}
}

func (s *SESEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	_, err := s.client.SendEmail(ctx, &sdkses.SendEmailInput{
		Source:      &s.from,
		Destination: &sestypes.Destination{ToAddresses: []string{to}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: &subject},
			Body:    &sestypes.Body{Text: &sestypes.Content{Data: &body}},
		},
	})
	return err
}

// SNSSMSSender sends through Amazon SNS.
type SNSSMSSender struct {
	client *commonaws.SNSClient
}

func NewSNSSMSSender(client *commonaws.SNSClient) *SNSSMSSender {
	return &SNSSMSSender{client: client}
}

func (s *SNSSMSSender) SendSMS(ctx context.Context, phone, message string) error {
	_, err := s.client.Publish(ctx, &sdksns.PublishInput{
		PhoneNumber: &phone,
		Message:     &message,
	})
	return err
}

func emailSubject(plan models.TripPlan) string {
	return fmt.Sprintf("Your group trip to %s is planned", plan.City)
}

func emailBody(traveler models.Traveler, plan models.TripPlan) string {
	var sb strings.Builder

	name := traveler.Name
	if name == "" {
		name = "traveler"
	}
	fmt.Fprintf(&sb, "Hi %s,\n\n", name)
	fmt.Fprintf(&sb, "Your group is headed to %s from %s to %s.\n\n",
		plan.City, plan.Window.TripStart, plan.Window.TripEnd)

	for _, day := range plan.Itinerary {
		fmt.Fprintf(&sb, "Day %d:\n", day.Day)
		for _, slot := range day.Slots {
			fmt.Fprintf(&sb, "  %s: %s", slot.TimeOfDay, slot.Name)
			if slot.Note != "" {
				fmt.Fprintf(&sb, " (%s)", slot.Note)
			}
			sb.WriteString("\n")
		}
	}

	for _, person := range plan.Fairness.PerPerson {
		if person.TravelerID != traveler.ID {
			continue
		}
		fmt.Fprintf(&sb, "\nEstimated cost for you: $%.2f against a $%.2f budget (%s).\n",
			person.EstimatedCost, person.Budget, person.Label)
	}

	fmt.Fprintf(&sb, "\nGroup fairness score: %.1f/100.\n", plan.Fairness.Score)
	return sb.String()
}

func smsBody(plan models.TripPlan) string {
	return fmt.Sprintf("Trip planned: %s, %s to %s. Fairness %.1f/100. Full itinerary in your email.",
		plan.City, plan.Window.TripStart, plan.Window.TripEnd, plan.Fairness.Score)
}
