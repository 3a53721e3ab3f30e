// internal/workers/communication/notify-plan/handler.go
package notifyplan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"fairtrip-workers/internal/common/logger"
)

const (
	TaskType = "notify-plan"
)

type Handler struct {
	config *Config
	email  EmailSender
	sms    SMSSender
	logger logger.Logger
}

// NewHandler builds the notification worker. email and sms may be nil when
// the corresponding channel is not configured.
func NewHandler(config *Config, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		email:  email,
		sms:    sms,
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

// execute sends the plan to every traveler. Delivery failures are recorded
// per recipient and never fail the job; the plan itself already succeeded.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || len(input.Travelers) == 0 {
		return nil, fmt.Errorf("input requires travelers")
	}

	notificationID := uuid.NewString()
	subject := emailSubject(input.Plan)
	sms := smsBody(input.Plan)

	recipients := make([]RecipientResult, 0, len(input.Travelers))
	for _, traveler := range input.Travelers {
		result := RecipientResult{TravelerID: traveler.ID}

		if h.email != nil && traveler.Email != "" {
			if err := h.email.SendEmail(ctx, traveler.Email, subject, emailBody(traveler, input.Plan)); err != nil {
				result.Error = err.Error()
				h.logger.Warn("plan email failed", map[string]interface{}{
					"travelerId":     traveler.ID,
					"notificationId": notificationID,
					"error":          err.Error(),
				})
			} else {
				result.EmailSent = true
			}
		}

		if h.sms != nil && h.config.SMSEnabled && traveler.Phone != "" {
			if err := h.sms.SendSMS(ctx, traveler.Phone, sms); err != nil {
				if result.Error == "" {
					result.Error = err.Error()
				}
				h.logger.Warn("plan SMS failed", map[string]interface{}{
					"travelerId":     traveler.ID,
					"notificationId": notificationID,
					"error":          err.Error(),
				})
			} else {
				result.SMSSent = true
			}
		}

		recipients = append(recipients, result)
	}

	return &Output{
		NotificationID: notificationID,
		Recipients:     recipients,
		SentAt:         time.Now().UTC(),
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
