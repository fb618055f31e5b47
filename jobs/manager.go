package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"classcapture-api/auth"
	"classcapture-api/utils"
	"github.com/hibiken/asynq"
)

const (
	TypeSendEmail = "email:send"
)

// JobManager queues outbound email through asynq. When no Redis URL is
// configured it delivers inline instead, so the upload pipeline never
// depends on the broker being up.
type JobManager struct {
	client       *asynq.Client
	server       *asynq.Server
	mux          *asynq.ServeMux
	emailService *auth.EmailService
}

type EmailPayload struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	Body     string            `json:"body"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata"`
}

func NewJobManager(redisURL string, emailService *auth.EmailService) *JobManager {
	jm := &JobManager{emailService: emailService}

	if redisURL == "" {
		utils.LogStartup("No Redis URL configured, emails will be sent inline")
		return jm
	}

	addr := strings.TrimPrefix(redisURL, "redis://")
	redisOpt := asynq.RedisClientOpt{
		Addr: addr,
	}

	jm.client = asynq.NewClient(redisOpt)

	jm.server = asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"critical": 6, // Welcome emails
			"default":  3, // General notifications
			"low":      1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			utils.LogError("Job failed: type=%s error=%v", task.Type(), err)
		}),
		Logger: &AsynqLogger{},
	})

	jm.mux = asynq.NewServeMux()
	jm.mux.HandleFunc(TypeSendEmail, jm.handleSendEmail)

	return jm
}

// Start runs the queue worker. Blocks; call from a goroutine. No-op in
// inline mode.
func (jm *JobManager) Start() error {
	if jm.server == nil {
		return nil
	}
	utils.LogStartup("Starting job queue worker...")
	return jm.server.Run(jm.mux)
}

func (jm *JobManager) Stop() {
	if jm.server == nil {
		return
	}
	utils.LogShutdown("Stopping job queue...")
	jm.server.Stop()
	jm.server.Shutdown()
	jm.client.Close()
}

// QueueEmail enqueues (or, in inline mode, immediately sends) one email.
func (jm *JobManager) QueueEmail(to, subject, body, emailType string, metadata map[string]string, priority string) error {
	if metadata == nil {
		metadata = make(map[string]string)
	}

	if jm.client == nil {
		utils.LogInfo("Sending %s email inline to %s", emailType, to)
		return jm.emailService.SendEmail(to, subject, body)
	}

	payload := EmailPayload{
		To:       to,
		Subject:  subject,
		Body:     body,
		Type:     emailType,
		Metadata: metadata,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	task := asynq.NewTask(TypeSendEmail, payloadBytes)

	queue := "default"
	maxRetries := 3
	timeout := 60 * time.Second

	switch priority {
	case "critical":
		queue = "critical"
		maxRetries = 5
		timeout = 120 * time.Second
	case "low":
		queue = "low"
		maxRetries = 2
		timeout = 30 * time.Second
	}

	info, err := jm.client.Enqueue(task,
		asynq.Queue(queue),
		asynq.MaxRetry(maxRetries),
		asynq.Timeout(timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue email task: %w", err)
	}

	utils.LogInfo("Queued email job: ID=%s type=%s to=%s priority=%s",
		info.ID, emailType, to, priority)
	return nil
}

func (jm *JobManager) QueueWelcomeEmail(to, subject, body string, userID int) error {
	metadata := map[string]string{
		"user_id": fmt.Sprintf("%d", userID),
	}
	return jm.QueueEmail(to, subject, body, "welcome", metadata, "critical")
}

func (jm *JobManager) handleSendEmail(ctx context.Context, task *asynq.Task) error {
	var payload EmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email payload: %w", err)
	}

	utils.LogInfo("Processing email job: type=%s to=%s subject=%s", payload.Type, payload.To, payload.Subject)

	if err := jm.emailService.SendEmail(payload.To, payload.Subject, payload.Body); err != nil {
		metadataStr := ""
		for k, v := range payload.Metadata {
			metadataStr += fmt.Sprintf("%s=%s ", k, v)
		}

		return fmt.Errorf("failed to send %s email to %s (metadata: %s): %w",
			payload.Type, payload.To, metadataStr, err)
	}

	utils.LogInfo("Successfully sent %s email to %s", payload.Type, payload.To)
	return nil
}

// AsynqLogger routes asynq's internal logging through the shared helpers.
type AsynqLogger struct{}

func (l *AsynqLogger) Debug(args ...interface{}) {
	utils.LogDebug(fmt.Sprint(args...))
}

func (l *AsynqLogger) Info(args ...interface{}) {
	utils.LogInfo(fmt.Sprint(args...))
}

func (l *AsynqLogger) Warn(args ...interface{}) {
	utils.LogError(fmt.Sprint(args...))
}

func (l *AsynqLogger) Error(args ...interface{}) {
	utils.LogError(fmt.Sprint(args...))
}

func (l *AsynqLogger) Fatal(args ...interface{}) {
	utils.LogError(fmt.Sprint(args...))
}
