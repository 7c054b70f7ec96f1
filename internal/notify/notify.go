// Package notify delivers sync lifecycle events to Slack, Microsoft Teams
// and generic webhooks. Delivery is best-effort: failures are logged and
// never propagate into the sync flows.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscout/internal/model"
)

// EventType identifies the kind of event.
type EventType string

const (
	EventSyncCompleted EventType = "sync.completed"
	EventSyncFailed    EventType = "sync.failed"
	EventHighScoreLead EventType = "lead.high_score"
)

// Event is the payload posted to generic webhooks.
type Event struct {
	Type      EventType      `json:"type"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Config holds outbound notification settings.
type Config struct {
	SlackWebhook string `yaml:"slack_webhook" mapstructure:"slack_webhook"`
	TeamsWebhook string `yaml:"teams_webhook" mapstructure:"teams_webhook"`
	WebhookURL   string `yaml:"webhook_url" mapstructure:"webhook_url"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Enabled reports whether any destination is configured.
func (c Config) Enabled() bool {
	return c.SlackWebhook != "" || c.TeamsWebhook != "" || c.WebhookURL != ""
}

// Service fans events out to every configured destination.
type Service struct {
	cfg    Config
	client *http.Client
}

// New creates a notification Service.
func New(cfg Config) *Service {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// JobFinished reports a finished sync job.
func (s *Service) JobFinished(ctx context.Context, job *model.SyncJob) {
	eventType := EventSyncCompleted
	if job.Status == model.JobFailed {
		eventType = EventSyncFailed
	}
	s.send(ctx, Event{
		Type: eventType,
		Message: fmt.Sprintf("%s sync %s: %d processed, %d errors",
			job.Type, job.Status, job.ProcessedCount, job.ErrorCount),
		Details: map[string]any{
			"job_id":          job.ID,
			"type":            job.Type,
			"status":          job.Status,
			"processed_count": job.ProcessedCount,
			"error_count":     job.ErrorCount,
		},
		Timestamp: time.Now().UTC(),
	})
}

// HighScoreLead reports a company that crossed the high-score threshold.
func (s *Service) HighScoreLead(ctx context.Context, c *model.Company) {
	s.send(ctx, Event{
		Type: EventHighScoreLead,
		Message: fmt.Sprintf("High-score lead: %s (%s) scored %d",
			c.Name, c.Orgnr, c.OverallScore),
		Details: map[string]any{
			"orgnr":         c.Orgnr,
			"name":          c.Name,
			"overall_score": c.OverallScore,
			"municipality":  c.Municipality,
			"industry_code": c.IndustryCode,
		},
		Timestamp: time.Now().UTC(),
	})
}

// send posts the event to every configured destination, logging failures.
func (s *Service) send(ctx context.Context, ev Event) {
	if s.cfg.SlackWebhook != "" {
		if err := s.post(ctx, s.cfg.SlackWebhook, map[string]any{"text": ev.Message}); err != nil {
			zap.L().Error("notify: slack delivery failed",
				zap.String("event", string(ev.Type)), zap.Error(err))
		}
	}
	if s.cfg.TeamsWebhook != "" {
		payload := map[string]any{
			"@type":    "MessageCard",
			"@context": "http://schema.org/extensions",
			"summary":  string(ev.Type),
			"text":     ev.Message,
		}
		if err := s.post(ctx, s.cfg.TeamsWebhook, payload); err != nil {
			zap.L().Error("notify: teams delivery failed",
				zap.String("event", string(ev.Type)), zap.Error(err))
		}
	}
	if s.cfg.WebhookURL != "" {
		if err := s.post(ctx, s.cfg.WebhookURL, ev); err != nil {
			zap.L().Error("notify: webhook delivery failed",
				zap.String("event", string(ev.Type)), zap.Error(err))
		}
	}
}

func (s *Service) post(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "notify: marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "notify: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: post")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
