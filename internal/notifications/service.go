package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"burnish/internal/config"
)

const userAgent = "Burnish-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifySessionCompleted(ctx context.Context, title string, segments, fallbackSegments int) error
	NotifySessionDegraded(ctx context.Context, title string, fallbackSegments int) error
	NotifySessionFailed(ctx context.Context, title string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint:   topic,
		client:     client,
		completion: cfg.Notifications.Completion,
		fallback:   cfg.Notifications.Fallback,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	completion bool
	fallback   bool
	errors     bool
}

func (n *ntfyService) NotifySessionCompleted(ctx context.Context, title string, segments, fallbackSegments int) error {
	if !n.completion {
		return nil
	}
	title = strings.TrimSpace(title)
	message := fmt.Sprintf("Transcript ready: %s (%d segments)", title, segments)
	if fallbackSegments > 0 {
		message = fmt.Sprintf("%s\n%d segments kept their raw text", message, fallbackSegments)
	}
	data := payload{
		title:   "Burnish - Session Complete",
		message: message,
		tags:    []string{"burnish", "session", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySessionDegraded(ctx context.Context, title string, fallbackSegments int) error {
	if !n.fallback {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Burnish - Degraded Run",
		message: fmt.Sprintf("Correction model unavailable for %s; %d segments cleaned without it", title, fallbackSegments),
		tags:    []string{"burnish", "session", "degraded"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySessionFailed(ctx context.Context, title string, err error) error {
	if !n.errors {
		return nil
	}
	title = strings.TrimSpace(title)
	var builder strings.Builder
	builder.WriteString("Session failed")
	if title != "" {
		builder.WriteString(": ")
		builder.WriteString(title)
	}
	if err != nil {
		builder.WriteString("\n")
		builder.WriteString(strings.TrimSpace(err.Error()))
	}
	data := payload{
		title:    "Burnish - Error",
		message:  builder.String(),
		tags:     []string{"burnish", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Burnish - Test",
		message:  "Notification system test",
		tags:     []string{"burnish", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifySessionCompleted(context.Context, string, int, int) error { return nil }
func (noopService) NotifySessionDegraded(context.Context, string, int) error       { return nil }
func (noopService) NotifySessionFailed(context.Context, string, error) error       { return nil }
func (noopService) TestNotification(context.Context) error                         { return nil }
