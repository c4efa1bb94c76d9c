package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

const ntfyUserAgent = "autounzip/1"

// LogNotifier writes notifications to the log. It is always part of the
// notification chain so headless runs keep a record of every message.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier backed by logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the message.
func (n *LogNotifier) Notify(ctx context.Context, title, body string) error {
	n.logger.Info("notification", zap.String("title", title), zap.String("body", body))
	return nil
}

// NtfyNotifier pushes notifications to an ntfy topic URL.
type NtfyNotifier struct {
	endpoint string
	client   *http.Client
}

// NewNtfyNotifier returns nil when topic is empty.
func NewNtfyNotifier(topic string, timeout time.Duration) *NtfyNotifier {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NtfyNotifier{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Notify posts body with title and tag headers.
func (n *NtfyNotifier) Notify(ctx context.Context, title, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", ntfyUserAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if title != "" {
		req.Header.Set("Title", title)
	}
	req.Header.Set("Tags", ntfyTags(title))

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func ntfyTags(title string) string {
	switch {
	case strings.HasSuffix(title, "Error"):
		return "autounzip,warning"
	case strings.HasSuffix(title, "Success"):
		return "autounzip,package"
	default:
		return "autounzip"
	}
}

// MultiNotifier fans a message out to every sink. One failing sink does
// not stop the rest.
type MultiNotifier struct {
	sinks []domain.Notifier
}

// NewMultiNotifier skips nil sinks.
func NewMultiNotifier(sinks ...domain.Notifier) *MultiNotifier {
	m := &MultiNotifier{}
	for _, s := range sinks {
		if s == nil {
			continue
		}
		if n, ok := s.(*NtfyNotifier); ok && n == nil {
			continue
		}
		m.sinks = append(m.sinks, s)
	}
	return m
}

// Notify sends to all sinks and joins their errors.
func (m *MultiNotifier) Notify(ctx context.Context, title, body string) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Notify(ctx, title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ensure all notifiers implement domain.Notifier.
var (
	_ domain.Notifier = (*LogNotifier)(nil)
	_ domain.Notifier = (*NtfyNotifier)(nil)
	_ domain.Notifier = (*MultiNotifier)(nil)
)
