// Package notify delivers alert messages through the Telegram Bot API.
// Every failure mode is converted to a boolean plus a logged diagnostic;
// nothing raises past the dispatcher boundary.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// Dispatcher sends one message to one chat and reports whether the remote
// endpoint accepted it.
type Dispatcher interface {
	Send(ctx context.Context, chatID, text string) bool
}

const defaultBaseURL = "https://api.telegram.org"

// Options tune the retry behavior of a TelegramSender. Zero values fall
// back to the defaults noted per field.
type Options struct {
	MaxAttempts    int           // total attempts per Send; default 5
	AttemptTimeout time.Duration // per-attempt timeout; default 25s
	BackoffBase    time.Duration // first backoff delay; default 400ms
	BackoffMax     time.Duration // backoff cap; default 4s
	JitterMax      time.Duration // random jitter added per backoff; default 200ms, negative disables
	Verbose        bool          // log intermediate attempt failures at warn
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 5
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = 25 * time.Second
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = 400 * time.Millisecond
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 4 * time.Second
	}
	if o.JitterMax == 0 {
		o.JitterMax = 200 * time.Millisecond
	} else if o.JitterMax < 0 {
		o.JitterMax = 0
	}
	return o
}

// TelegramSender posts messages to the Telegram sendMessage endpoint with
// bounded retries. Attempts for one recipient are strictly sequential.
type TelegramSender struct {
	token   string
	opts    Options
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewTelegramSender creates a sender for the given bot token. The
// per-attempt timeout is enforced through the request context, so the
// underlying client carries no timeout of its own.
func NewTelegramSender(token string, opts Options, logger *slog.Logger) *TelegramSender {
	return &TelegramSender{
		token:   strings.TrimSpace(token),
		opts:    opts.withDefaults(),
		baseURL: defaultBaseURL,
		client:  &http.Client{},
		logger:  logger.With(slog.String("component", "telegram")),
	}
}

// sendState drives the retry loop. Transitions: attempting → succeeded,
// attempting → failed (rejection or attempts exhausted), attempting →
// backoff → attempting (transport failure with attempts left).
type sendState int

const (
	stateAttempting sendState = iota
	stateBackoff
	stateSucceeded
	stateFailed
)

// Send delivers one message to one chat. It returns true when the endpoint
// accepted the message with a 2xx status. Non-2xx responses are definitive
// rejections (bad credential, invalid recipient, blocked bot) and are never
// retried; only transport-level failures are, with exponential backoff.
func (t *TelegramSender) Send(ctx context.Context, chatID, text string) bool {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)

	payload, err := json.Marshal(map[string]string{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		t.logger.Error("marshal telegram payload", slog.String("error", err.Error()))
		return false
	}

	state := stateAttempting
	attempt := 0
	var delay time.Duration

	for {
		switch state {
		case stateAttempting:
			attempt++
			rejected, err := t.attempt(ctx, url, payload)
			switch {
			case err == nil:
				state = stateSucceeded
			case rejected:
				// One diagnostic, no retry.
				t.logger.Error("telegram rejected message",
					slog.String("chat_id", chatID),
					slog.String("error", err.Error()),
				)
				state = stateFailed
			case attempt >= t.opts.MaxAttempts:
				t.logger.Error("telegram send failed after retries",
					slog.String("chat_id", chatID),
					slog.Int("attempts", attempt),
					slog.String("error", err.Error()),
				)
				state = stateFailed
			default:
				delay = t.backoff(attempt)
				if t.opts.Verbose {
					t.logger.Warn("telegram send attempt failed, backing off",
						slog.String("chat_id", chatID),
						slog.Int("attempt", attempt),
						slog.Duration("delay", delay),
						slog.String("error", err.Error()),
					)
				}
				state = stateBackoff
			}

		case stateBackoff:
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
				state = stateAttempting
			case <-ctx.Done():
				timer.Stop()
				t.logger.Error("telegram send abandoned",
					slog.String("chat_id", chatID),
					slog.String("error", ctx.Err().Error()),
				)
				state = stateFailed
			}

		case stateSucceeded:
			return true

		case stateFailed:
			return false
		}
	}
}

// attempt performs a single POST. rejected is true when the endpoint
// answered with a non-2xx status, which callers must treat as final.
func (t *TelegramSender) attempt(ctx context.Context, url string, payload []byte) (rejected bool, err error) {
	actx, cancel := context.WithTimeout(ctx, t.opts.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return true, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return false, nil
}

// backoff returns the delay before the next attempt: exponential in the
// number of completed attempts, capped, plus random jitter so concurrently
// alerting processes do not retry in lockstep.
func (t *TelegramSender) backoff(completed int) time.Duration {
	d := t.opts.BackoffBase << (completed - 1)
	if d > t.opts.BackoffMax || d <= 0 {
		d = t.opts.BackoffMax
	}
	if t.opts.JitterMax > 0 {
		d += time.Duration(rand.Int63n(int64(t.opts.JitterMax)))
	}
	return d
}
