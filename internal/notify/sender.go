package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yoframe/yo-pipeline/internal/domain/jobs"
)

var (
	// ErrRateLimited reports that the push endpoint accepted the batch
	// but rejected some tokens for rate limiting. Retrying redelivers
	// only to those tokens' users via the normal retry policy.
	ErrRateLimited = errors.New("push endpoint rate limited some tokens")

	// ErrMalformedResponse reports a 200 whose body does not carry the
	// expected result envelope.
	ErrMalformedResponse = errors.New("push endpoint returned malformed response")
)

// Sender delivers one bulk push to a client-provided endpoint.
type Sender interface {
	Send(ctx context.Context, job jobs.NotificationsBulk) error
}

// PushSender posts bulk notifications to per-client webhook endpoints.
type PushSender struct {
	c *http.Client
}

func NewPushSender(timeout time.Duration) *PushSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PushSender{c: &http.Client{Timeout: timeout}}
}

type pushRequest struct {
	NotificationID string   `json:"notificationId"`
	Title          string   `json:"title"`
	Body           string   `json:"body"`
	TargetURL      string   `json:"targetUrl"`
	Tokens         []string `json:"tokens"`
}

// RateLimitedTokens is a pointer so a result object missing the field
// is distinguishable from an empty list and rejected as malformed.
type pushResponse struct {
	Result *struct {
		RateLimitedTokens *[]string `json:"rateLimitedTokens"`
	} `json:"result"`
}

func (s *PushSender) Send(ctx context.Context, job jobs.NotificationsBulk) error {
	tokens := make([]string, len(job.Notifications))
	for i, r := range job.Notifications {
		tokens[i] = r.Token
	}

	body, err := json.Marshal(pushRequest{
		NotificationID: job.NotificationID,
		Title:          job.Title,
		Body:           job.Body,
		TargetURL:      job.TargetURL,
		Tokens:         tokens,
	})
	if err != nil {
		return fmt.Errorf("marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.c.Do(req)
	if err != nil {
		return fmt.Errorf("push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var pr pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil || pr.Result == nil || pr.Result.RateLimitedTokens == nil {
		return ErrMalformedResponse
	}
	if n := len(*pr.Result.RateLimitedTokens); n > 0 {
		return fmt.Errorf("%w: %d of %d", ErrRateLimited, n, len(tokens))
	}
	return nil
}
