package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yoframe/yo-pipeline/internal/domain/jobs"
	"github.com/yoframe/yo-pipeline/internal/domain/user"
	"github.com/yoframe/yo-pipeline/internal/queue"
)

// Content is what every recipient of one fan-out receives.
type Content struct {
	Title          string
	Body           string
	TargetURL      string
	NotificationID string
}

// Notify fans a notification out to the given users: recipients are
// grouped by delivery endpoint, each group is chunked to the per-call
// token ceiling, and each chunk becomes one queued bulk job. Users
// without notification details are skipped.
func Notify(ctx context.Context, q queue.Jobs, users []user.User, content Content) error {
	byURL := make(map[string][]jobs.Recipient)
	for _, u := range users {
		if !u.CanNotify() {
			continue
		}
		byURL[*u.NotificationURL] = append(byURL[*u.NotificationURL], jobs.Recipient{
			FID:   u.FID,
			Token: *u.NotificationToken,
		})
	}

	for url, recipients := range byURL {
		for start := 0; start < len(recipients); start += jobs.MaxRecipientsPerJob {
			end := start + jobs.MaxRecipientsPerJob
			if end > len(recipients) {
				end = len(recipients)
			}
			job := jobs.NotificationsBulk{
				Notifications:  recipients[start:end],
				URL:            url,
				Title:          content.Title,
				Body:           content.Body,
				TargetURL:      content.TargetURL,
				NotificationID: content.NotificationID,
			}
			payload, err := json.Marshal(job)
			if err != nil {
				return fmt.Errorf("marshal bulk job: %w", err)
			}
			if err := q.Enqueue(ctx, "", payload); err != nil {
				return fmt.Errorf("enqueue bulk job: %w", err)
			}
		}
	}
	return nil
}
