package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoframe/yo-pipeline/internal/domain/jobs"
	"github.com/yoframe/yo-pipeline/internal/domain/user"
)

type captureQueue struct {
	payloads [][]byte
}

func (q *captureQueue) Enqueue(ctx context.Context, jobID string, payload []byte) error {
	q.payloads = append(q.payloads, payload)
	return nil
}

func (q *captureQueue) jobs(t *testing.T) []jobs.NotificationsBulk {
	t.Helper()
	out := make([]jobs.NotificationsBulk, len(q.payloads))
	for i, p := range q.payloads {
		require.NoError(t, json.Unmarshal(p, &out[i]))
	}
	return out
}

func subscriber(fid int64, url string) user.User {
	token := fmt.Sprintf("tok-%d", fid)
	return user.User{FID: fid, NotificationURL: &url, NotificationToken: &token}
}

func TestNotify(t *testing.T) {
	content := Content{Title: "yo", Body: "from alice", TargetURL: "https://yo.example.com"}

	t.Run("groups recipients by endpoint", func(t *testing.T) {
		q := &captureQueue{}
		users := []user.User{
			subscriber(1, "https://a.example.com"),
			subscriber(2, "https://b.example.com"),
			subscriber(3, "https://a.example.com"),
		}
		require.NoError(t, Notify(context.Background(), q, users, content))

		batches := q.jobs(t)
		require.Len(t, batches, 2)
		sizes := map[string]int{}
		for _, b := range batches {
			sizes[b.URL] = len(b.Notifications)
			assert.Equal(t, "yo", b.Title)
			assert.NoError(t, b.Validate())
		}
		assert.Equal(t, map[string]int{"https://a.example.com": 2, "https://b.example.com": 1}, sizes)
	})

	t.Run("chunks one endpoint into ceil(n/100) jobs", func(t *testing.T) {
		q := &captureQueue{}
		var users []user.User
		for i := 0; i < 250; i++ {
			users = append(users, subscriber(int64(i+1), "https://a.example.com"))
		}
		require.NoError(t, Notify(context.Background(), q, users, content))

		batches := q.jobs(t)
		require.Len(t, batches, 3)
		total := 0
		for _, b := range batches {
			assert.LessOrEqual(t, len(b.Notifications), jobs.MaxRecipientsPerJob)
			total += len(b.Notifications)
		}
		assert.Equal(t, 250, total)
	})

	t.Run("skips users without push details", func(t *testing.T) {
		q := &captureQueue{}
		users := []user.User{
			{FID: 1},
			subscriber(2, "https://a.example.com"),
		}
		require.NoError(t, Notify(context.Background(), q, users, content))

		batches := q.jobs(t)
		require.Len(t, batches, 1)
		require.Len(t, batches[0].Notifications, 1)
		assert.Equal(t, int64(2), batches[0].Notifications[0].FID)
	})

	t.Run("no subscribers means no jobs", func(t *testing.T) {
		q := &captureQueue{}
		require.NoError(t, Notify(context.Background(), q, []user.User{{FID: 1}}, content))
		assert.Empty(t, q.payloads)
	})
}
