package obs

import (
	"time"

	"github.com/getsentry/sentry-go"
)

type SentryConfig struct {
	DSN     string
	Env     string
	Release string
}

// SetupSentry initializes the error tracker. An empty DSN disables it;
// capture calls become no-ops.
func SetupSentry(c SentryConfig) error {
	if c.DSN == "" {
		return nil
	}
	return sentry.Init(sentry.ClientOptions{
		Dsn:         c.DSN,
		Environment: c.Env,
		Release:     c.Release,
	})
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

// CaptureJobError reports a job that exhausted its retries, with the
// job identity and raw payload attached for inspection.
func CaptureJobError(queue, jobID string, payload []byte, err error) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("queue", queue)
		scope.SetTag("job_id", jobID)
		scope.SetContext("job", map[string]interface{}{
			"id":      jobID,
			"queue":   queue,
			"payload": string(payload),
		})
		sentry.CaptureException(err)
	})
}
