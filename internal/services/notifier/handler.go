package notifier

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yoframe/yo-pipeline/internal/domain/jobs"
	"github.com/yoframe/yo-pipeline/internal/notify"
	"github.com/yoframe/yo-pipeline/internal/queue"
)

// Handler delivers one bulk-notification job to its push endpoint.
// Delivery failures, including partial rate limiting, are transient:
// the retry policy redrives the whole chunk.
type Handler struct {
	sender notify.Sender
	log    *zap.Logger
}

func NewHandler(sender notify.Sender, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.L()
	}
	return &Handler{sender: sender, log: log.With(zap.String("component", "notifier"))}
}

func (h *Handler) Handle(ctx context.Context, jobID string, job jobs.NotificationsBulk) (queue.Result, error) {
	if job.NotificationID == "" {
		job.NotificationID = uuid.NewString()
	}

	if err := h.sender.Send(ctx, job); err != nil {
		return queue.Result{}, fmt.Errorf("send bulk push: %w", err)
	}

	h.log.Debug("bulk push delivered",
		zap.String("job_id", jobID),
		zap.Int("recipients", len(job.Notifications)))
	return queue.OK(), nil
}
