package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/yoframe/yo-pipeline/internal/domain/identity"
	"github.com/yoframe/yo-pipeline/internal/domain/message"
	"github.com/yoframe/yo-pipeline/internal/domain/user"
	"github.com/yoframe/yo-pipeline/internal/notify"
	"github.com/yoframe/yo-pipeline/internal/queue"
)

// Title is the push title for digest notifications.
const Title = "yo"

// FIDResolver names senders for digest copy.
type FIDResolver interface {
	ResolveFIDs(ctx context.Context, fids []int64) ([]identity.Identity, error)
}

var (
	usersProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digest_users_processed_total", Help: "Digest subscribers examined per run.",
	}, []string{"mode"})
	digestsQueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digest_notifications_total", Help: "Digest notifications enqueued.",
	}, []string{"mode"})
	userErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digest_user_errors_total", Help: "Subscribers skipped because of an error.",
	}, []string{"mode"})
)

// Service batches a user's unread inbound messages into one push.
type Service struct {
	users    user.Repo
	messages message.Repo
	resolver FIDResolver
	jobs     queue.Jobs
	appURL   string
	log      *zap.Logger
}

func NewService(users user.Repo, messages message.Repo, resolver FIDResolver, jobs queue.Jobs, appURL string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.L()
	}
	return &Service{
		users:    users,
		messages: messages,
		resolver: resolver,
		jobs:     jobs,
		appURL:   appURL,
		log:      log.With(zap.String("component", "digest")),
	}
}

// RunOnce digests every subscriber of the given mode. One subscriber
// failing never blocks the rest: errors are logged per user and the
// run continues.
func (s *Service) RunOnce(ctx context.Context, mode user.DeliveryMode, lookback time.Duration) error {
	subscribers, err := s.users.ListDigestSubscribers(ctx, mode)
	if err != nil {
		return fmt.Errorf("list %s subscribers: %w", mode, err)
	}
	s.log.Info("digest run", zap.String("mode", string(mode)), zap.Int("subscribers", len(subscribers)))

	for _, u := range subscribers {
		usersProcessed.WithLabelValues(string(mode)).Inc()
		if err := s.digestUser(ctx, u, lookback); err != nil {
			userErrors.WithLabelValues(string(mode)).Inc()
			s.log.Error("digest user failed",
				zap.Int64("fid", u.FID), zap.String("mode", string(mode)), zap.Error(err))
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (s *Service) digestUser(ctx context.Context, u *user.User, lookback time.Duration) error {
	inbound, err := s.messages.InboundForDigest(ctx, u.ID, lookback)
	if err != nil {
		return fmt.Errorf("inbound lookup: %w", err)
	}
	if len(inbound) == 0 {
		return nil
	}

	body, err := s.digestBody(ctx, inbound)
	if err != nil {
		return err
	}

	content := notify.Content{
		Title:          Title,
		Body:           body,
		TargetURL:      s.appURL,
		NotificationID: inbound[0].ID,
	}
	if err := notify.Notify(ctx, s.jobs, []user.User{*u}, content); err != nil {
		return err
	}
	digestsQueued.WithLabelValues(string(u.DeliveryMode)).Inc()
	return nil
}

// digestBody names the most recent distinct sender and counts the
// rest: "from alice", "from alice and 1 other", "from alice and
// 3 others".
func (s *Service) digestBody(ctx context.Context, inbound []message.Inbound) (string, error) {
	// inbound is newest first; keep first occurrence order
	var senders []int64
	seen := make(map[int64]struct{})
	for _, m := range inbound {
		if _, dup := seen[m.SenderFID]; dup {
			continue
		}
		seen[m.SenderFID] = struct{}{}
		senders = append(senders, m.SenderFID)
	}

	name := fmt.Sprintf("!%d", senders[0])
	ids, err := s.resolver.ResolveFIDs(ctx, senders[:1])
	if err != nil {
		return "", fmt.Errorf("resolve sender: %w", err)
	}
	if len(ids) > 0 && ids[0].Username != "" {
		name = ids[0].Username
	}

	switch rest := len(senders) - 1; {
	case rest == 0:
		return "from " + name, nil
	case rest == 1:
		return fmt.Sprintf("from %s and 1 other", name), nil
	default:
		return fmt.Sprintf("from %s and %d others", name, rest), nil
	}
}
