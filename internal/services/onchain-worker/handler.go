package onchain_worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yoframe/yo-pipeline/internal/domain/identity"
	"github.com/yoframe/yo-pipeline/internal/domain/jobs"
	"github.com/yoframe/yo-pipeline/internal/domain/message"
	"github.com/yoframe/yo-pipeline/internal/domain/outbox"
	"github.com/yoframe/yo-pipeline/internal/domain/user"
	idresolve "github.com/yoframe/yo-pipeline/internal/identity"
	"github.com/yoframe/yo-pipeline/internal/queue"
	"github.com/yoframe/yo-pipeline/internal/repository/postgres"
)

// NotificationTitle is the push title for individual onchain messages.
const NotificationTitle = "super yo ★"

// DefaultCooldown is the minimum gap between two messages from the
// same sender to the same counterpart.
const DefaultCooldown = 24 * time.Hour

// rejection aborts the surrounding transaction and surfaces as a
// terminal queue result instead of an error.
type rejection struct{ reason string }

func (r rejection) Error() string { return r.reason }

// Handler processes one decoded transfer event: attribute both wallet
// addresses to Farcaster accounts, enforce the cooldown, persist the
// message, and queue the recipient's push through the outbox. The
// whole persistence step runs in one transaction under a pair lock,
// so concurrent transfers between the same two users serialize.
type Handler struct {
	resolver identity.Resolver
	users    user.Repo
	messages message.Repo
	outbox   outbox.Repository
	tx       postgres.Transactor
	locker   postgres.PairLocker

	cooldown time.Duration
	appURL   string
	log      *zap.Logger
}

func NewHandler(
	resolver identity.Resolver,
	users user.Repo,
	messages message.Repo,
	ob outbox.Repository,
	tx postgres.Transactor,
	locker postgres.PairLocker,
	cooldown time.Duration,
	appURL string,
	log *zap.Logger,
) *Handler {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if log == nil {
		log = zap.L()
	}
	return &Handler{
		resolver: resolver,
		users:    users,
		messages: messages,
		outbox:   ob,
		tx:       tx,
		locker:   locker,
		cooldown: cooldown,
		appURL:   appURL,
		log:      log.With(zap.String("component", "onchain-worker")),
	}
}

func (h *Handler) Handle(ctx context.Context, jobID string, job jobs.OnchainMessage) (queue.Result, error) {
	fromAddr := idresolve.Checksum(job.FromAddress)
	toAddr := idresolve.Checksum(job.ToAddress)

	resolved, err := h.resolver.ResolveAddresses(ctx, []string{fromAddr, toAddr})
	if err != nil {
		return queue.Result{}, fmt.Errorf("resolve addresses: %w", err)
	}

	hint, _ := identity.DecodeHint(job.Data)

	sender, ok := identity.Pick(resolved[fromAddr], hint.FromFID)
	if !ok {
		return queue.Rejected("no farcaster account for sender address"), nil
	}
	recipient, ok := identity.Pick(resolved[toAddr], hint.ToFID)
	if !ok {
		return queue.Rejected("no farcaster account for recipient address"), nil
	}

	err = h.tx.WithTx(ctx, func(ctx context.Context) error {
		fromUser, err := h.users.UpsertByFID(ctx, sender.FID)
		if err != nil {
			return fmt.Errorf("upsert sender: %w", err)
		}
		toUser, err := h.users.UpsertByFID(ctx, recipient.FID)
		if err != nil {
			return fmt.Errorf("upsert recipient: %w", err)
		}

		if err := h.locker.LockPair(ctx, fromUser.ID, toUser.ID); err != nil {
			return err
		}

		last, found, err := h.messages.LastSentAt(ctx, fromUser.ID, toUser.ID)
		if err != nil {
			return fmt.Errorf("cooldown lookup: %w", err)
		}
		if found && time.Since(last) < h.cooldown {
			return rejection{reason: "cooldown active"}
		}

		msg := &message.Message{
			FromUserID:      fromUser.ID,
			ToUserID:        toUser.ID,
			Body:            message.Body,
			IsOnchain:       true,
			TransactionHash: &job.TransactionHash,
		}
		if err := h.messages.Insert(ctx, msg); err != nil {
			if errors.Is(err, postgres.ErrDuplicateTransaction) {
				return rejection{reason: "transaction already processed"}
			}
			return fmt.Errorf("insert message: %w", err)
		}

		if !toUser.CanNotify() {
			return nil
		}

		bulk := jobs.NotificationsBulk{
			Notifications:  []jobs.Recipient{{FID: toUser.FID, Token: *toUser.NotificationToken}},
			URL:            *toUser.NotificationURL,
			Title:          NotificationTitle,
			Body:           "from " + senderName(sender),
			TargetURL:      h.appURL,
			NotificationID: msg.ID,
		}
		payload, err := json.Marshal(bulk)
		if err != nil {
			return fmt.Errorf("marshal notification: %w", err)
		}
		if err := h.outbox.Enqueue(ctx, "notify:"+msg.ID, outbox.KindNotificationsBulk, payload); err != nil {
			return fmt.Errorf("outbox enqueue: %w", err)
		}
		return nil
	})

	var rej rejection
	if errors.As(err, &rej) {
		return queue.Rejected(rej.reason), nil
	}
	if err != nil {
		return queue.Result{}, err
	}

	h.log.Info("onchain message persisted",
		zap.String("job_id", jobID),
		zap.Int64("from_fid", sender.FID),
		zap.Int64("to_fid", recipient.FID))
	return queue.OK(), nil
}

// senderName is how a sender shows up in push copy: username when the
// directory has one, !fid otherwise.
func senderName(id identity.Identity) string {
	if id.Username != "" {
		return id.Username
	}
	return fmt.Sprintf("!%d", id.FID)
}
