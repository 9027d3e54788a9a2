package settings

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yoframe/yo-pipeline/internal/domain/user"
)

// Service applies notification-preference changes coming from the
// client webhook: enabling or disabling push delivery and switching
// the delivery cadence.
type Service struct {
	users user.Repo
	log   *zap.Logger
}

func NewService(users user.Repo, log *zap.Logger) *Service {
	if log == nil {
		log = zap.L()
	}
	return &Service{users: users, log: log.With(zap.String("component", "settings"))}
}

// EnableNotifications stores the user's push endpoint, creating the
// user row if the fid is new.
func (s *Service) EnableNotifications(ctx context.Context, fid int64, url, token string) error {
	if url == "" || token == "" {
		return fmt.Errorf("enable notifications for fid %d: url and token required", fid)
	}
	if _, err := s.users.UpsertByFID(ctx, fid); err != nil {
		return fmt.Errorf("upsert fid %d: %w", fid, err)
	}
	if err := s.users.SetNotificationDetails(ctx, fid, url, token); err != nil {
		return fmt.Errorf("set notification details for fid %d: %w", fid, err)
	}
	s.log.Info("notifications enabled", zap.Int64("fid", fid))
	return nil
}

// DisableNotifications drops the user's push endpoint. Unknown fids
// are a no-op.
func (s *Service) DisableNotifications(ctx context.Context, fid int64) error {
	if err := s.users.ClearNotificationDetails(ctx, fid); err != nil {
		return fmt.Errorf("clear notification details for fid %d: %w", fid, err)
	}
	s.log.Info("notifications disabled", zap.Int64("fid", fid))
	return nil
}

// SetDeliveryMode switches between immediate and digest delivery.
func (s *Service) SetDeliveryMode(ctx context.Context, fid int64, mode user.DeliveryMode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid delivery mode %q", mode)
	}
	if err := s.users.SetDeliveryMode(ctx, fid, mode); err != nil {
		return fmt.Errorf("set delivery mode for fid %d: %w", fid, err)
	}
	s.log.Info("delivery mode changed", zap.Int64("fid", fid), zap.String("mode", string(mode)))
	return nil
}
