package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yoframe/yo-pipeline/internal/domain/user"
)

type memUserRepo struct {
	users map[int64]*user.User
}

func (r *memUserRepo) GetByFID(ctx context.Context, fid int64) (*user.User, error) {
	return r.users[fid], nil
}

func (r *memUserRepo) UpsertByFID(ctx context.Context, fid int64) (*user.User, error) {
	if u, ok := r.users[fid]; ok {
		return u, nil
	}
	u := &user.User{ID: "u", FID: fid, DeliveryMode: user.ModeAll}
	r.users[fid] = u
	return u, nil
}

func (r *memUserRepo) SetNotificationDetails(ctx context.Context, fid int64, url, token string) error {
	u, _ := r.UpsertByFID(ctx, fid)
	u.NotificationURL, u.NotificationToken = &url, &token
	return nil
}

func (r *memUserRepo) ClearNotificationDetails(ctx context.Context, fid int64) error {
	if u, ok := r.users[fid]; ok {
		u.NotificationURL, u.NotificationToken = nil, nil
	}
	return nil
}

func (r *memUserRepo) SetDeliveryMode(ctx context.Context, fid int64, mode user.DeliveryMode) error {
	u, ok := r.users[fid]
	if !ok {
		return nil
	}
	u.DeliveryMode = mode
	return nil
}

func (r *memUserRepo) ListDigestSubscribers(ctx context.Context, mode user.DeliveryMode) ([]*user.User, error) {
	return nil, nil
}

func TestService(t *testing.T) {
	ctx := context.Background()

	t.Run("enable creates the user and stores the endpoint", func(t *testing.T) {
		repo := &memUserRepo{users: map[int64]*user.User{}}
		svc := NewService(repo, zap.NewNop())

		require.NoError(t, svc.EnableNotifications(ctx, 100, "https://push.example.com", "tok"))
		u := repo.users[100]
		require.NotNil(t, u)
		assert.True(t, u.CanNotify())
	})

	t.Run("enable rejects missing endpoint fields", func(t *testing.T) {
		svc := NewService(&memUserRepo{users: map[int64]*user.User{}}, zap.NewNop())
		assert.Error(t, svc.EnableNotifications(ctx, 100, "", "tok"))
		assert.Error(t, svc.EnableNotifications(ctx, 100, "https://push.example.com", ""))
	})

	t.Run("disable clears the endpoint", func(t *testing.T) {
		repo := &memUserRepo{users: map[int64]*user.User{}}
		svc := NewService(repo, zap.NewNop())
		require.NoError(t, svc.EnableNotifications(ctx, 100, "https://push.example.com", "tok"))

		require.NoError(t, svc.DisableNotifications(ctx, 100))
		assert.False(t, repo.users[100].CanNotify())
	})

	t.Run("disable for an unknown fid is a no-op", func(t *testing.T) {
		svc := NewService(&memUserRepo{users: map[int64]*user.User{}}, zap.NewNop())
		assert.NoError(t, svc.DisableNotifications(ctx, 999))
	})

	t.Run("set delivery mode validates the mode", func(t *testing.T) {
		repo := &memUserRepo{users: map[int64]*user.User{}}
		svc := NewService(repo, zap.NewNop())
		require.NoError(t, svc.EnableNotifications(ctx, 100, "https://push.example.com", "tok"))

		require.NoError(t, svc.SetDeliveryMode(ctx, 100, user.ModeHourly))
		assert.Equal(t, user.ModeHourly, repo.users[100].DeliveryMode)

		assert.Error(t, svc.SetDeliveryMode(ctx, 100, user.DeliveryMode("weekly")))
	})
}
