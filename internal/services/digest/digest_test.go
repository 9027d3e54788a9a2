package digest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yoframe/yo-pipeline/internal/domain/identity"
	"github.com/yoframe/yo-pipeline/internal/domain/jobs"
	"github.com/yoframe/yo-pipeline/internal/domain/message"
	"github.com/yoframe/yo-pipeline/internal/domain/user"
)

type fakeUserRepo struct {
	subscribers []*user.User
}

func (r *fakeUserRepo) GetByFID(ctx context.Context, fid int64) (*user.User, error) { return nil, nil }

func (r *fakeUserRepo) UpsertByFID(ctx context.Context, fid int64) (*user.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) SetNotificationDetails(ctx context.Context, fid int64, url, token string) error {
	return nil
}

func (r *fakeUserRepo) ClearNotificationDetails(ctx context.Context, fid int64) error { return nil }

func (r *fakeUserRepo) SetDeliveryMode(ctx context.Context, fid int64, mode user.DeliveryMode) error {
	return nil
}

func (r *fakeUserRepo) ListDigestSubscribers(ctx context.Context, mode user.DeliveryMode) ([]*user.User, error) {
	var out []*user.User
	for _, u := range r.subscribers {
		if u.DeliveryMode == mode {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeMessageRepo struct {
	inbound map[string][]message.Inbound
	failFor map[string]error
}

func (r *fakeMessageRepo) Insert(ctx context.Context, m *message.Message) error { return nil }

func (r *fakeMessageRepo) LastSentAt(ctx context.Context, from, to string) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

func (r *fakeMessageRepo) InboundForDigest(ctx context.Context, userID string, lookback time.Duration) ([]message.Inbound, error) {
	if err := r.failFor[userID]; err != nil {
		return nil, err
	}
	return r.inbound[userID], nil
}

type fakeResolver struct {
	byFID map[int64]identity.Identity
}

func (r *fakeResolver) ResolveFIDs(ctx context.Context, fids []int64) ([]identity.Identity, error) {
	var out []identity.Identity
	for _, fid := range fids {
		if id, ok := r.byFID[fid]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

type captureQueue struct {
	payloads [][]byte
}

func (q *captureQueue) Enqueue(ctx context.Context, jobID string, payload []byte) error {
	q.payloads = append(q.payloads, payload)
	return nil
}

func strPtr(s string) *string { return &s }

func hourlyUser(id string, fid int64) *user.User {
	return &user.User{
		ID: id, FID: fid,
		NotificationURL:   strPtr("https://push.example.com"),
		NotificationToken: strPtr("tok-" + id),
		DeliveryMode:      user.ModeHourly,
	}
}

func inboundFrom(fids ...int64) []message.Inbound {
	out := make([]message.Inbound, len(fids))
	now := time.Now()
	for i, fid := range fids {
		out[i] = message.Inbound{
			ID:        "m" + string(rune('a'+i)),
			SenderFID: fid,
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	alice := identity.Identity{FID: 100, Username: "alice"}

	run := func(t *testing.T, users *fakeUserRepo, msgs *fakeMessageRepo, res *fakeResolver) *captureQueue {
		t.Helper()
		q := &captureQueue{}
		svc := NewService(users, msgs, res, q, "https://yo.example.com", zap.NewNop())
		require.NoError(t, svc.RunOnce(ctx, user.ModeHourly, time.Hour))
		return q
	}

	decode := func(t *testing.T, p []byte) jobs.NotificationsBulk {
		t.Helper()
		var b jobs.NotificationsBulk
		require.NoError(t, json.Unmarshal(p, &b))
		return b
	}

	t.Run("no inbound means no push", func(t *testing.T) {
		q := run(t,
			&fakeUserRepo{subscribers: []*user.User{hourlyUser("u1", 1)}},
			&fakeMessageRepo{inbound: map[string][]message.Inbound{}},
			&fakeResolver{})
		assert.Empty(t, q.payloads)
	})

	t.Run("single sender names them", func(t *testing.T) {
		q := run(t,
			&fakeUserRepo{subscribers: []*user.User{hourlyUser("u1", 1)}},
			&fakeMessageRepo{inbound: map[string][]message.Inbound{"u1": inboundFrom(100, 100)}},
			&fakeResolver{byFID: map[int64]identity.Identity{100: alice}})

		require.Len(t, q.payloads, 1)
		b := decode(t, q.payloads[0])
		assert.Equal(t, Title, b.Title)
		assert.Equal(t, "from alice", b.Body)
		assert.Equal(t, "ma", b.NotificationID, "newest inbound message id")
	})

	t.Run("two senders", func(t *testing.T) {
		q := run(t,
			&fakeUserRepo{subscribers: []*user.User{hourlyUser("u1", 1)}},
			&fakeMessageRepo{inbound: map[string][]message.Inbound{"u1": inboundFrom(100, 200)}},
			&fakeResolver{byFID: map[int64]identity.Identity{100: alice}})

		require.Len(t, q.payloads, 1)
		assert.Equal(t, "from alice and 1 other", decode(t, q.payloads[0]).Body)
	})

	t.Run("many senders pluralize", func(t *testing.T) {
		q := run(t,
			&fakeUserRepo{subscribers: []*user.User{hourlyUser("u1", 1)}},
			&fakeMessageRepo{inbound: map[string][]message.Inbound{"u1": inboundFrom(100, 200, 300, 400)}},
			&fakeResolver{byFID: map[int64]identity.Identity{100: alice}})

		require.Len(t, q.payloads, 1)
		assert.Equal(t, "from alice and 3 others", decode(t, q.payloads[0]).Body)
	})

	t.Run("unresolvable sender falls back to fid", func(t *testing.T) {
		q := run(t,
			&fakeUserRepo{subscribers: []*user.User{hourlyUser("u1", 1)}},
			&fakeMessageRepo{inbound: map[string][]message.Inbound{"u1": inboundFrom(777)}},
			&fakeResolver{})

		require.Len(t, q.payloads, 1)
		assert.Equal(t, "from !777", decode(t, q.payloads[0]).Body)
	})

	t.Run("one failing subscriber does not block the rest", func(t *testing.T) {
		q := run(t,
			&fakeUserRepo{subscribers: []*user.User{hourlyUser("u1", 1), hourlyUser("u2", 2)}},
			&fakeMessageRepo{
				inbound: map[string][]message.Inbound{"u2": inboundFrom(100)},
				failFor: map[string]error{"u1": errors.New("db down")},
			},
			&fakeResolver{byFID: map[int64]identity.Identity{100: alice}})

		require.Len(t, q.payloads, 1)
		tok := decode(t, q.payloads[0]).Notifications[0].Token
		assert.Equal(t, "tok-u2", tok)
	})

	t.Run("only the requested mode runs", func(t *testing.T) {
		semi := hourlyUser("u1", 1)
		semi.DeliveryMode = user.ModeSemiDaily
		q := run(t,
			&fakeUserRepo{subscribers: []*user.User{semi}},
			&fakeMessageRepo{inbound: map[string][]message.Inbound{"u1": inboundFrom(100)}},
			&fakeResolver{byFID: map[int64]identity.Identity{100: alice}})
		assert.Empty(t, q.payloads)
	})
}
