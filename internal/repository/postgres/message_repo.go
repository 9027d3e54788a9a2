package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yoframe/yo-pipeline/internal/domain/message"
)

var _ message.Repo = (*MessageRepo)(nil)

type MessageRepo struct {
	db *DB
}

func NewMessageRepo(db *DB) *MessageRepo { return &MessageRepo{db: db} }

const (
	// transaction_hash carries a partial unique index (NULLs exempt),
	// so a replayed onchain job conflicts instead of duplicating. The
	// conflict target must repeat the index predicate or the planner
	// will not match the partial index as an arbiter.
	qMessageInsert = `
INSERT INTO messages (from_user_id, to_user_id, message, is_onchain, transaction_hash)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (transaction_hash) WHERE transaction_hash IS NOT NULL DO NOTHING
RETURNING id, created_at;`

	qMessageLastSent = `
SELECT created_at
FROM messages
WHERE from_user_id = $1 AND to_user_id = $2
ORDER BY created_at DESC
LIMIT 1;`

	// Inbound messages for a digest: received within the lookback
	// window and newer than the recipient's own latest outbound
	// message, newest first.
	qMessageInboundDigest = `
SELECT m.id, f.fid, m.created_at
FROM messages m
JOIN users f ON m.from_user_id = f.id
WHERE m.to_user_id = $1
  AND m.created_at > NOW() - $2::interval
  AND m.created_at > COALESCE(
        (SELECT MAX(created_at) FROM messages WHERE from_user_id = $1),
        '-infinity'::timestamptz)
ORDER BY m.created_at DESC;`
)

func (r *MessageRepo) Insert(ctx context.Context, m *message.Message) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.execQueryer(ctx).QueryRow(ctx, qMessageInsert,
		m.FromUserID, m.ToUserID, m.Body, m.IsOnchain, m.TransactionHash)
	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepo) LastSentAt(ctx context.Context, fromUserID, toUserID string) (time.Time, bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var t time.Time
	err := r.db.execQueryer(ctx).QueryRow(ctx, qMessageLastSent, fromUserID, toUserID).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("last sent: %w", err)
	}
	return t, true, nil
}

func (r *MessageRepo) InboundForDigest(ctx context.Context, userID string, lookback time.Duration) ([]message.Inbound, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	interval := fmt.Sprintf("%f seconds", lookback.Seconds())
	rows, err := r.db.execQueryer(ctx).Query(ctx, qMessageInboundDigest, userID, interval)
	if err != nil {
		return nil, fmt.Errorf("query inbound: %w", err)
	}
	defer rows.Close()

	var out []message.Inbound
	for rows.Next() {
		var m message.Inbound
		if err := rows.Scan(&m.ID, &m.SenderFID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan inbound: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
