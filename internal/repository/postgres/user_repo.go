package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yoframe/yo-pipeline/internal/domain/user"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const (
	qUserColumns = `id, fid, notification_url, notification_token, notification_type, created_at, updated_at`

	qUserByFID = `
SELECT ` + qUserColumns + `
FROM users
WHERE fid = $1;`

	qUserUpsert = `
INSERT INTO users (fid)
VALUES ($1)
ON CONFLICT (fid) DO UPDATE SET updated_at = NOW()
RETURNING ` + qUserColumns + `;`

	qUserSetNotification = `
INSERT INTO users (fid, notification_url, notification_token)
VALUES ($1, $2, $3)
ON CONFLICT (fid) DO UPDATE
SET notification_url   = EXCLUDED.notification_url,
    notification_token = EXCLUDED.notification_token,
    updated_at         = NOW();`

	qUserClearNotification = `
UPDATE users
SET notification_url = NULL, notification_token = NULL, updated_at = NOW()
WHERE fid = $1;`

	qUserSetMode = `
UPDATE users
SET notification_type = $2, updated_at = NOW()
WHERE fid = $1;`

	qUserDigestSubscribers = `
SELECT ` + qUserColumns + `
FROM users
WHERE notification_type = $1
  AND notification_url IS NOT NULL
  AND notification_token IS NOT NULL
ORDER BY fid;`
)

func scanUser(row pgx.Row, u *user.User) error {
	var mode string
	if err := row.Scan(
		&u.ID,
		&u.FID,
		&u.NotificationURL,
		&u.NotificationToken,
		&mode,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan user: %w", err)
	}
	u.DeliveryMode = user.DeliveryMode(mode)
	return nil
}

func (r *UserRepo) GetByFID(ctx context.Context, fid int64) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserByFID, fid), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UpsertByFID(ctx context.Context, fid int64) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserUpsert, fid), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) SetNotificationDetails(ctx context.Context, fid int64, url, token string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qUserSetNotification, fid, url, token); err != nil {
		return fmt.Errorf("set notification details: %w", err)
	}
	return nil
}

func (r *UserRepo) ClearNotificationDetails(ctx context.Context, fid int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	// Disabling notifications for a user we never saw is a no-op.
	if _, err := r.db.execQueryer(ctx).Exec(ctx, qUserClearNotification, fid); err != nil {
		return fmt.Errorf("clear notification details: %w", err)
	}
	return nil
}

func (r *UserRepo) SetDeliveryMode(ctx context.Context, fid int64, mode user.DeliveryMode) error {
	if !mode.Valid() {
		return fmt.Errorf("delivery mode %q: %w", mode, ErrConflict)
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qUserSetMode, fid, string(mode))
	if err != nil {
		return fmt.Errorf("set delivery mode: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) ListDigestSubscribers(ctx context.Context, mode user.DeliveryMode) ([]*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qUserDigestSubscribers, string(mode))
	if err != nil {
		return nil, fmt.Errorf("query digest subscribers: %w", err)
	}
	defer rows.Close()

	var out []*user.User
	for rows.Next() {
		var u user.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
