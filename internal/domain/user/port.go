package user

import "context"

type Repo interface {
	GetByFID(ctx context.Context, fid int64) (*User, error)

	// UpsertByFID returns the existing row for fid or creates one.
	// Safe under concurrent workers: the fid unique constraint decides.
	UpsertByFID(ctx context.Context, fid int64) (*User, error)

	SetNotificationDetails(ctx context.Context, fid int64, url, token string) error
	ClearNotificationDetails(ctx context.Context, fid int64) error
	SetDeliveryMode(ctx context.Context, fid int64, mode DeliveryMode) error

	// ListDigestSubscribers returns users in the given delivery mode
	// that have a push endpoint configured.
	ListDigestSubscribers(ctx context.Context, mode DeliveryMode) ([]*User, error)
}
