package message

import (
	"context"
	"time"
)

type Repo interface {
	// Insert persists m and fills in ID and CreatedAt. Returns
	// ErrDuplicateTransaction (from the repository package) when a
	// message with the same transaction hash already exists.
	Insert(ctx context.Context, m *Message) error

	// LastSentAt returns the creation time of the most recent message
	// from fromUserID to toUserID. ok is false when none exists.
	LastSentAt(ctx context.Context, fromUserID, toUserID string) (t time.Time, ok bool, err error)

	// InboundForDigest returns messages received by userID within the
	// lookback window and created after the user's own most recent
	// outbound message, newest first.
	InboundForDigest(ctx context.Context, userID string, lookback time.Duration) ([]Inbound, error)
}
