package postgres

import (
	"context"
	"fmt"
	"hash/fnv"
)

// PairLocker serializes transactional work on an unordered pair of
// users. It closes the race where two workers processing transfers
// between the same pair both pass the cooldown check.
type PairLocker interface {
	// LockPair takes a transaction-scoped advisory lock keyed on the
	// unordered (a, b) pair. Must be called inside WithTx; the lock
	// releases with the transaction.
	LockPair(ctx context.Context, a, b string) error
}

var _ PairLocker = (*advisoryPairLocker)(nil)

type advisoryPairLocker struct {
	db *DB
}

func NewPairLocker(db *DB) *advisoryPairLocker { return &advisoryPairLocker{db: db} }

func (l *advisoryPairLocker) LockPair(ctx context.Context, a, b string) error {
	if _, err := extractTx(ctx); err != nil {
		return fmt.Errorf("pair lock outside transaction: %w", err)
	}
	lo, hi := pairLockKeys(a, b)
	if _, err := l.db.execQueryer(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2);`, lo, hi); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	return nil
}

func pairLockKeys(a, b string) (int32, int32) {
	ka, kb := lockKey(a), lockKey(b)
	if ka > kb {
		ka, kb = kb, ka
	}
	return ka, kb
}

func lockKey(id string) int32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int32(h.Sum32())
}
