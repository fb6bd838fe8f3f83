package deliverylog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrPersistence marks a failed write to the membership store or the audit trail.
var ErrPersistence = errors.New("persisting delivery log")

// Key builds the dedup key of an (invoice, interval) pair.
func Key(invoiceID string, interval int) string {
	return invoiceID + "_" + strconv.Itoa(interval)
}

// ParseKey splits a key on its last underscore, so invoice ids that contain
// underscores still round-trip.
func ParseKey(key string) (string, int, bool) {
	i := strings.LastIndex(key, "_")
	if i <= 0 {
		return "", 0, false
	}

	interval, err := strconv.Atoi(key[i+1:])
	if err != nil {
		return "", 0, false
	}

	return key[:i], interval, true
}

//go:generate mockgen -source=deliverylog.go -destination=membership_mock.go -package=deliverylog

// Membership is the durable set of keys already notified. Backends must make
// Append durable before returning.
type Membership interface {
	Keys(ctx context.Context) ([]string, error)
	Append(ctx context.Context, key string) error
	Rewrite(ctx context.Context, keys []string) error
}

// Log is the per-run view of the membership store: a snapshot loaded once,
// kept in step with every append.
type Log struct {
	store Membership
	seen  map[string]struct{}
}

func NewLog(store Membership) *Log {
	return &Log{store: store, seen: make(map[string]struct{})}
}

// Load replaces the snapshot with the store's current contents.
func (l *Log) Load(ctx context.Context) error {
	keys, err := l.store.Keys(ctx)
	if err != nil {
		return fmt.Errorf("loading membership: %w", err)
	}

	l.seen = make(map[string]struct{}, len(keys))
	for _, k := range keys {
		l.seen[k] = struct{}{}
	}

	return nil
}

func (l *Log) Contains(key string) bool {
	_, ok := l.seen[key]
	return ok
}

func (l *Log) Len() int {
	return len(l.seen)
}

func (l *Log) Append(ctx context.Context, key string) error {
	if err := l.store.Append(ctx, key); err != nil {
		return fmt.Errorf("%w: appending key %s: %v", ErrPersistence, key, err)
	}

	l.seen[key] = struct{}{}

	return nil
}

// PrunePaid rewrites the store without the keys of paid invoices and returns
// how many were dropped. The audit trail is left alone.
func (l *Log) PrunePaid(ctx context.Context, paid map[string]struct{}) (int, error) {
	keys, err := l.store.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading membership: %w", err)
	}

	kept := make([]string, 0, len(keys))

	for _, k := range keys {
		if _, isPaid := paid[invoiceIDOf(k)]; isPaid {
			continue
		}

		kept = append(kept, k)
	}

	if err := l.store.Rewrite(ctx, kept); err != nil {
		return 0, fmt.Errorf("%w: rewriting membership: %v", ErrPersistence, err)
	}

	l.seen = make(map[string]struct{}, len(kept))
	for _, k := range kept {
		l.seen[k] = struct{}{}
	}

	return len(keys) - len(kept), nil
}

func invoiceIDOf(key string) string {
	if id, _, ok := ParseKey(key); ok {
		return id
	}

	return key
}
