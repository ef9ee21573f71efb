package timeslotlocks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// KVLocker keeps slot locks in a JetStream key-value bucket. Expiry is the
// bucket's TTL, fixed when the bucket is created.
type KVLocker struct {
	kv jetstream.KeyValue
}

// NewKVLocker creates or updates the lock bucket.
func NewKVLocker(ctx context.Context, js jetstream.JetStream, bucket string, ttl time.Duration) (*KVLocker, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "timeslot booking locks",
		TTL:         ttl,
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open lock bucket %q: %w", bucket, err)
	}
	return &KVLocker{kv: kv}, nil
}

func lockKey(slotID int64) string {
	return "slot." + strconv.FormatInt(slotID, 10)
}

// Acquire ignores ttl; see NewKVLocker.
func (l *KVLocker) Acquire(ctx context.Context, slotID, submissionID int64, _ time.Duration) (bool, error) {
	key := lockKey(slotID)
	value := strconv.FormatInt(submissionID, 10)

	for range 2 {
		_, err := l.kv.Create(ctx, key, []byte(value))
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, jetstream.ErrKeyExists) {
			return false, fmt.Errorf("failed to lock timeslot: %w", err)
		}

		entry, err := l.kv.Get(ctx, key)
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			// expired between Create and Get
			continue
		}
		if err != nil {
			return false, fmt.Errorf("failed to read timeslot lock: %w", err)
		}
		return string(entry.Value()) == value, nil
	}
	return false, nil
}
