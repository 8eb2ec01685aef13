package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-correction-go/internal/domain/correction"
	goredis "github.com/redis/go-redis/v9"
)

const (
	draftPrefix = "correction:draft:"
	lockPrefix  = "correction:submitting:"

	maxUpdateRetries = 5
)

type draftRepositoryImpl struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewDraftRepository stores drafts as JSON under a per-employee key that
// expires ttl after the last write.
func NewDraftRepository(rdb *goredis.Client, ttl time.Duration) correction.DraftRepository {
	return &draftRepositoryImpl{rdb: rdb, ttl: ttl}
}

func draftKey(employeeID string) string {
	return draftPrefix + employeeID
}

func lockKey(employeeID string) string {
	return lockPrefix + employeeID
}

func decode(employeeID string, raw []byte) (correction.Draft, error) {
	draft := correction.NewDraft(employeeID)
	if err := json.Unmarshal(raw, &draft); err != nil {
		return correction.Draft{}, fmt.Errorf("failed to decode draft: %w", err)
	}
	return draft, nil
}

// Get implements correction.DraftRepository.
func (r *draftRepositoryImpl) Get(ctx context.Context, employeeID string) (correction.Draft, error) {
	raw, err := r.rdb.Get(ctx, draftKey(employeeID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return correction.NewDraft(employeeID), nil
	}
	if err != nil {
		return correction.Draft{}, fmt.Errorf("failed to get draft: %w", err)
	}
	return decode(employeeID, raw)
}

// Update implements correction.DraftRepository with an optimistic
// WATCH/MULTI transaction. It gives up with ErrDraftConflict after
// maxUpdateRetries lost races.
func (r *draftRepositoryImpl) Update(ctx context.Context, employeeID string, fn func(d *correction.Draft) error) (correction.Draft, error) {
	key := draftKey(employeeID)
	var result correction.Draft

	txf := func(tx *goredis.Tx) error {
		draft := correction.NewDraft(employeeID)

		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, goredis.Nil):
		case err != nil:
			return fmt.Errorf("failed to get draft: %w", err)
		default:
			if draft, err = decode(employeeID, raw); err != nil {
				return err
			}
		}

		if err := fn(&draft); err != nil {
			return err
		}

		encoded, err := json.Marshal(draft)
		if err != nil {
			return fmt.Errorf("failed to encode draft: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		result = draft
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return correction.Draft{}, err
	}

	return correction.Draft{}, correction.ErrDraftConflict
}

// Delete implements correction.DraftRepository.
func (r *draftRepositoryImpl) Delete(ctx context.Context, employeeID string) error {
	if err := r.rdb.Del(ctx, draftKey(employeeID)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// TryLockSubmit implements correction.DraftRepository.
func (r *draftRepositoryImpl) TryLockSubmit(ctx context.Context, employeeID string, owner string, ttl time.Duration) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, lockKey(employeeID), owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set submit lock: %w", err)
	}
	return ok, nil
}

// unlockScript deletes the lock key only when it still holds the caller's owner token.
var unlockScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// UnlockSubmit implements correction.DraftRepository.
func (r *draftRepositoryImpl) UnlockSubmit(ctx context.Context, employeeID string, owner string) error {
	if err := unlockScript.Run(ctx, r.rdb, []string{lockKey(employeeID)}, owner).Err(); err != nil {
		return fmt.Errorf("failed to release submit lock: %w", err)
	}
	return nil
}

// PurgeExpired implements correction.DraftRepository. Redis expires draft
// keys on its own, so there is never anything to purge.
func (r *draftRepositoryImpl) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
