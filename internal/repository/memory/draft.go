package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-correction-go/internal/domain/correction"
)

type draftRepositoryImpl struct {
	mu     sync.Mutex
	ttl    time.Duration
	drafts map[string][]byte
	locks  map[string]submitLock
	now    func() time.Time
}

type submitLock struct {
	owner   string
	expires time.Time
}

// NewDraftRepository keeps drafts in process memory. Drafts are stored
// encoded so callers never share maps with the store.
func NewDraftRepository(ttl time.Duration) correction.DraftRepository {
	return &draftRepositoryImpl{
		ttl:    ttl,
		drafts: make(map[string][]byte),
		locks:  make(map[string]submitLock),
		now:    time.Now,
	}
}

func (r *draftRepositoryImpl) load(employeeID string) (correction.Draft, error) {
	raw, ok := r.drafts[employeeID]
	if !ok {
		return correction.NewDraft(employeeID), nil
	}

	draft := correction.NewDraft(employeeID)
	if err := json.Unmarshal(raw, &draft); err != nil {
		return correction.Draft{}, fmt.Errorf("failed to decode draft: %w", err)
	}
	return draft, nil
}

// Get implements correction.DraftRepository.
func (r *draftRepositoryImpl) Get(ctx context.Context, employeeID string) (correction.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(employeeID)
}

// Update implements correction.DraftRepository.
func (r *draftRepositoryImpl) Update(ctx context.Context, employeeID string, fn func(d *correction.Draft) error) (correction.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	draft, err := r.load(employeeID)
	if err != nil {
		return correction.Draft{}, err
	}
	if err := fn(&draft); err != nil {
		return correction.Draft{}, err
	}

	raw, err := json.Marshal(draft)
	if err != nil {
		return correction.Draft{}, fmt.Errorf("failed to encode draft: %w", err)
	}
	r.drafts[employeeID] = raw
	return draft, nil
}

// Delete implements correction.DraftRepository.
func (r *draftRepositoryImpl) Delete(ctx context.Context, employeeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, employeeID)
	return nil
}

// TryLockSubmit implements correction.DraftRepository.
func (r *draftRepositoryImpl) TryLockSubmit(ctx context.Context, employeeID string, owner string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if lock, ok := r.locks[employeeID]; ok && now.Before(lock.expires) {
		return false, nil
	}
	r.locks[employeeID] = submitLock{owner: owner, expires: now.Add(ttl)}
	return true, nil
}

// UnlockSubmit implements correction.DraftRepository.
func (r *draftRepositoryImpl) UnlockSubmit(ctx context.Context, employeeID string, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lock, ok := r.locks[employeeID]; ok && lock.owner == owner {
		delete(r.locks, employeeID)
	}
	return nil
}

// PurgeExpired implements correction.DraftRepository.
func (r *draftRepositoryImpl) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	if r.ttl <= 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-r.ttl)
	purged := 0
	for employeeID, raw := range r.drafts {
		var stamp struct {
			UpdatedAt time.Time `json:"updated_at"`
		}
		if err := json.Unmarshal(raw, &stamp); err != nil {
			return purged, fmt.Errorf("failed to decode draft of %s: %w", employeeID, err)
		}
		if stamp.UpdatedAt.Before(cutoff) {
			delete(r.drafts, employeeID)
			purged++
		}
	}

	for employeeID, lock := range r.locks {
		if !now.Before(lock.expires) {
			delete(r.locks, employeeID)
		}
	}
	return purged, nil
}
