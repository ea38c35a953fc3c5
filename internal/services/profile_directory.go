package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"golang.org/x/sync/singleflight"

	"tripmate/internal/metrics"
	"tripmate/internal/models"
	"tripmate/internal/store"
)

const profileKeyPrefix = "tripmate:profile:"

type cachedProfile struct {
	profile models.UserProfile
	expires time.Time
}

// ProfileDirectory resolves uids to profiles through a bounded in-process LRU,
// then Redis when configured, then the store. Entries expire after ttl and
// are dropped from both cache tiers when the profile is updated.
type ProfileDirectory struct {
	store store.ProfileStore
	redis *RedisCache
	ttl   time.Duration

	mu    sync.Mutex
	local *lru.Cache
	group singleflight.Group
	now   func() time.Time
}

func NewProfileDirectory(ps store.ProfileStore, redis *RedisCache, size int, ttl time.Duration) *ProfileDirectory {
	if size <= 0 {
		size = 1
	}
	return &ProfileDirectory{
		store: ps,
		redis: redis,
		ttl:   ttl,
		local: lru.New(size),
		now:   time.Now,
	}
}

func (d *ProfileDirectory) fromLocal(uid string) (models.UserProfile, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.local.Get(uid)
	if !ok {
		return models.UserProfile{}, false
	}
	entry := v.(cachedProfile)
	if d.now().After(entry.expires) {
		d.local.Remove(uid)
		return models.UserProfile{}, false
	}
	return entry.profile, true
}

func (d *ProfileDirectory) remember(p models.UserProfile) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.local.Add(p.UID, cachedProfile{profile: p, expires: d.now().Add(d.ttl)})
}

// Get returns the profile for uid or store.ErrNotFound
func (d *ProfileDirectory) Get(ctx context.Context, uid string) (models.UserProfile, error) {
	if p, ok := d.fromLocal(uid); ok {
		metrics.ProfileCacheLookups.WithLabelValues("local").Inc()
		return p, nil
	}

	v, err, _ := d.group.Do(uid, func() (any, error) {
		fetched := false
		fetch := func() (models.UserProfile, error) {
			fetched = true
			p, err := d.store.GetProfile(ctx, uid)
			if err != nil {
				return models.UserProfile{}, err
			}
			p.UID = uid
			return p, nil
		}

		var p models.UserProfile
		var err error
		if d.redis != nil {
			p, err = GetOrSet(d.redis, ctx, profileKeyPrefix+uid, d.ttl, fetch)
		} else {
			p, err = fetch()
		}
		if err != nil {
			return models.UserProfile{}, err
		}

		tier := "redis"
		if fetched {
			tier = "store"
		}
		metrics.ProfileCacheLookups.WithLabelValues(tier).Inc()
		d.remember(p)
		return p, nil
	})
	if err != nil {
		return models.UserProfile{}, err
	}
	return v.(models.UserProfile), nil
}

// Participants resolves uids in order. Users without a profile document are
// shown as UnknownDisplayName.
func (d *ProfileDirectory) Participants(ctx context.Context, uids []string) ([]models.Participant, error) {
	participants := make([]models.Participant, 0, len(uids))
	for _, uid := range uids {
		p, err := d.Get(ctx, uid)
		if errors.Is(err, store.ErrNotFound) {
			participants = append(participants, models.Participant{UID: uid, DisplayName: models.UnknownDisplayName})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", uid, err)
		}
		participants = append(participants, p.Participant())
	}
	return participants, nil
}

// Invalidate drops uid from both cache tiers
func (d *ProfileDirectory) Invalidate(ctx context.Context, uid string) error {
	d.mu.Lock()
	d.local.Remove(uid)
	d.mu.Unlock()

	if d.redis == nil {
		return nil
	}
	return d.redis.Delete(ctx, profileKeyPrefix+uid)
}

// Put writes the profile and invalidates the cached copy
func (d *ProfileDirectory) Put(ctx context.Context, p models.UserProfile) error {
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	if err := d.store.PutProfile(ctx, p); err != nil {
		return err
	}
	return d.Invalidate(ctx, p.UID)
}

// SearchByEmail looks a user up by exact email
func (d *ProfileDirectory) SearchByEmail(ctx context.Context, email string) (models.UserProfile, error) {
	return d.store.SearchProfileByEmail(ctx, email)
}
